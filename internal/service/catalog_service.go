package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/validator"

	"github.com/google/uuid"
)

const catalogCacheTTL = 10 * time.Minute

type CatalogService interface {
	CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, actor Actor, id uuid.UUID, in CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)

	CreateUnit(ctx context.Context, actor Actor, in UnitInput) (*model.Unit, error)
	UpdateUnit(ctx context.Context, actor Actor, id uuid.UUID, in UnitInput) (*model.Unit, error)
	DeleteUnit(ctx context.Context, actor Actor, id uuid.UUID) error
	ListUnits(ctx context.Context) ([]model.Unit, error)
	GetUnit(ctx context.Context, id uuid.UUID) (*model.Unit, error)

	CategoryHasItems(ctx context.Context, id uuid.UUID) (bool, error)
	UnitHasItems(ctx context.Context, id uuid.UUID) (bool, error)
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

type UnitInput struct {
	Name   string `json:"name" validate:"required,max=255"`
	Symbol string `json:"symbol" validate:"required,max=10"`
}

type catalogService struct {
	store repository.Store
	cache cache.Cache
}

func NewCatalogService(store repository.Store, c cache.Cache) CatalogService {
	if c == nil {
		c = cache.NewMemory()
	}
	return &catalogService{store: store, cache: c}
}

func (s *catalogService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error) {
	if err := actor.require(model.CapCatalogManage); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	category := &model.Category{Name: in.Name, Description: in.Description}
	category.CreatedBy = actor.audit()
	category.UpdatedBy = actor.audit()

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		if err := uniqueCategoryName(ctx, r, in.Name, uuid.Nil); err != nil {
			return err
		}
		return repoErr(r.Categories().Create(ctx, category), "Category")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyCategories)
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor Actor, id uuid.UUID, in CategoryInput) (*model.Category, error) {
	if err := actor.require(model.CapCatalogManage); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	var category *model.Category
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		existing, err := r.Categories().FindByID(ctx, id)
		if err != nil {
			return repoErr(err, "Category")
		}
		if err := uniqueCategoryName(ctx, r, in.Name, id); err != nil {
			return err
		}
		existing.Name = in.Name
		existing.Description = in.Description
		existing.UpdatedBy = actor.audit()
		category = existing
		return repoErr(r.Categories().Update(ctx, existing), "Category")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyCategories)
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.require(model.CapCatalogManage); err != nil {
		return err
	}

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		category, err := r.Categories().FindByIDForUpdate(ctx, id)
		if err != nil {
			return repoErr(err, "Category")
		}
		count, err := r.Items().CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrReferentialIntegrity, "Category '%s' is still used by %d item(s)", category.Name, count)
		}
		return repoErr(r.Categories().Delete(ctx, id, actor.audit()), "Category")
	})
	if err != nil {
		return err
	}

	invalidate(ctx, s.cache, cache.KeyCategories)
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := cache.GetJSON(ctx, s.cache, cache.KeyCategories, &categories); err == nil {
		return categories, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Warning: category cache read failed: %v", err)
	}

	categories, err := s.store.Categories().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, cache.KeyCategories, categories, catalogCacheTTL); err != nil {
		log.Printf("Warning: category cache write failed: %v", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.store.Categories().FindByID(ctx, id)
	return category, repoErr(err, "Category")
}

func (s *catalogService) CategoryHasItems(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := s.store.Items().CountByCategory(ctx, id)
	return count > 0, err
}

func (s *catalogService) CreateUnit(ctx context.Context, actor Actor, in UnitInput) (*model.Unit, error) {
	if err := actor.require(model.CapCatalogManage); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = strings.TrimSpace(in.Symbol)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	unit := &model.Unit{Name: in.Name, Symbol: in.Symbol}
	unit.CreatedBy = actor.audit()
	unit.UpdatedBy = actor.audit()

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		if err := uniqueUnit(ctx, r, in, uuid.Nil); err != nil {
			return err
		}
		return repoErr(r.Units().Create(ctx, unit), "Unit")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyUnits)
	return unit, nil
}

func (s *catalogService) UpdateUnit(ctx context.Context, actor Actor, id uuid.UUID, in UnitInput) (*model.Unit, error) {
	if err := actor.require(model.CapCatalogManage); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Symbol = strings.TrimSpace(in.Symbol)
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}

	var unit *model.Unit
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		existing, err := r.Units().FindByID(ctx, id)
		if err != nil {
			return repoErr(err, "Unit")
		}
		if err := uniqueUnit(ctx, r, in, id); err != nil {
			return err
		}
		existing.Name = in.Name
		existing.Symbol = in.Symbol
		existing.UpdatedBy = actor.audit()
		unit = existing
		return repoErr(r.Units().Update(ctx, existing), "Unit")
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyUnits)
	return unit, nil
}

func (s *catalogService) DeleteUnit(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.require(model.CapCatalogManage); err != nil {
		return err
	}

	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		unit, err := r.Units().FindByIDForUpdate(ctx, id)
		if err != nil {
			return repoErr(err, "Unit")
		}
		count, err := r.Items().CountByUnit(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return newError(ErrReferentialIntegrity, "Unit '%s' is still used by %d item(s)", unit.Name, count)
		}
		return repoErr(r.Units().Delete(ctx, id, actor.audit()), "Unit")
	})
	if err != nil {
		return err
	}

	invalidate(ctx, s.cache, cache.KeyUnits)
	return nil
}

func (s *catalogService) ListUnits(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	if err := cache.GetJSON(ctx, s.cache, cache.KeyUnits, &units); err == nil {
		return units, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Warning: unit cache read failed: %v", err)
	}

	units, err := s.store.Units().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, cache.KeyUnits, units, catalogCacheTTL); err != nil {
		log.Printf("Warning: unit cache write failed: %v", err)
	}
	return units, nil
}

func (s *catalogService) GetUnit(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	unit, err := s.store.Units().FindByID(ctx, id)
	return unit, repoErr(err, "Unit")
}

func (s *catalogService) UnitHasItems(ctx context.Context, id uuid.UUID) (bool, error) {
	count, err := s.store.Items().CountByUnit(ctx, id)
	return count > 0, err
}

// uniqueCategoryName fails when another live category already uses name.
func uniqueCategoryName(ctx context.Context, r repository.Repositories, name string, self uuid.UUID) error {
	existing, err := r.Categories().FindByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return validationf("Category name '%s' already exists", name)
	}
	return nil
}

func uniqueUnit(ctx context.Context, r repository.Repositories, in UnitInput, self uuid.UUID) error {
	byName, err := r.Units().FindByName(ctx, in.Name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if byName != nil && byName.ID != self {
		return validationf("Unit name '%s' already exists", in.Name)
	}

	bySymbol, err := r.Units().FindBySymbol(ctx, in.Symbol)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if bySymbol != nil && bySymbol.ID != self {
		return validationf("Unit symbol '%s' already exists", in.Symbol)
	}
	return nil
}
