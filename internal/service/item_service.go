package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemService interface {
	CreateItem(ctx context.Context, actor Actor, in ItemInput) (*model.Item, error)
	UpdateItem(ctx context.Context, actor Actor, id uuid.UUID, in ItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, actor Actor, id uuid.UUID) error
	ListItems(ctx context.Context, actor Actor, search string) ([]model.Item, error)
	GetItem(ctx context.Context, actor Actor, id uuid.UUID) (*model.Item, error)
}

type ItemInput struct {
	Code        string          `json:"code" validate:"required,max=50"`
	Name        string          `json:"name" validate:"required,max=255"`
	CategoryID  uuid.UUID       `json:"category_id" validate:"uuid_required"`
	UnitID      uuid.UUID       `json:"unit_id" validate:"uuid_required"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Sizes       []SizeInput     `json:"sizes" validate:"dive"`
}

type SizeInput struct {
	Size  string `json:"size" validate:"max=50"`
	Stock int    `json:"stock" validate:"min=0"`
}

type itemService struct {
	store     repository.Store
	cache     cache.Cache
	publisher Publisher
}

func NewItemService(store repository.Store, c cache.Cache, publisher Publisher) ItemService {
	if publisher == nil {
		publisher = NopPublisher
	}
	return &itemService{store: store, cache: c, publisher: publisher}
}

// normalize validates the input and returns the variant rows to persist.
// Variants with a blank label are skipped.
func (in *ItemInput) normalize() ([]model.ItemSize, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if msg := validator.First(in); msg != "" {
		return nil, validationf("%s", msg)
	}
	if in.Price.IsNegative() {
		return nil, validationf("Price must not be negative")
	}

	sizes := make([]model.ItemSize, 0, len(in.Sizes))
	seen := make(map[string]bool, len(in.Sizes))
	for _, v := range in.Sizes {
		label := strings.TrimSpace(v.Size)
		if label == "" {
			continue
		}
		if seen[label] {
			return nil, validationf("Duplicate size '%s'", label)
		}
		seen[label] = true
		sizes = append(sizes, model.ItemSize{Size: label, Stock: v.Stock})
	}
	return sizes, nil
}

func (s *itemService) CreateItem(ctx context.Context, actor Actor, in ItemInput) (*model.Item, error) {
	if err := actor.require(model.CapItemManage); err != nil {
		return nil, err
	}
	sizes, err := in.normalize()
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		Code:        in.Code,
		Name:        in.Name,
		CategoryID:  in.CategoryID,
		UnitID:      in.UnitID,
		Price:       in.Price,
		Description: in.Description,
		Stock:       model.SumStock(sizes),
		Size:        model.SizeSummary(sizes),
	}
	item.CreatedBy = actor.audit()
	item.UpdatedBy = actor.audit()

	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		if err := checkItemRefs(ctx, r, in, uuid.Nil); err != nil {
			return err
		}
		if err := r.Items().Create(ctx, item); err != nil {
			return itemWriteErr(err, in.Code)
		}
		return r.ItemSizes().ReplaceForItem(ctx, item.ID, sizes, actor.audit())
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, actor, "item_created", fmt.Sprintf("%s created item '%s'", actor.Name, item.Name), item, 0)
	return s.reload(ctx, item.ID)
}

func (s *itemService) UpdateItem(ctx context.Context, actor Actor, id uuid.UUID, in ItemInput) (*model.Item, error) {
	if err := actor.require(model.CapItemManage); err != nil {
		return nil, err
	}
	sizes, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var item *model.Item
	var oldStock int
	err = s.store.Atomic(ctx, func(r repository.Repositories) error {
		existing, err := r.Items().FindByIDForUpdate(ctx, id)
		if err != nil {
			return repoErr(err, "Item")
		}
		if err := checkItemRefs(ctx, r, in, id); err != nil {
			return err
		}
		current, err := r.ItemSizes().FindByItem(ctx, id)
		if err != nil {
			return err
		}

		oldStock = existing.Stock
		existing.Code = in.Code
		existing.Name = in.Name
		existing.CategoryID = in.CategoryID
		existing.UnitID = in.UnitID
		existing.Price = in.Price
		existing.Description = in.Description
		existing.Size = model.SizeSummary(sizes)
		// A sizeless item keeps its standalone counter when it stays sizeless.
		if len(sizes) > 0 || len(current) > 0 {
			existing.Stock = model.SumStock(sizes)
		}
		existing.UpdatedBy = actor.audit()

		if err := r.Items().Update(ctx, existing); err != nil {
			return itemWriteErr(err, in.Code)
		}
		if err := r.ItemSizes().ReplaceForItem(ctx, id, sizes, actor.audit()); err != nil {
			return err
		}
		item = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, actor, "item_updated", fmt.Sprintf("%s updated item '%s'", actor.Name, item.Name), item, oldStock)
	return s.reload(ctx, id)
}

func (s *itemService) reload(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	item, err := s.store.Items().FindByID(ctx, id)
	return item, repoErr(err, "Item")
}

func (s *itemService) DeleteItem(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := actor.require(model.CapItemManage); err != nil {
		return err
	}

	var item *model.Item
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		existing, err := r.Items().FindByIDForUpdate(ctx, id)
		if err != nil {
			return repoErr(err, "Item")
		}
		if err := r.ItemSizes().DeleteByItem(ctx, id, actor.audit()); err != nil {
			return err
		}
		item = existing
		return repoErr(r.Items().Delete(ctx, id, actor.audit()), "Item")
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, actor, "item_deleted", fmt.Sprintf("%s deleted item '%s'", actor.Name, item.Name), item, item.Stock)
	return nil
}

func (s *itemService) ListItems(ctx context.Context, actor Actor, search string) ([]model.Item, error) {
	if err := actor.require(model.CapItemView); err != nil {
		return nil, err
	}
	return s.store.Items().Search(ctx, search)
}

func (s *itemService) GetItem(ctx context.Context, actor Actor, id uuid.UUID) (*model.Item, error) {
	if err := actor.require(model.CapItemView); err != nil {
		return nil, err
	}
	item, err := s.store.Items().FindByID(ctx, id)
	return item, repoErr(err, "Item")
}

func (s *itemService) afterChange(ctx context.Context, actor Actor, action, message string, item *model.Item, oldStock int) {
	invalidate(ctx, s.cache, cache.KeyDashboardStats)
	s.publisher.Publish(event(eventStockUpdate, action, message, actor, map[string]interface{}{
		"item": map[string]interface{}{
			"id":        item.ID,
			"code":      item.Code,
			"name":      item.Name,
			"size":      item.Size,
			"old_stock": oldStock,
			"new_stock": item.Stock,
			"price":     item.Price,
		},
	}))
}

// checkItemRefs enforces code uniqueness (excluding self) and resolves the
// category and unit references.
func checkItemRefs(ctx context.Context, r repository.Repositories, in ItemInput, self uuid.UUID) error {
	existing, err := r.Items().FindByCode(ctx, in.Code)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ID != self {
		return validationf("Item code '%s' already exists", in.Code)
	}

	if _, err := r.Categories().FindByIDForShare(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationf("Category not found")
		}
		return err
	}
	if _, err := r.Units().FindByIDForShare(ctx, in.UnitID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationf("Unit not found")
		}
		return err
	}
	return nil
}

func itemWriteErr(err error, code string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return validationf("Item code '%s' already exists", code)
	}
	return repoErr(err, "Item")
}
