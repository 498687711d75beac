package repository

import (
	"context"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	// FindByIDForUpdate is taken by delete; FindByIDForShare by item writes
	// that reference the category. Together they keep a deleted category
	// from gaining items.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	FindAll(ctx context.Context) ([]model.Category, error)
}

type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	Update(ctx context.Context, unit *model.Unit) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	FindByName(ctx context.Context, name string) (*model.Unit, error)
	FindBySymbol(ctx context.Context, symbol string) (*model.Unit, error)
	FindAll(ctx context.Context) ([]model.Unit, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	return translate(r.db.WithContext(ctx).Save(category).Error)
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Category{}, id, deletedBy)
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *categoryRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *categoryRepo) FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return r.find(forShare(r.db.WithContext(ctx)), id)
}

func (r *categoryRepo) find(q *gorm.DB, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := q.First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, translate(err)
}

type unitRepo struct {
	db *gorm.DB
}

func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db}
}

func (r *unitRepo) Create(ctx context.Context, unit *model.Unit) error {
	return translate(r.db.WithContext(ctx).Create(unit).Error)
}

func (r *unitRepo) Update(ctx context.Context, unit *model.Unit) error {
	return translate(r.db.WithContext(ctx).Save(unit).Error)
}

func (r *unitRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Unit{}, id, deletedBy)
}

func (r *unitRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *unitRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *unitRepo) FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	return r.find(forShare(r.db.WithContext(ctx)), id)
}

func (r *unitRepo) find(q *gorm.DB, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	if err := q.First(&unit, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *unitRepo) FindByName(ctx context.Context, name string) (*model.Unit, error) {
	var unit model.Unit
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&unit).Error; err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *unitRepo) FindBySymbol(ctx context.Context, symbol string) (*model.Unit, error) {
	var unit model.Unit
	if err := r.db.WithContext(ctx).Where("LOWER(symbol) = LOWER(?)", symbol).First(&unit).Error; err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *unitRepo) FindAll(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).Order("name ASC").Find(&units).Error
	return units, translate(err)
}

// softDelete stamps deleted_at and deleted_by in one statement.
func softDelete(ctx context.Context, db *gorm.DB, value interface{}, id uuid.UUID, deletedBy string) error {
	res := db.WithContext(ctx).Model(value).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": gorm.Expr("NOW()"),
		"deleted_by": deletedBy,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
