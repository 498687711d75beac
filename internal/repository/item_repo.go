package repository

import (
	"context"
	"strings"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByCode(ctx context.Context, code string) (*model.Item, error)
	Search(ctx context.Context, term string) ([]model.Item, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	CountByUnit(ctx context.Context, unitID uuid.UUID) (int64, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	GetStockStats(ctx context.Context, lowStockThreshold int) (*StockStats, error)
}

// StockStats untuk overview dashboard
type StockStats struct {
	TotalItems     int64           `json:"total_items"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

// Update saves scalar columns only; variants go through ItemSizeRepository.
func (r *itemRepo) Update(ctx context.Context, item *model.Item) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error)
}

func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return softDelete(ctx, r.db, &model.Item{}, id, deletedBy)
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Preload("Category", withDeleted).
		Preload("Unit", withDeleted).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *itemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := forUpdate(r.db.WithContext(ctx)).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *itemRepo) FindByCode(ctx context.Context, code string) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// Search matches name, code, size summary and category name, case-insensitively.
func (r *itemRepo) Search(ctx context.Context, term string) ([]model.Item, error) {
	var items []model.Item
	q := r.db.WithContext(ctx).
		Select("items.*").
		Preload("Category", withDeleted).
		Preload("Unit", withDeleted).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })

	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Joins("LEFT JOIN categories ON categories.id = items.category_id").
			Where("LOWER(items.name) LIKE ? OR LOWER(items.code) LIKE ? OR LOWER(items.size) LIKE ? OR LOWER(categories.name) LIKE ?",
				like, like, like, like)
	}

	err := q.Order("items.name ASC").Find(&items).Error
	return items, translate(err)
}

func (r *itemRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, translate(err)
}

func (r *itemRepo) CountByUnit(ctx context.Context, unitID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Where("unit_id = ?", unitID).Count(&count).Error
	return count, translate(err)
}

// AdjustStock applies delta in SQL. Decrements are guarded so the counter
// can never go below zero.
func (r *itemRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return adjustStock(ctx, r.db, &model.Item{}, id, delta)
}

func (r *itemRepo) GetStockStats(ctx context.Context, lowStockThreshold int) (*StockStats, error) {
	var stats StockStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Item{}).Count(&stats.TotalItems).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Model(&model.Item{}).Where("stock < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, translate(err)
	}

	var valuation string
	if err := db.Model(&model.Item{}).Select("COALESCE(SUM(stock * price), 0)::text").Scan(&valuation).Error; err != nil {
		return nil, translate(err)
	}
	v, err := decimal.NewFromString(valuation)
	if err != nil {
		return nil, err
	}
	stats.TotalValuation = v

	return &stats, nil
}

func adjustStock(ctx context.Context, db *gorm.DB, value interface{}, id uuid.UUID, delta int) error {
	q := db.WithContext(ctx).Model(value).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}
