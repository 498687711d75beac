package repository

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemSizeRepository interface {
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]model.ItemSize, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemSize, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ItemSize, error)
	FindByItemAndSize(ctx context.Context, itemID uuid.UUID, size string) (*model.ItemSize, error)
	// ReplaceForItem removes every live variant of the item and inserts sizes.
	ReplaceForItem(ctx context.Context, itemID uuid.UUID, sizes []model.ItemSize, actor string) error
	DeleteByItem(ctx context.Context, itemID uuid.UUID, actor string) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

type itemSizeRepo struct {
	db *gorm.DB
}

func NewItemSizeRepo(db *gorm.DB) ItemSizeRepository {
	return &itemSizeRepo{db}
}

func (r *itemSizeRepo) FindByItem(ctx context.Context, itemID uuid.UUID) ([]model.ItemSize, error) {
	var sizes []model.ItemSize
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at ASC").Find(&sizes).Error
	return sizes, translate(err)
}

func (r *itemSizeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemSize, error) {
	var size model.ItemSize
	if err := r.db.WithContext(ctx).First(&size, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &size, nil
}

func (r *itemSizeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ItemSize, error) {
	var size model.ItemSize
	if err := forUpdate(r.db.WithContext(ctx)).First(&size, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &size, nil
}

func (r *itemSizeRepo) FindByItemAndSize(ctx context.Context, itemID uuid.UUID, size string) (*model.ItemSize, error) {
	var itemSize model.ItemSize
	if err := r.db.WithContext(ctx).Where("item_id = ? AND size = ?", itemID, size).First(&itemSize).Error; err != nil {
		return nil, translate(err)
	}
	return &itemSize, nil
}

func (r *itemSizeRepo) ReplaceForItem(ctx context.Context, itemID uuid.UUID, sizes []model.ItemSize, actor string) error {
	if err := r.DeleteByItem(ctx, itemID, actor); err != nil {
		return err
	}
	if len(sizes) == 0 {
		return nil
	}
	// created_at orders the variants, keep it strictly increasing within the batch
	now := time.Now()
	for i := range sizes {
		sizes[i].ItemID = itemID
		sizes[i].CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		sizes[i].CreatedBy = actor
		sizes[i].UpdatedBy = actor
	}
	return translate(r.db.WithContext(ctx).Create(&sizes).Error)
}

// DeleteByItem soft-deletes the variants so ledger rows and requests that
// point at them keep resolving.
func (r *itemSizeRepo) DeleteByItem(ctx context.Context, itemID uuid.UUID, actor string) error {
	return translate(r.db.WithContext(ctx).Model(&model.ItemSize{}).
		Where("item_id = ?", itemID).
		Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("NOW()"),
			"deleted_by": actor,
		}).Error)
}

func (r *itemSizeRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return adjustStock(ctx, r.db, &model.ItemSize{}, id, delta)
}
