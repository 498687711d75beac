package repository

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRequestRepository interface {
	Create(ctx context.Context, req *model.ItemRequest) error
	Update(ctx context.Context, req *model.ItemRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]model.ItemRequest, error)
	CountByStatus(ctx context.Context, status model.RequestStatus) (int64, error)
}

// RequestFilter narrows request listings. Zero values mean "any".
type RequestFilter struct {
	UserID   *uuid.UUID
	Status   model.RequestStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

type itemRequestRepo struct {
	db *gorm.DB
}

func NewItemRequestRepo(db *gorm.DB) ItemRequestRepository {
	return &itemRequestRepo{db}
}

func (r *itemRequestRepo) Create(ctx context.Context, req *model.ItemRequest) error {
	return translate(r.db.WithContext(ctx).Omit("Item", "ItemSize", "User", "Processor").Create(req).Error)
}

func (r *itemRequestRepo) Update(ctx context.Context, req *model.ItemRequest) error {
	return translate(r.db.WithContext(ctx).Omit("Item", "ItemSize", "User", "Processor").Save(req).Error)
}

func (r *itemRequestRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Item", withDeleted).
		Preload("Item.Unit", withDeleted).
		Preload("ItemSize", withDeleted).
		Preload("User", withDeleted).
		Preload("Processor", withDeleted)
}

func (r *itemRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	var req model.ItemRequest
	if err := r.preloaded(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *itemRequestRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ItemRequest, error) {
	var req model.ItemRequest
	if err := forUpdate(r.db.WithContext(ctx)).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *itemRequestRepo) List(ctx context.Context, filter RequestFilter) ([]model.ItemRequest, error) {
	var requests []model.ItemRequest
	q := r.preloaded(ctx)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		// DateTo is a calendar day; include everything created on it
		q = q.Where("created_at < ?", filter.DateTo.AddDate(0, 0, 1))
	}
	err := q.Order("created_at DESC").Find(&requests).Error
	return requests, translate(err)
}

func (r *itemRequestRepo) CountByStatus(ctx context.Context, status model.RequestStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ItemRequest{}).Where("status = ?", status).Count(&count).Error
	return count, translate(err)
}
