package repository

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
}

// TransactionFilter narrows ledger listings. Zero values mean "any".
type TransactionFilter struct {
	UserID   *uuid.UUID
	ItemID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	return translate(r.db.WithContext(ctx).Omit("Item", "ItemSize", "User").Create(tx).Error)
}

func (r *transactionRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Item", withDeleted).
		Preload("ItemSize", withDeleted).
		Preload("User", withDeleted)
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := r.preloaded(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &transaction, nil
}

func (r *transactionRepo) List(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := r.preloaded(ctx)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.DateFrom != nil {
		q = q.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("date <= ?", *filter.DateTo)
	}
	err := q.Order("date DESC, created_at DESC").Find(&transactions).Error
	return transactions, translate(err)
}

func (r *transactionRepo) GetStockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	// Query untuk aggregate transactions per hari
	rows, err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Select(`
			TO_CHAR(date, 'YYYY-MM-DD') as day,
			COALESCE(SUM(CASE WHEN type = 'in' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'out' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Group("day").
		Order("day ASC").
		Rows()

	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
