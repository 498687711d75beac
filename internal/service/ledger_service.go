package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/pkg/validator"

	"github.com/google/uuid"
)

type LedgerService interface {
	RecordTransaction(ctx context.Context, actor Actor, in TransactionInput) (*model.Transaction, error)
	ListTransactions(ctx context.Context, actor Actor, q TransactionQuery) ([]model.Transaction, error)
	GetTransaction(ctx context.Context, actor Actor, id uuid.UUID) (*model.Transaction, error)
}

// TransactionInput records a direct stock movement. When ItemSizeID is set,
// ItemID may be omitted; if both are given they must agree.
type TransactionInput struct {
	ItemID     *uuid.UUID            `json:"item_id"`
	ItemSizeID *uuid.UUID            `json:"item_size_id"`
	Type       model.TransactionType `json:"type" validate:"required,oneof=in out"`
	Quantity   int                   `json:"quantity" validate:"gt=0"`
	Date       string                `json:"date"` // YYYY-MM-DD (or RFC3339), defaults to today
	Note       string                `json:"note"`
}

type TransactionQuery struct {
	ItemID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

type ledgerService struct {
	store     repository.Store
	cache     cache.Cache
	publisher Publisher
	now       Clock
}

func NewLedgerService(store repository.Store, c cache.Cache, publisher Publisher, now Clock) LedgerService {
	if publisher == nil {
		publisher = NopPublisher
	}
	if now == nil {
		now = time.Now
	}
	return &ledgerService{store: store, cache: c, publisher: publisher, now: now}
}

func (s *ledgerService) RecordTransaction(ctx context.Context, actor Actor, in TransactionInput) (*model.Transaction, error) {
	if err := actor.require(model.CapTransactionCreate); err != nil {
		return nil, err
	}
	if msg := validator.First(&in); msg != "" {
		return nil, validationf("%s", msg)
	}
	if in.ItemID == nil && in.ItemSizeID == nil {
		return nil, validationf("Either item_id or item_size_id is required")
	}

	date := dateOnly(s.now())
	if raw := strings.TrimSpace(in.Date); raw != "" {
		parsed, err := parseLedgerDate(raw)
		if err != nil {
			return nil, validationf("Invalid date '%s', use YYYY-MM-DD", raw)
		}
		date = parsed
	}

	var (
		tx   *model.Transaction
		item *model.Item
		size *model.ItemSize
	)
	err := s.store.Atomic(ctx, func(r repository.Repositories) error {
		var err error
		item, size, err = lockStockTarget(ctx, r, in.ItemID, in.ItemSizeID)
		if err != nil {
			return err
		}

		tx, err = applyMovement(ctx, r, movement{
			item:     item,
			size:     size,
			txType:   in.Type,
			quantity: in.Quantity,
			userID:   actor.ID,
			date:     date,
			note:     strings.TrimSpace(in.Note),
			auditBy:  actor.audit(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.KeyDashboardStats)
	s.publishMovement(actor, tx, item, size)

	saved, err := s.store.Transactions().FindByID(ctx, tx.ID)
	if err != nil {
		return tx, nil
	}
	return saved, nil
}

// lockStockTarget resolves and locks the item, then the variant if one is
// named. Sizeless movements are only allowed on items without variants.
func lockStockTarget(ctx context.Context, r repository.Repositories, itemID, sizeID *uuid.UUID) (*model.Item, *model.ItemSize, error) {
	var targetItem uuid.UUID
	if sizeID != nil {
		variant, err := r.ItemSizes().FindByID(ctx, *sizeID)
		if err != nil {
			return nil, nil, repoErr(err, "Item size")
		}
		if itemID != nil && *itemID != variant.ItemID {
			return nil, nil, validationf("Item size does not belong to the given item")
		}
		targetItem = variant.ItemID
	} else {
		targetItem = *itemID
	}

	item, err := r.Items().FindByIDForUpdate(ctx, targetItem)
	if err != nil {
		return nil, nil, repoErr(err, "Item")
	}

	if sizeID == nil {
		variants, err := r.ItemSizes().FindByItem(ctx, item.ID)
		if err != nil {
			return nil, nil, err
		}
		if len(variants) > 0 {
			return nil, nil, validationf("Item '%s' has size variants; a size is required", item.Name)
		}
		return item, nil, nil
	}

	size, err := r.ItemSizes().FindByIDForUpdate(ctx, *sizeID)
	if err != nil {
		return nil, nil, repoErr(err, "Item size")
	}
	return item, size, nil
}

func (s *ledgerService) publishMovement(actor Actor, tx *model.Transaction, item *model.Item, size *model.ItemSize) {
	actionType := "IN"
	actionVerb := "added"
	if tx.Type == model.TxOut {
		actionType = "OUT"
		actionVerb = "removed"
	}
	label := item.Name
	sizePayload := interface{}(nil)
	if size != nil {
		label = fmt.Sprintf("%s (Size: %s)", item.Name, size.Size)
		sizePayload = map[string]interface{}{"id": size.ID, "size": size.Size, "new_stock": size.Stock}
	}

	s.publisher.Publish(event(eventStockUpdate, "transaction_created",
		fmt.Sprintf("%s %s %d units of '%s' (%s)", actor.Name, actionVerb, tx.Quantity, label, actionType),
		actor, map[string]interface{}{
			"transaction": map[string]interface{}{
				"id":       tx.ID,
				"type":     actionType,
				"quantity": tx.Quantity,
				"item_id":  item.ID,
				"item": map[string]interface{}{
					"name": item.Name,
					"code": item.Code,
				},
				"item_size": sizePayload,
				"new_stock": item.Stock,
			},
		}))
}

func (s *ledgerService) ListTransactions(ctx context.Context, actor Actor, q TransactionQuery) ([]model.Transaction, error) {
	if err := actor.require(model.CapTransactionView); err != nil {
		return nil, err
	}
	filter := repository.TransactionFilter{ItemID: q.ItemID, DateFrom: q.DateFrom, DateTo: q.DateTo}
	if !actor.Can(model.CapViewAllRecords) {
		id := actor.ID
		filter.UserID = &id
	}
	return s.store.Transactions().List(ctx, filter)
}

func (s *ledgerService) GetTransaction(ctx context.Context, actor Actor, id uuid.UUID) (*model.Transaction, error) {
	if err := actor.require(model.CapTransactionView); err != nil {
		return nil, err
	}
	tx, err := s.store.Transactions().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("Transaction not found")
		}
		return nil, err
	}
	if !actor.sees(tx.UserID) {
		return nil, forbiddenf("You can only view your own transactions")
	}
	return tx, nil
}
