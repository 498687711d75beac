package service

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
)

// movement is one ledger write. item (and size, when variant-scoped) must
// already be locked by the caller, in that order.
type movement struct {
	item      *model.Item
	size      *model.ItemSize
	txType    model.TransactionType
	quantity  int
	userID    uuid.UUID
	date      time.Time
	note      string
	requestID *uuid.UUID
	auditBy   string
}

// applyMovement checks stock, appends the ledger row and moves both counters.
// Every stock change in the service goes through here.
func applyMovement(ctx context.Context, r repository.Repositories, m movement) (*model.Transaction, error) {
	available := m.item.Stock
	label := m.item.Name
	if m.size != nil {
		available = m.size.Stock
		label = m.item.Name + " (Size: " + m.size.Size + ")"
	}
	if m.txType == model.TxOut && available < m.quantity {
		return nil, insufficientf("Insufficient stock for %s: available %d, requested %d", label, available, m.quantity)
	}

	tx := &model.Transaction{
		ItemID:    m.item.ID,
		UserID:    m.userID,
		Type:      m.txType,
		Quantity:  m.quantity,
		Date:      m.date,
		Note:      m.note,
		RequestID: m.requestID,
	}
	if m.size != nil {
		sizeID := m.size.ID
		tx.ItemSizeID = &sizeID
	}
	tx.CreatedBy = m.auditBy
	tx.UpdatedBy = m.auditBy

	if err := r.Transactions().Create(ctx, tx); err != nil {
		return nil, repoErr(err, "Transaction")
	}

	delta := tx.Delta()
	if m.size != nil {
		if err := r.ItemSizes().AdjustStock(ctx, m.size.ID, delta); err != nil {
			return nil, repoErr(err, "Item size")
		}
		m.size.Stock += delta
	}
	if err := r.Items().AdjustStock(ctx, m.item.ID, delta); err != nil {
		return nil, repoErr(err, "Item")
	}
	m.item.Stock += delta

	return tx, nil
}

// dateOnly truncates t to midnight in its own location.
func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

// parseLedgerDate accepts a calendar date or a full RFC3339 timestamp and
// returns the calendar day.
func parseLedgerDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return dateOnly(t), nil
}
