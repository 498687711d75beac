package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TxIn  TransactionType = "in"
	TxOut TransactionType = "out"
)

// Transaction is an append-only ledger entry. Corrections are recorded as a
// new offsetting entry; rows are never edited.
type Transaction struct {
	BaseModel
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Item       *Item           `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	ItemSizeID *uuid.UUID      `gorm:"type:uuid;index" json:"item_size_id,omitempty"`
	ItemSize   *ItemSize       `gorm:"foreignKey:ItemSizeID" json:"item_size,omitempty"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type       TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Date       time.Time       `gorm:"type:date;not null;index" json:"date"`
	Note       string          `gorm:"type:text" json:"note"`

	// RequestID links the entry to the approved request that produced it.
	RequestID *uuid.UUID `gorm:"type:uuid;index" json:"request_id,omitempty"`
}

// Delta returns the signed stock change this entry applies.
func (t *Transaction) Delta() int {
	if t.Type == TxOut {
		return -t.Quantity
	}
	return t.Quantity
}
