package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// ItemRequest is a staff request to withdraw stock. It starts pending and is
// processed exactly once by an admin (approved or rejected).
type ItemRequest struct {
	BaseModel
	ItemID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"item_id"`
	Item       *Item      `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	ItemSizeID *uuid.UUID `gorm:"type:uuid;index" json:"item_size_id,omitempty"`
	ItemSize   *ItemSize  `gorm:"foreignKey:ItemSizeID" json:"item_size,omitempty"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Size     string `gorm:"type:varchar(50)" json:"size"`
	Quantity int    `gorm:"not null" json:"quantity"`
	Reason   string `gorm:"type:text;not null" json:"reason"`

	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason string        `gorm:"type:text" json:"rejection_reason,omitempty"`
	ProcessedBy     *uuid.UUID    `gorm:"type:uuid" json:"processed_by,omitempty"`
	Processor       *User         `gorm:"foreignKey:ProcessedBy" json:"processor,omitempty"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
}

func (r *ItemRequest) IsPending() bool {
	return r.Status == RequestPending
}
