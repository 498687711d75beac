package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel handles ID (UUID) and standard Audit Trails
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // Soft Delete support

	// Audit User Tracking
	CreatedBy string `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	UpdatedBy string `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	DeletedBy string `gorm:"type:varchar(255)" json:"-"`
}

// Hook Before Create untuk generate UUID otomatis
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}
