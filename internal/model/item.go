package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a catalog product. When it has size variants, Stock is the sum of
// the variants' stock; otherwise Stock is the counter of record.
type Item struct {
	BaseModel
	Code        string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_items_code,where:deleted_at IS NULL" json:"code"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	UnitID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit        *Unit           `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Price       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`

	// Size is a display cache ("S, M, L"), rebuilt whenever the variant set changes.
	Size string `gorm:"type:varchar(255)" json:"size"`

	Sizes []ItemSize `gorm:"foreignKey:ItemID" json:"sizes,omitempty"`
}

// ItemSize is a size variant of an Item with its own stock counter.
type ItemSize struct {
	BaseModel
	ItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	Size   string    `gorm:"type:varchar(50);not null" json:"size"`
	Stock  int       `gorm:"not null;default:0" json:"stock"`
}

// SizeSummary joins the variant labels in order, e.g. "S, M, L".
func SizeSummary(sizes []ItemSize) string {
	labels := make([]string, 0, len(sizes))
	for _, s := range sizes {
		labels = append(labels, s.Size)
	}
	return strings.Join(labels, ", ")
}

// SumStock returns the total stock across variants.
func SumStock(sizes []ItemSize) int {
	total := 0
	for _, s := range sizes {
		total += s.Stock
	}
	return total
}
