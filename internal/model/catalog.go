package model

// Category groups items in the catalog. It cannot be removed while items reference it.
type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex:idx_categories_name,where:deleted_at IS NULL" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Unit is the unit of measure of an item (pcs, box, pair).
type Unit struct {
	BaseModel
	Name   string `gorm:"type:varchar(255);not null;uniqueIndex:idx_units_name,where:deleted_at IS NULL" json:"name"`
	Symbol string `gorm:"type:varchar(10);not null;uniqueIndex:idx_units_symbol,where:deleted_at IS NULL" json:"symbol"`
}
