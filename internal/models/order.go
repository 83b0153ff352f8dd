package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one order sheet: a vendor's lines for a delivery date.
// Name keeps the legacy sheet file name ("2025-01-02__vendor.csv" or "newfile_<ts>.csv").
type Order struct {
	ID        uint        `gorm:"primaryKey"`
	Date      string      `gorm:"size:10;not null;index"` // YYYY-MM-DD
	Vendor    string      `gorm:"size:80;not null;default:''"`
	Name      string      `gorm:"size:200;not null;uniqueIndex"`
	Lines     []OrderLine `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderLine is a priced row. QuantityText is stored exactly as entered; Amount is
// always recomputed from it and the product's current price.
type OrderLine struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	OrderID      uint            `gorm:"not null;index:idx_order_lines_position" json:"-"`
	Position     int             `gorm:"not null;index:idx_order_lines_position" json:"position"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `gorm:"size:100" json:"product_name"`
	QuantityText string          `gorm:"type:text" json:"quantity_text"`
	Unit         string          `gorm:"size:20" json:"unit"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"unit_price"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
}
