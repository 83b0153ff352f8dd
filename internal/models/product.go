package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitCatty is the only unit whose quantities are parsed as catty/tael/kilogram text.
const UnitCatty = "斤"

type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;not null;index" json:"name"`
	Unit      string          `gorm:"size:20;not null;default:''" json:"unit"` // 斤, 個, 只 ...
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
}
