// Package pricing turns a product reference and a quantity text into a priced order line.
package pricing

import (
	"context"
	"errors"

	"porkorder/internal/catalog"
	"porkorder/internal/models"
	"porkorder/internal/quantity"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Observer receives one call per row priced by PriceRow. *metrics.Registry satisfies it.
type Observer interface {
	ObservePricing(rule string, productFound bool)
}

type Pricer struct {
	catalog catalog.Reader
	obs     Observer
}

// NewPricer returns a Pricer reading products from c. obs may be nil.
func NewPricer(c catalog.Reader, obs Observer) *Pricer {
	return &Pricer{catalog: c, obs: obs}
}

// Quote is a priced line plus how its quantity was read.
type Quote struct {
	Line       models.OrderLine
	Normalized decimal.Decimal
	Rule       quantity.Rule
	Found      bool
}

// Amount is quantity times price, rounded half-to-even at two places.
func Amount(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).RoundBank(2)
}

// PriceRow never fails: an unknown product prices as an empty line at zero.
func (p *Pricer) PriceRow(ctx context.Context, productID uint, quantityText string) models.OrderLine {
	q := p.Quote(ctx, productID, quantityText)
	if p.obs != nil {
		p.obs.ObservePricing(q.Rule.String(), q.Found)
	}
	return q.Line
}

// Quote prices a row without storing or counting it.
func (p *Pricer) Quote(ctx context.Context, productID uint, quantityText string) Quote {
	var (
		name, unit string
		price      = decimal.Zero
		found      bool
	)
	if productID != 0 {
		prod, err := p.catalog.GetByID(ctx, productID)
		switch {
		case err == nil:
			name, unit, price, found = prod.Name, prod.Unit, prod.Price, true
		case !errors.Is(err, catalog.ErrNotFound):
			log.Warn().Err(err).Uint("product_id", productID).Msg("product lookup failed, pricing at zero")
		}
	}

	res := quantity.Explain(quantityText, unit)

	return Quote{
		Line: models.OrderLine{
			ProductID:    productID,
			ProductName:  name,
			QuantityText: quantityText,
			Unit:         unit,
			UnitPrice:    price,
			Amount:       Amount(res.Quantity, price),
		},
		Normalized: res.Quantity,
		Rule:       res.Rule,
		Found:      found,
	}
}
