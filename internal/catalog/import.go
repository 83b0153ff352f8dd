package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"porkorder/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}

// ImportXLSX reads name, unit and price from the first three columns of the first
// sheet and upserts each row by name. A header row is detected and skipped.
func (s *Store) ImportXLSX(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	res := &ImportResult{Skipped: []string{}}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		if i == 0 && isHeader(name) {
			continue
		}

		p := models.Product{Name: name}
		if len(row) > 1 {
			p.Unit = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			price, ok := ParsePrice(row[2])
			if !ok {
				res.Skipped = append(res.Skipped, name)
				continue
			}
			p.Price = price
		}

		created, err := s.UpsertByName(ctx, p)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	log.Info().Int("created", res.Created).Int("updated", res.Updated).
		Int("skipped", len(res.Skipped)).Msg("product workbook imported")
	return res, nil
}

func isHeader(cell string) bool {
	c := strings.ToLower(cell)
	return strings.Contains(c, "產品") || strings.Contains(c, "品名") ||
		strings.Contains(c, "name") || strings.Contains(c, "product")
}

// ParsePrice accepts "145", "145.5", " 1,200 " and an empty cell (zero).
// Prices are rounded to the two places the price column keeps.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(2), true
}
