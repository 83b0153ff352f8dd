// Package orders keeps per-vendor, per-date order sheets and re-prices their lines.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"porkorder/internal/catalog"
	"porkorder/internal/models"
	"porkorder/internal/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Fields accepted by UpdateLine; the Chinese column titles are kept for the old front-end.
const (
	FieldProductID       = "product_id"
	FieldQuantity        = "quantity"
	legacyFieldProductID = "編號"
	legacyFieldQuantity  = "數量"
)

var (
	ErrBadIndex      = errors.New("bad index")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSheetExists   = errors.New("a sheet for that vendor and date already exists")
	ErrMissingArgs   = errors.New("missing parameters")
)

// Ref points at a sheet. Name wins when set; otherwise Date and Vendor build it.
type Ref struct {
	Date   string
	Vendor string
	Name   string
}

type Sheet struct {
	Order models.Order
	Lines []models.OrderLine
}

// Total is the sum of stored line amounts.
func (s *Sheet) Total() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, l := range s.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// FormatTotal renders a total the way sheets show it, always two places.
func FormatTotal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type SheetInfo struct {
	Filename string `json:"filename"`
	Display  string `json:"display"`
	Date     string `json:"date"`
	Vendor   string `json:"vendor"`
}

type Service struct {
	db     *gorm.DB
	pricer *pricing.Pricer
	now    func() time.Time
}

func NewService(db *gorm.DB, pricer *pricing.Pricer) *Service {
	return &Service{db: db, pricer: pricer, now: time.Now}
}

// Resolve fills in today's date and derives the sheet name or vendor the way Open will.
func (s *Service) Resolve(ref Ref) Ref {
	r := Ref{
		Date:   strings.TrimSpace(ref.Date),
		Vendor: strings.TrimSpace(ref.Vendor),
		Name:   strings.TrimSpace(ref.Name),
	}
	if r.Date == "" {
		r.Date = s.now().Format(dateLayout)
	}
	if r.Name != "" {
		if r.Vendor == "" {
			r.Vendor = VendorFromName(r.Name)
		}
		return r
	}
	r.Name = SheetName(r.Date, r.Vendor)
	return r
}

// Open returns the sheet ref points at, creating an empty one when it does not exist.
func (s *Service) Open(ctx context.Context, ref Ref) (*Sheet, error) {
	r := s.Resolve(ref)
	now := s.now()

	var o models.Order
	err := s.db.WithContext(ctx).
		Where(models.Order{Name: r.Name}).
		Attrs(models.Order{Date: r.Date, Vendor: SafeVendor(r.Vendor), CreatedAt: now, UpdatedAt: now}).
		FirstOrCreate(&o).Error
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", r.Name, err)
	}
	return s.load(ctx, o)
}

// Get returns an existing sheet or ErrSheetNotFound.
func (s *Service) Get(ctx context.Context, ref Ref) (*Sheet, error) {
	o, err := s.find(ctx, s.Resolve(ref).Name)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, *o)
}

// AddLine prices a new line and appends it to the sheet, creating the sheet if needed.
func (s *Service) AddLine(ctx context.Context, ref Ref, productID uint, quantityText string) (*Sheet, models.OrderLine, error) {
	line := s.pricer.PriceRow(ctx, productID, quantityText)

	sheet, err := s.Open(ctx, ref)
	if err != nil {
		return nil, line, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.OrderLine{}).Where("order_id = ?", sheet.Order.ID).Count(&n).Error; err != nil {
			return err
		}
		line.OrderID = sheet.Order.ID
		line.Position = int(n)
		if err := tx.Create(&line).Error; err != nil {
			return err
		}
		return s.touch(tx, sheet.Order.ID)
	})
	if err != nil {
		return nil, line, fmt.Errorf("add line to %s: %w", sheet.Order.Name, err)
	}

	sheet, err = s.load(ctx, sheet.Order)
	return sheet, line, err
}

// UpdateLine changes the product or quantity of line index and re-prices it from scratch.
func (s *Service) UpdateLine(ctx context.Context, ref Ref, index int, field, value string) (*Sheet, models.OrderLine, error) {
	o, err := s.find(ctx, s.Resolve(ref).Name)
	if errors.Is(err, ErrSheetNotFound) {
		return nil, models.OrderLine{}, ErrBadIndex
	}
	if err != nil {
		return nil, models.OrderLine{}, err
	}
	sheet, err := s.load(ctx, *o)
	if err != nil {
		return nil, models.OrderLine{}, err
	}
	if index < 0 || index >= len(sheet.Lines) {
		return nil, models.OrderLine{}, ErrBadIndex
	}

	cur := sheet.Lines[index]
	productID, qty := cur.ProductID, cur.QuantityText
	switch field {
	case FieldProductID, legacyFieldProductID:
		productID = ParseProductRef(value)
	case FieldQuantity, legacyFieldQuantity:
		qty = value
	}

	line := s.pricer.PriceRow(ctx, productID, qty)
	line.ID, line.OrderID, line.Position = cur.ID, cur.OrderID, cur.Position

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&line).Error; err != nil {
			return err
		}
		return s.touch(tx, o.ID)
	})
	if err != nil {
		return nil, line, fmt.Errorf("update line %d of %s: %w", index, o.Name, err)
	}

	sheet.Lines[index] = line
	return sheet, line, nil
}

// DeleteLine removes line index. Unknown sheets and out-of-range indexes are no-ops.
func (s *Service) DeleteLine(ctx context.Context, ref Ref, index int) (*Sheet, error) {
	o, err := s.find(ctx, s.Resolve(ref).Name)
	if errors.Is(err, ErrSheetNotFound) {
		return &Sheet{}, nil
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("order_id = ? AND position = ?", o.ID, index).Delete(&models.OrderLine{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		err := tx.Model(&models.OrderLine{}).
			Where("order_id = ? AND position > ?", o.ID, index).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return err
		}
		return s.touch(tx, o.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("delete line %d of %s: %w", index, o.Name, err)
	}
	return s.load(ctx, *o)
}

// Reprice recomputes every line against current product prices.
func (s *Service) Reprice(ctx context.Context, ref Ref) (*Sheet, error) {
	sheet, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	repriced := make([]models.OrderLine, len(sheet.Lines))
	for i, cur := range sheet.Lines {
		line := s.pricer.PriceRow(ctx, cur.ProductID, cur.QuantityText)
		line.ID, line.OrderID, line.Position = cur.ID, cur.OrderID, cur.Position
		repriced[i] = line
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range repriced {
			if err := tx.Save(&repriced[i]).Error; err != nil {
				return err
			}
		}
		return s.touch(tx, sheet.Order.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("reprice %s: %w", sheet.Order.Name, err)
	}
	sheet.Lines = repriced
	return sheet, nil
}

// NewSheet creates an unnamed sheet for date (today when empty).
func (s *Service) NewSheet(ctx context.Context, date string) (*Sheet, error) {
	return s.Open(ctx, Ref{Date: date, Name: NewSheetName(s.now())})
}

// Rename assigns a vendor to sheet name; the sheet becomes "<date>__<vendor>.csv".
func (s *Service) Rename(ctx context.Context, date, name, vendor string) (*Sheet, error) {
	name, vendor = strings.TrimSpace(name), strings.TrimSpace(vendor)
	if name == "" || vendor == "" {
		return nil, ErrMissingArgs
	}
	date = s.Resolve(Ref{Date: date}).Date

	o, err := s.find(ctx, name)
	if err != nil {
		return nil, err
	}
	target := SheetName(date, vendor)
	if target != o.Name {
		_, err := s.find(ctx, target)
		switch {
		case err == nil:
			return nil, ErrSheetExists
		case !errors.Is(err, ErrSheetNotFound):
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Model(o).UpdateColumns(map[string]any{
		"name":       target,
		"vendor":     SafeVendor(vendor),
		"date":       date,
		"updated_at": s.now(),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("rename %s: %w", name, err)
	}
	o.Name, o.Vendor, o.Date = target, SafeVendor(vendor), date
	return s.load(ctx, *o)
}

// List returns sheets of month ym ("2025-03"), or all sheets, most recently changed first.
func (s *Service) List(ctx context.Context, ym string) ([]SheetInfo, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if ym = strings.TrimSpace(ym); ym != "" {
		q = q.Where("date LIKE ?", ym+"%")
	}

	var list []models.Order
	if err := q.Order("updated_at desc, id desc").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}

	out := make([]SheetInfo, 0, len(list))
	for _, o := range list {
		out = append(out, SheetInfo{
			Filename: o.Name,
			Display:  month(o.Date) + "/" + o.Name,
			Date:     o.Date,
			Vendor:   o.Vendor,
		})
	}
	return out, nil
}

// ParseProductRef reads a typed product number; anything else is 0, which prices as unknown.
func ParseProductRef(s string) uint {
	id, _ := catalog.ParseID(strings.TrimSpace(s))
	return id
}

func (s *Service) find(ctx context.Context, name string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSheetNotFound
		}
		return nil, fmt.Errorf("find sheet %s: %w", name, err)
	}
	return &o, nil
}

func (s *Service) load(ctx context.Context, o models.Order) (*Sheet, error) {
	var lines []models.OrderLine
	if err := s.db.WithContext(ctx).Where("order_id = ?", o.ID).Order("position asc").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("load lines of %s: %w", o.Name, err)
	}
	return &Sheet{Order: o, Lines: lines}, nil
}

func (s *Service) touch(tx *gorm.DB, orderID uint) error {
	return tx.Model(&models.Order{}).Where("id = ?", orderID).UpdateColumn("updated_at", s.now()).Error
}
