// Package render turns stored order lines into printable and exportable sheets.
// Every writer shows the stored line fields as they are; nothing is re-priced here.
package render

import (
	"strconv"
	"time"

	"porkorder/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultCompany = "理皓肉品有限公司"
	printLayout    = "2006-01-02 15:04"
)

// Header is the column row of exported sheets.
var Header = []string{"編號", "產品", "數量", "單位", "單價", "總計"}

type Row struct {
	ProductID string
	Product   string
	Quantity  string
	Unit      string
	UnitPrice string
	Amount    string

	price  decimal.Decimal
	amount decimal.Decimal
}

type Sheet struct {
	Company   string
	Name      string
	Vendor    string
	Date      string
	PrintedAt string
	Rows      []Row
	Total     string

	total decimal.Decimal
}

func NewSheet(o models.Order, lines []models.OrderLine, company string, printedAt time.Time) Sheet {
	if company == "" {
		company = DefaultCompany
	}
	s := Sheet{
		Company:   company,
		Name:      o.Name,
		Vendor:    o.Vendor,
		Date:      o.Date,
		PrintedAt: printedAt.Format(printLayout),
		Rows:      make([]Row, 0, len(lines)),
		total:     decimal.Zero,
	}
	for _, l := range lines {
		s.Rows = append(s.Rows, Row{
			ProductID: productRef(l.ProductID),
			Product:   l.ProductName,
			Quantity:  l.QuantityText,
			Unit:      l.Unit,
			UnitPrice: Money(l.UnitPrice),
			Amount:    Money(l.Amount),
			price:     l.UnitPrice,
			amount:    l.Amount,
		})
		s.total = s.total.Add(l.Amount)
	}
	s.Total = Money(s.total)
	return s
}

// Money prints whole values without decimals and everything else with two.
func Money(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.StringFixed(0)
	}
	return d.StringFixed(2)
}

// Record is the legacy six-column row: id, name, quantity text, unit, price, amount.
func Record(l models.OrderLine) []string {
	return []string{
		productRef(l.ProductID),
		l.ProductName,
		l.QuantityText,
		l.Unit,
		l.UnitPrice.String(),
		l.Amount.StringFixed(2),
	}
}

func productRef(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}
