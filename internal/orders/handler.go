package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"porkorder/internal/models"
	"porkorder/internal/pricing"
	"porkorder/internal/render"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Text accepts a JSON string, number or null; the old front-end sends ids both ways.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

type sheetRequest struct {
	Date     Text `json:"date"`
	Vendor   Text `json:"vendor"`
	Filename Text `json:"filename"`
}

func (r sheetRequest) ref() Ref {
	return Ref{Date: r.Date.String(), Vendor: r.Vendor.String(), Name: r.Filename.String()}
}

type AddRowRequest struct {
	sheetRequest
	ProductID Text `json:"product_id"`
	Quantity  Text `json:"quantity"`
}

type UpdateCellRequest struct {
	sheetRequest
	RowIndex Text `json:"row_index"`
	Field    Text `json:"field"`
	Value    Text `json:"value"`
}

type DeleteRowRequest struct {
	sheetRequest
	RowIndex Text `json:"row_index"`
}

type RenameRequest struct {
	Date      Text `json:"date"`
	Filename  Text `json:"filename"`
	NewVendor Text `json:"new_vendor"`
}

type SheetResponse struct {
	OK       bool               `json:"ok"`
	Date     string             `json:"date"`
	Vendor   string             `json:"vendor"`
	Filename string             `json:"filename"`
	Rows     [][]string         `json:"rows"`
	Lines    []models.OrderLine `json:"lines"`
	TotalSum string             `json:"total_sum"`
}

type RowResponse struct {
	OK       bool             `json:"ok"`
	Row      []string         `json:"row"`
	Line     models.OrderLine `json:"line"`
	TotalSum string           `json:"total_sum"`
}

type QuoteResponse struct {
	OK           bool            `json:"ok"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	QuantityText string          `json:"quantity_text"`
	Normalized   string          `json:"normalized"`
	Rule         string          `json:"rule"`
	Found        bool            `json:"found"`
	Amount       string          `json:"amount"`
}

func queryRef(c *fiber.Ctx) Ref {
	return Ref{Date: c.Query("date"), Vendor: c.Query("vendor"), Name: c.Query("file")}
}

// rowIndex reads an integral row index; "1", 1 and 1.0 are all row 1.
func rowIndex(t Text) (int, bool) {
	s := strings.TrimSpace(t.String())
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}

func records(lines []models.OrderLine) [][]string {
	out := make([][]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, render.Record(l))
	}
	return out
}

func sheetResponse(ref Ref, sheet *Sheet) SheetResponse {
	lines := sheet.Lines
	if lines == nil {
		lines = []models.OrderLine{}
	}
	return SheetResponse{
		OK:       true,
		Date:     ref.Date,
		Vendor:   ref.Vendor,
		Filename: ref.Name,
		Rows:     records(lines),
		Lines:    lines,
		TotalSum: FormatTotal(sheet.Total()),
	}
}

// GET /api/orders?date=&vendor=&file=
func GetSheetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref := svc.Resolve(queryRef(c))
		sheet, err := svc.Get(c.UserContext(), ref)
		if errors.Is(err, ErrSheetNotFound) {
			sheet, err = &Sheet{}, nil
		}
		if err != nil {
			return err
		}
		return c.JSON(sheetResponse(ref, sheet))
	}
}

// POST /api_add_row
func AddRowHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AddRowRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		pid := strings.TrimSpace(body.ProductID.String())
		if strings.TrimSpace(body.Date.String()) == "" || pid == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
		}

		sheet, line, err := svc.AddLine(c.UserContext(), body.ref(), ParseProductRef(pid), strings.TrimSpace(body.Quantity.String()))
		if err != nil {
			return err
		}
		return c.JSON(RowResponse{OK: true, Row: render.Record(line), Line: line, TotalSum: FormatTotal(sheet.Total())})
	}
}

// POST /api_update_cell
func UpdateCellHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateCellRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		index, ok := rowIndex(body.RowIndex)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "bad index")
		}

		sheet, line, err := svc.UpdateLine(c.UserContext(), body.ref(), index, body.Field.String(), body.Value.String())
		if errors.Is(err, ErrBadIndex) {
			return fiber.NewError(fiber.StatusBadRequest, "bad index")
		}
		if err != nil {
			return err
		}
		return c.JSON(RowResponse{OK: true, Row: render.Record(line), Line: line, TotalSum: FormatTotal(sheet.Total())})
	}
}

// POST /api_delete_row
func DeleteRowHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DeleteRowRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		index, ok := rowIndex(body.RowIndex)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "bad index")
		}

		sheet, err := svc.DeleteLine(c.UserContext(), body.ref(), index)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ok": true, "total_sum": FormatTotal(sheet.Total())})
	}
}

// POST /api/orders/new
func NewSheetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body sheetRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}

		sheet, err := svc.NewSheet(c.UserContext(), body.Date.String())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ok": true, "filename": sheet.Order.Name, "date": sheet.Order.Date})
	}
}

// POST /api/orders/rename
func RenameHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RenameRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		sheet, err := svc.Rename(c.UserContext(), body.Date.String(), body.Filename.String(), body.NewVendor.String())
		switch {
		case errors.Is(err, ErrMissingArgs):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSheetNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.Is(err, ErrSheetExists):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case err != nil:
			return err
		}
		return c.JSON(fiber.Map{"ok": true, "new_name": sheet.Order.Name})
	}
}

// POST /api/orders/reprice
func RepriceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body sheetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		ref := svc.Resolve(body.ref())
		sheet, err := svc.Reprice(c.UserContext(), ref)
		if errors.Is(err, ErrSheetNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return err
		}
		return c.JSON(sheetResponse(ref, sheet))
	}
}

// GET /api/orders/list?ym=
func ListSheetsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext(), c.Query("ym"))
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/quote?product_id=&quantity=
func QuoteHandler(pricer *pricing.Pricer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := pricer.Quote(c.UserContext(), ParseProductRef(c.Query("product_id")), c.Query("quantity"))
		return c.JSON(QuoteResponse{
			OK:           true,
			ProductID:    q.Line.ProductID,
			ProductName:  q.Line.ProductName,
			Unit:         q.Line.Unit,
			UnitPrice:    q.Line.UnitPrice,
			QuantityText: q.Line.QuantityText,
			Normalized:   q.Normalized.String(),
			Rule:         q.Rule.String(),
			Found:        q.Found,
			Amount:       q.Line.Amount.StringFixed(2),
		})
	}
}

func existingSheet(c *fiber.Ctx, svc *Service) (*Sheet, error) {
	sheet, err := svc.Get(c.UserContext(), queryRef(c))
	if errors.Is(err, ErrSheetNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return sheet, err
}

func attachment(c *fiber.Ctx, name string) {
	c.Set(fiber.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(name))
}

// GET /api/orders/export.csv?date=&vendor=&file=
func ExportCSVHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sheet, err := existingSheet(c, svc)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		attachment(c, sheet.Order.Name)
		return render.WriteCSV(c, sheet.Lines)
	}
}

// GET /api/orders/export.xlsx?date=&vendor=&file=
func ExportXLSXHandler(svc *Service, company string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sheet, err := existingSheet(c, svc)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		attachment(c, strings.TrimSuffix(sheet.Order.Name, sheetExt)+".xlsx")
		return render.WriteXLSX(c, render.NewSheet(sheet.Order, sheet.Lines, company, time.Now()))
	}
}

// GET /print?date=&vendor=&file=
func PrintHandler(svc *Service, company string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sheet, err := existingSheet(c, svc)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return render.WriteHTML(c, render.NewSheet(sheet.Order, sheet.Lines, company, time.Now()))
	}
}
