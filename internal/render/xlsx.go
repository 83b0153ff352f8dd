package render

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "訂單"

// WriteXLSX writes the sheet as a single-sheet workbook with numeric price and amount cells.
func WriteXLSX(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(xlsxSheet, cell, v)
	}

	if err := set(1, 1, s.Company); err != nil {
		return err
	}
	meta := []any{"出貨廠商", s.Vendor, "出貨日期", s.Date, "列印時間", s.PrintedAt}
	for i, v := range meta {
		if err := set(i+1, 2, v); err != nil {
			return err
		}
	}
	for i, h := range Header {
		if err := set(i+1, 4, h); err != nil {
			return err
		}
	}

	row := 5
	for _, r := range s.Rows {
		cells := []any{r.ProductID, r.Product, r.Quantity, r.Unit, r.price.InexactFloat64(), r.amount.InexactFloat64()}
		for i, v := range cells {
			if err := set(i+1, row, v); err != nil {
				return err
			}
		}
		row++
	}
	if err := set(5, row, "總金額"); err != nil {
		return err
	}
	if err := set(6, row, s.total.InexactFloat64()); err != nil {
		return err
	}

	if err := f.SetCellStyle(xlsxSheet, "E5", fmt.Sprintf("F%d", row), money); err != nil {
		return err
	}
	if err := f.SetColWidth(xlsxSheet, "B", "B", 24); err != nil {
		return err
	}
	return f.Write(w)
}
