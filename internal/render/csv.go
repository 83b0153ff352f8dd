package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"porkorder/internal/models"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WriteCSV writes lines in the legacy sheet layout: UTF-8 with a BOM so spreadsheet
// programs pick the right encoding.
func WriteCSV(w io.Writer, lines []models.OrderLine) error {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(tw)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range lines {
		if err := cw.Write(Record(l)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return tw.Close()
}

// ReadCSV reads a legacy sheet, dropping a leading BOM and the header row.
// Empty lines are skipped and short rows are kept as they are.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}
