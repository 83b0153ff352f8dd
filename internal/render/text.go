package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// WriteText writes the sheet as a fixed-width table. Column widths are measured in
// terminal cells so Chinese product names line up.
func WriteText(w io.Writer, s Sheet) error {
	rows := make([][]string, 0, len(s.Rows)+1)
	rows = append(rows, Header)
	for _, r := range s.Rows {
		rows = append(rows, []string{r.ProductID, r.Product, r.Quantity, r.Unit, r.UnitPrice, r.Amount})
	}

	widths := make([]int, len(Header))
	for _, row := range rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n%s  %s  %s\n", s.Company, s.Date, s.Vendor, s.Name)

	sep := 0
	for _, n := range widths {
		sep += n + 2
	}
	rule := strings.Repeat("-", sep)
	fmt.Fprintln(bw, rule)

	for ri, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			// price and amount columns are right aligned below the header
			if ri > 0 && i >= 4 {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				cells[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		fmt.Fprintln(bw, strings.TrimRight(strings.Join(cells, "  "), " "))
		if ri == 0 {
			fmt.Fprintln(bw, rule)
		}
	}

	fmt.Fprintln(bw, rule)
	fmt.Fprintf(bw, "總金額：%s\n", s.Total)
	return bw.Flush()
}
