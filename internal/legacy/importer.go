// Package legacy moves data written by the old order app into the database:
// data/products.db (sqlite) and the per-sheet CSV files under data/orders.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"porkorder/internal/catalog"
	"porkorder/internal/models"
	"porkorder/internal/orders"
	"porkorder/internal/render"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	productsFile = "products.db"
	ordersDir    = "orders"
)

type Result struct {
	Products      int
	Sheets        int
	Lines         int
	SkippedSheets int
}

type Importer struct {
	store  *catalog.Store
	orders *orders.Service
}

func NewImporter(store *catalog.Store, svc *orders.Service) *Importer {
	return &Importer{store: store, orders: svc}
}

type productRow struct {
	ID    int64           `db:"id"`
	Name  sql.NullString  `db:"name"`
	Unit  sql.NullString  `db:"unit"`
	Price sql.NullFloat64 `db:"price"`
}

// Run imports products first so sheet lines are priced against the old catalog.
// Either part is skipped when its file or directory is missing.
func (im *Importer) Run(ctx context.Context, dataDir string) (*Result, error) {
	res := &Result{}

	dbPath := filepath.Join(dataDir, productsFile)
	if _, err := os.Stat(dbPath); err == nil {
		n, err := im.ImportProducts(ctx, dbPath)
		if err != nil {
			return res, err
		}
		res.Products = n
	} else {
		log.Warn().Str("path", dbPath).Msg("no legacy product database")
	}

	root := filepath.Join(dataDir, ordersDir)
	if _, err := os.Stat(root); err != nil {
		log.Warn().Str("path", root).Msg("no legacy order sheets")
		return res, nil
	}
	if err := im.ImportSheets(ctx, root, res); err != nil {
		return res, err
	}
	return res, nil
}

// ImportProducts copies every product keeping its id.
func (im *Importer) ImportProducts(ctx context.Context, path string) (int, error) {
	db, err := sqlx.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	var rows []productRow
	if err := db.SelectContext(ctx, &rows, `SELECT id, name, unit, price FROM products ORDER BY id`); err != nil {
		return 0, fmt.Errorf("read legacy products: %w", err)
	}

	for _, r := range rows {
		if r.ID <= 0 {
			continue
		}
		p := models.Product{
			ID:    uint(r.ID),
			Name:  strings.TrimSpace(r.Name.String),
			Unit:  strings.TrimSpace(r.Unit.String),
			Price: decimal.NewFromFloat(r.Price.Float64).Round(2),
		}
		if err := im.store.Put(ctx, &p); err != nil {
			return 0, err
		}
	}
	if err := im.store.SyncIDSequence(ctx); err != nil {
		return 0, err
	}

	log.Info().Int("count", len(rows)).Str("path", path).Msg("legacy products imported")
	return len(rows), nil
}

// ImportSheets walks root for *.csv sheets. Sheets that already have lines are left alone,
// so running it twice does not duplicate rows.
func (im *Importer) ImportSheets(ctx context.Context, root string, res *Result) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}

		name := d.Name()
		date, ok := orders.DateFromName(name)
		if !ok {
			log.Warn().Str("path", path).Msg("sheet name carries no date, skipped")
			res.SkippedSheets++
			return nil
		}
		date = folderDate(path, date)

		ref := orders.Ref{Date: date, Name: name}
		existing, err := im.orders.Get(ctx, ref)
		switch {
		case err == nil && len(existing.Lines) > 0:
			res.SkippedSheets++
			return nil
		case err != nil && !errors.Is(err, orders.ErrSheetNotFound):
			return err
		}

		n, err := im.importSheet(ctx, path, ref)
		if err != nil {
			return err
		}
		res.Sheets++
		res.Lines += n
		return nil
	})
}

// folderDate moves date into the YYYY-MM folder the sheet was filed under. A new
// sheet is named after the moment it was made but filed under the order date's month.
func folderDate(path, date string) string {
	folder := filepath.Base(filepath.Dir(path))
	if _, err := time.Parse("2006-01", folder); err != nil || strings.HasPrefix(date, folder) {
		return date
	}
	log.Warn().Str("path", path).Str("name_date", date).Msg("sheet filed under another month, using the folder")
	return folder + "-01"
}

func (im *Importer) importSheet(ctx context.Context, path string, ref orders.Ref) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	records, err := render.ReadCSV(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	if _, err := im.orders.Open(ctx, ref); err != nil {
		return 0, err
	}

	n := 0
	for _, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		var qty string
		if len(rec) > 2 {
			qty = rec[2]
		}
		if _, _, err := im.orders.AddLine(ctx, ref, orders.ParseProductRef(rec[0]), qty); err != nil {
			return n, err
		}
		n++
	}
	log.Debug().Str("sheet", ref.Name).Int("lines", n).Msg("legacy sheet imported")
	return n, nil
}
