// Package catalog persists the product list that order lines are priced against.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"porkorder/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const searchLimit = 50

var ErrNotFound = errors.New("product not found")

// Reader is the read side the pricer depends on.
type Reader interface {
	GetByID(ctx context.Context, id uint) (*models.Product, error)
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// Search returns the product whose id is exactly query when query is numeric and
// that id exists; otherwise products whose name contains query, by id.
func (s *Store) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if id, ok := ParseID(query); ok {
		p, err := s.GetByID(ctx, id)
		switch {
		case err == nil:
			return []models.Product{*p}, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	var products []models.Product
	err := s.db.WithContext(ctx).
		Where(`name LIKE ? ESCAPE '\'`, "%"+escapeLike(query)+"%").
		Order("id asc").
		Limit(searchLimit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("search products %q: %w", query, err)
	}
	return products, nil
}

func (s *Store) Create(ctx context.Context, p *models.Product) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create product %q: %w", p.Name, err)
	}
	return nil
}

// Patch holds the fields of an update; nil fields are left untouched.
type Patch struct {
	Name  *string
	Unit  *string
	Price *decimal.Decimal
}

// Update applies patch and returns the product before and after the change.
func (s *Store) Update(ctx context.Context, id uint, patch Patch) (before, after *models.Product, err error) {
	before, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	updated := *before
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Unit != nil {
		updated.Unit = *patch.Unit
	}
	if patch.Price != nil {
		updated.Price = *patch.Price
	}
	if err := s.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return before, &updated, nil
}

// Delete removes the product and returns what was deleted.
func (s *Store) Delete(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return nil, fmt.Errorf("delete product %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Put inserts p with its own id or overwrites the row with that id.
func (s *Store) Put(ctx context.Context, p *models.Product) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "unit", "price", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("put product %d: %w", p.ID, err)
	}
	return nil
}

// SyncIDSequence moves the postgres id sequence past ids written by Put.
func (s *Store) SyncIDSequence(ctx context.Context) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	err := s.db.WithContext(ctx).
		Exec(`SELECT setval(pg_get_serial_sequence('products', 'id'), COALESCE(MAX(id), 1)) FROM products`).Error
	if err != nil {
		return fmt.Errorf("sync product id sequence: %w", err)
	}
	return nil
}

// UpsertByName updates the first product called p.Name or creates it.
func (s *Store) UpsertByName(ctx context.Context, p models.Product) (created bool, err error) {
	var existing models.Product
	err = s.db.WithContext(ctx).Where("name = ?", p.Name).Order("id asc").First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.Create(ctx, &p); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("find product %q: %w", p.Name, err)
	}

	existing.Unit = p.Unit
	existing.Price = p.Price
	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, fmt.Errorf("update product %q: %w", p.Name, err)
	}
	return false, nil
}

// DefaultProducts is the starting catalog of a fresh install.
func DefaultProducts() []models.Product {
	item := func(name string, price int64) models.Product {
		return models.Product{Name: name, Unit: models.UnitCatty, Price: decimal.NewFromInt(price)}
	}
	return []models.Product{
		item("五花肉", 145),
		item("夾心肉", 110),
		item("絞肉", 120),
		item("後腿肉", 120),
		item("赤肉絲", 130),
		item("肉片", 130),
	}
}

// SeedDefaults fills an empty catalog and reports how many products it added.
func (s *Store) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	items := DefaultProducts()
	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return 0, fmt.Errorf("seed products: %w", err)
	}
	return len(items), nil
}

// ParseID accepts only plain ASCII digit strings, the way product numbers are typed.
func ParseID(s string) (uint, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
