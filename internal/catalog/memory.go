package catalog

import (
	"context"
	"sync"

	"porkorder/internal/models"
)

// Memory is an in-process Reader, used where no database is wanted.
type Memory struct {
	mu       sync.RWMutex
	products map[uint]models.Product
}

func NewMemory(products ...models.Product) *Memory {
	m := &Memory{products: make(map[uint]models.Product, len(products))}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *Memory) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) Put(p models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}
