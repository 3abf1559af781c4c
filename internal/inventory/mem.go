package inventory

import (
	"context"
	"sync"
)

// MemLedger keeps stock in process memory with one critical section per
// product, so two products never block each other. It honors the same
// contract as PGLedger and backs the tests and local demos.
type MemLedger struct {
	mu    sync.Mutex
	stock map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	units int
}

func NewMemLedger(stock map[string]int) *MemLedger {
	l := &MemLedger{stock: make(map[string]*entry, len(stock))}
	for id, n := range stock {
		l.stock[id] = &entry{units: n}
	}
	return l
}

func (l *MemLedger) get(productID string) (*entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.stock[productID]
	return e, ok
}

func (l *MemLedger) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e, ok := l.get(productID)
	if !ok {
		return 0, ErrProductNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.units < qty {
		return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: e.units}
	}
	e.units -= qty
	return e.units, nil
}

func (l *MemLedger) Release(ctx context.Context, productID string, qty int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, ok := l.get(productID)
	if !ok {
		return ErrProductNotFound
	}
	e.mu.Lock()
	e.units += qty
	e.mu.Unlock()
	return nil
}

// Stock reports the current count, for assertions and seeding checks.
func (l *MemLedger) Stock(productID string) int {
	e, ok := l.get(productID)
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.units
}
