// Package inventory owns the authoritative stock count per product.
//
// All checkout-path mutations go through Ledger. Reserve is a single
// conditional decrement: there is no separate read that a second writer
// could interleave with, so stock can never go negative no matter how many
// callers contend on the same product.
package inventory

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStock is the expected business outcome when a product
	// has fewer units than requested. Callers match it with errors.Is.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrProductNotFound is returned when the product row does not exist.
	ErrProductNotFound = errors.New("product not found")
)

// InsufficientStockError carries the detail a client needs to act on a
// failed reservation. It unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Ledger is the atomic stock interface consumed by checkout.
type Ledger interface {
	// Reserve decrements the product's inventory by qty only if the current
	// inventory is at least qty, as one indivisible step. It returns the
	// remaining inventory on success and *InsufficientStockError otherwise.
	// Safe for any number of concurrent callers on the same product.
	Reserve(ctx context.Context, productID string, qty int) (remaining int, err error)

	// Release adds qty back. It is the compensating half of Reserve and is
	// called at most once per reservation, by the transaction that owns it.
	Release(ctx context.Context, productID string, qty int) error
}
