package checkout

import (
	"fmt"

	"github.com/shopcore/shop-api/internal/inventory"
)

// ValidationError means the request never touched the ledger.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return "invalid checkout request: " + e.Reason }

// NotFoundError means a referenced product does not exist.
type NotFoundError struct{ ProductID string }

func (e *NotFoundError) Error() string { return "product not found: " + e.ProductID }

// RejectedError is the ordinary business outcome: some line could not be
// reserved and every prior reservation of the request was rolled back. The
// net inventory effect is zero.
type RejectedError struct{ Detail *inventory.InsufficientStockError }

func (e *RejectedError) Error() string { return "checkout rejected: " + e.Detail.Error() }

func (e *RejectedError) Unwrap() error { return e.Detail }

// AbortedError is the fatal exit: a storage fault interrupted the
// transaction after work had started. Reservations were released before
// surfacing it, so there are no inventory side effects either.
type AbortedError struct{ Err error }

func (e *AbortedError) Error() string { return fmt.Sprintf("checkout aborted: %v", e.Err) }

func (e *AbortedError) Unwrap() error { return e.Err }
