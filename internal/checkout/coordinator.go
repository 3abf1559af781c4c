// Package checkout turns one checkout request into at most one committed
// order. A request moves through validating, reserving and persisting; it
// either commits with every line reserved, or leaves inventory exactly as it
// found it.
package checkout

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/shopcore/shop-api/internal/catalog"
	"github.com/shopcore/shop-api/internal/inventory"
	"github.com/shopcore/shop-api/internal/orders"
)

// LineItem is one (product, quantity) pair of a checkout request.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Request lives only for the duration of one Checkout call.
type Request struct {
	BuyerID string     `json:"buyer_id"`
	Items   []LineItem `json:"items"`
}

// ProductFinder is the slice of the catalog the coordinator needs.
// *catalog.Repo satisfies it.
type ProductFinder interface {
	Find(ctx context.Context, id string) (*catalog.Product, error)
}

// OrderStore persists an order with all its items atomically.
// *orders.Repo satisfies it.
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, buyerID string, createdAt time.Time, items []orders.NewItem) (*orders.Order, error)
}

type Coordinator struct {
	Products ProductFinder
	Ledger   inventory.Ledger
	Orders   OrderStore

	// Now supplies the order timestamp; nil means time.Now. Injected so
	// tests control time instead of reading ambient state.
	Now func() time.Time
}

// Checkout runs the full transaction for one request.
//
// Returned errors are one of *ValidationError, *NotFoundError,
// *RejectedError or *AbortedError. The first three carry no inventory side
// effects at all; Aborted had side effects that were compensated before
// returning.
func (c *Coordinator) Checkout(ctx context.Context, req Request) (*orders.Order, error) {
	// Validating: shape checks first, with zero ledger calls on violation.
	if req.BuyerID == "" {
		return nil, &ValidationError{Reason: "buyer_id is required"}
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Reason: "at least one item is required"}
	}
	merged := make(map[string]int, len(req.Items))
	for _, li := range req.Items {
		if li.ProductID == "" {
			return nil, &ValidationError{Reason: "item product_id is required"}
		}
		if li.Quantity <= 0 {
			return nil, &ValidationError{Reason: "item quantity must be > 0"}
		}
		merged[li.ProductID] += li.Quantity
	}

	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Price snapshot happens here; the response never looks prices up again,
	// so a concurrent price change cannot alter the committed total.
	plan := make([]orders.NewItem, 0, len(ids))
	for _, id := range ids {
		p, err := c.Products.Find(ctx, id)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &NotFoundError{ProductID: id}
		}
		if err != nil {
			return nil, &AbortedError{Err: err}
		}
		plan = append(plan, orders.NewItem{ProductID: id, Quantity: merged[id], PriceCents: p.PriceCents})
	}

	// Reserving: ascending product id, the same order in every request, so
	// two multi-item checkouts can never wait on each other in a cycle.
	for i, it := range plan {
		if _, err := c.Ledger.Reserve(ctx, it.ProductID, it.Quantity); err != nil {
			c.releaseAll(ctx, plan[:i])
			var short *inventory.InsufficientStockError
			if errors.As(err, &short) {
				return nil, &RejectedError{Detail: short}
			}
			if errors.Is(err, inventory.ErrProductNotFound) {
				// Row vanished between validation and reservation.
				return nil, &NotFoundError{ProductID: it.ProductID}
			}
			return nil, &AbortedError{Err: err}
		}
	}

	// Persisting: one atomic write for the order and all its items.
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	ord, err := c.Orders.CreateOrderWithItems(ctx, req.BuyerID, now().UTC(), plan)
	if err != nil {
		c.releaseAll(ctx, plan)
		return nil, &AbortedError{Err: err}
	}
	return ord, nil
}

// releaseAll compensates every reservation in items. It keeps working even
// when the request's context was cancelled mid-flight: a reservation must
// never leak because its owner went away.
func (c *Coordinator) releaseAll(ctx context.Context, items []orders.NewItem) {
	ctx = context.WithoutCancel(ctx)
	for _, it := range items {
		if err := c.Ledger.Release(ctx, it.ProductID, it.Quantity); err != nil {
			log.Printf("checkout: release %s x%d failed: %v", it.ProductID, it.Quantity, err)
		}
	}
}
