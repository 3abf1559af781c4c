package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("order not found")

type Repo struct{ DB *pgxpool.Pool }

// CreateOrderWithItems persists an order and all its items in one
// transaction: every row becomes visible together or none do. The caller
// supplies the timestamp and the already-snapshotted unit prices.
func (r *Repo) CreateOrderWithItems(ctx context.Context, buyerID string, createdAt time.Time, items []NewItem) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total := 0
	for _, it := range items {
		total += it.PriceCents * it.Quantity
	}

	orderID := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, status, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		orderID, buyerID, StatusPending, total, createdAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	out := &Order{
		ID:         orderID,
		BuyerID:    buyerID,
		Status:     StatusPending,
		TotalCents: total,
		CreatedAt:  createdAt,
		Items:      make([]Item, 0, len(items)),
	}
	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4)`,
			orderID, it.ProductID, it.Quantity, it.PriceCents)
		if err != nil {
			return nil, fmt.Errorf("insert item %s: %w", it.ProductID, err)
		}
		out.Items = append(out.Items, Item{ProductID: it.ProductID, Quantity: it.Quantity, PriceCents: it.PriceCents})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, buyer_id, status, total_cents, created_at
		FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.BuyerID, &o.Status, &o.TotalCents, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, oi.price_cents
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

// ListByBuyer returns a buyer's orders with their items from a single joined
// query, newest order first.
func (r *Repo) ListByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.buyer_id, o.status, o.total_cents, o.created_at,
		       oi.product_id, p.name, oi.quantity, oi.price_cents
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE o.buyer_id = $1
		ORDER BY o.created_at DESC, o.id, oi.product_id`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	index := map[string]int{}
	for rows.Next() {
		var o Order
		var it Item
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.Status, &o.TotalCents, &o.CreatedAt,
			&it.ProductID, &it.ProductName, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		i, ok := index[o.ID]
		if !ok {
			index[o.ID] = len(out)
			i = len(out)
			out = append(out, o)
		}
		out[i].Items = append(out[i].Items, it)
	}
	return out, rows.Err()
}
