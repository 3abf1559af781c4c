package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGLedger implements Ledger on Postgres. The conditional UPDATE predicate
// makes the check and the decrement one statement; row-level locking in the
// storage engine serializes concurrent callers per product.
type PGLedger struct{ DB *pgxpool.Pool }

func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) (int, error) {
	var remaining int
	err := l.DB.QueryRow(ctx, `
		UPDATE products
		SET inventory = inventory - $2, updated_at = now()
		WHERE id = $1 AND inventory >= $2
		RETURNING inventory`, productID, qty,
	).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("reserve %s: %w", productID, err)
	}

	// The predicate did not match: either the product is gone or the stock
	// is short. Look once more to tell the two apart and report availability.
	var available int
	err = l.DB.QueryRow(ctx, `SELECT inventory FROM products WHERE id = $1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reserve %s: %w", productID, err)
	}
	return 0, &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	ct, err := l.DB.Exec(ctx, `
		UPDATE products
		SET inventory = inventory + $2, updated_at = now()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return fmt.Errorf("release %s: %w", productID, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}
