package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, in NewProduct) (*Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	var p Product
	err := r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, price_cents, inventory)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, COALESCE(description, ''), price_cents, inventory, created_at, updated_at`,
		id, in.Name, in.Description, in.PriceCents, in.Inventory,
	).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Inventory, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Find(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), price_cents, inventory, created_at, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Inventory, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns one page of products, newest first, plus the total row count.
func (r *Repo) List(ctx context.Context, page, limit int) ([]Product, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price_cents, inventory, created_at, updated_at
		FROM products ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Inventory, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Import bulk-inserts products with COPY, one round-trip for the whole
// batch. Inputs are assumed validated by the caller.
func (r *Repo) Import(ctx context.Context, in []NewProduct) (int, error) {
	rows := make([][]any, 0, len(in))
	for _, p := range in {
		rows = append(rows, []any{uuid.NewString(), p.Name, p.Description, p.PriceCents, p.Inventory})
	}
	n, err := r.DB.CopyFrom(ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "description", "price_cents", "inventory"},
		pgx.CopyFromRows(rows),
	)
	return int(n), err
}

// LowInventory lists products at or below the threshold, lowest first.
func (r *Repo) LowInventory(ctx context.Context, threshold int) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), price_cents, inventory, created_at, updated_at
		FROM products WHERE inventory <= $1 ORDER BY inventory, id`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Inventory, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
