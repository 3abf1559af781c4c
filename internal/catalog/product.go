package catalog

import (
	"errors"
	"time"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int       `json:"price_cents"`
	Inventory   int       `json:"inventory"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProduct is the input shape for create and bulk import.
type NewProduct struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents"`
	Inventory   int    `json:"inventory"`
}

// Validate enforces the catalog input rules. Descriptions are required for
// new products; legacy rows without one remain readable.
func (p NewProduct) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Description == "" {
		return errors.New("description is required")
	}
	if p.PriceCents < 0 {
		return errors.New("price_cents must be >= 0")
	}
	if p.Inventory < 0 {
		return errors.New("inventory must be >= 0")
	}
	return nil
}
