package orders

import "time"

type Status string

// Orders are created pending. Later transitions belong to payment flows
// that live outside this service; checkout never moves an order past pending.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Order struct {
	ID         string    `json:"id"`
	BuyerID    string    `json:"buyer_id"`
	Status     Status    `json:"status"`
	TotalCents int       `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	Items      []Item    `json:"items"`
}

// Item is a committed order line. PriceCents is the unit price snapshot
// taken at commit time; later catalog price changes do not touch it.
type Item struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	PriceCents  int    `json:"price_cents"`
}

// NewItem is one line of an order about to be persisted.
type NewItem struct {
	ProductID  string
	Quantity   int
	PriceCents int
}
