package redisx

import "time"

const (
	// Cached order document: order:{order_id} -> order JSON as served by GET /orders/{id}.
	// Orders are immutable after commit, so the cache can never go stale.
	KeyOrder = "order:%s"

	// Low-stock alert dedup for the stockwatch consumer: lowstock:{product_id}.
	// While the key lives, further alerts for the product are suppressed.
	KeyLowStockAlert = "lowstock:%s"

	// Event dedup for consumers: dedup:{service}:{event_id}.
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache    = 10 * time.Minute
	TTLLowStockAlert = 1 * time.Hour
	TTLDedup         = 48 * time.Hour
)
