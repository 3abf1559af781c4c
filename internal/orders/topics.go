package orders

const (
	TopicOrderCreated = "order.created"
	TopicStockLow     = "inventory.low"
)

// Partition key = order id so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
