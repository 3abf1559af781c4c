// Package stockwatch consumes order.created events and raises a low-stock
// alert the first time a product it saw ordered drops to the threshold.
package stockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/shopcore/shop-api/internal/catalog"
	kafkax "github.com/shopcore/shop-api/internal/kafka"
	"github.com/shopcore/shop-api/internal/orders"
	"github.com/shopcore/shop-api/internal/redisx"
)

type Service struct {
	Products    *catalog.Repo
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes inventory.low
	Threshold   int
	ServiceName string
}

// HandleOrderCreated is wired as the consumer handler.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// Dedup by event id so redelivered messages do not alert twice.
	dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	for _, it := range p.Items {
		prod, err := s.Products.Find(ctx, it.ProductID)
		if err != nil {
			log.Printf("stockwatch: find %s: %v", it.ProductID, err)
			continue
		}
		if prod.Inventory > s.Threshold {
			continue
		}

		// One alert per product while the dedup key lives.
		akey := fmt.Sprintf(redisx.KeyLowStockAlert, prod.ID)
		set, err := s.Redis.SetNX(ctx, akey, "1", redisx.TTLLowStockAlert).Result()
		if err != nil || !set {
			continue
		}

		log.Printf("stockwatch: low stock product=%s name=%q inventory=%d threshold=%d",
			prod.ID, prod.Name, prod.Inventory, s.Threshold)
		s.publishLow(prod, env.CorrelationID)
	}
	return nil
}

func (s *Service) publishLow(p *catalog.Product, correlationID string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventStockLow,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: correlationID,
		Payload: kafkax.MustMarshal(orders.StockLowPayload{
			ProductID: p.ID,
			Name:      p.Name,
			Inventory: p.Inventory,
			Threshold: s.Threshold,
		}),
	}
	s.Producer.Publish([]byte(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockLow)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
