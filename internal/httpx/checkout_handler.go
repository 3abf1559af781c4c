package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/shopcore/shop-api/internal/checkout"
	kafkax "github.com/shopcore/shop-api/internal/kafka"
	"github.com/shopcore/shop-api/internal/orders"
)

// EventPublisher is the slice of the Kafka producer the handler needs;
// *kafka.Producer satisfies it and tests pass a recorder or nil.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// CheckoutHandler is the thin boundary in front of the coordinator. It
// parses, delegates, and maps outcomes to status codes; it does no
// inventory work of its own.
type CheckoutHandler struct {
	Coordinator *checkout.Coordinator
	Producer    EventPublisher // optional
	Service     string
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ord, err := h.Coordinator.Checkout(ctx, req)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.publishCreated(ord)

	writeJSON(w, http.StatusCreated, ord)
}

func (h *CheckoutHandler) writeFailure(w http.ResponseWriter, err error) {
	var (
		invalid  *checkout.ValidationError
		missing  *checkout.NotFoundError
		rejected *checkout.RejectedError
		aborted  *checkout.AbortedError
	)
	switch {
	case errors.As(err, &invalid):
		writeErr(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &missing):
		writeErr(w, http.StatusNotFound, missing.Error())
	case errors.As(err, &rejected):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      rejected.Error(),
			"product_id": rejected.Detail.ProductID,
			"requested":  rejected.Detail.Requested,
			"available":  rejected.Detail.Available,
		})
	case errors.As(err, &aborted):
		// Internal detail stays in the log; the client only learns the kind.
		log.Printf("checkout aborted: %v", aborted.Err)
		writeErr(w, http.StatusInternalServerError, "checkout aborted")
	default:
		log.Printf("checkout failed: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *CheckoutHandler) publishCreated(ord *orders.Order) {
	if h.Producer == nil {
		return
	}
	items := make([]orders.ItemPrice, 0, len(ord.Items))
	for _, it := range ord.Items {
		items = append(items, orders.ItemPrice{ProductID: it.ProductID, Qty: it.Quantity, PriceCents: it.PriceCents})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		CorrelationID: ord.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:    ord.ID,
			BuyerID:    ord.BuyerID,
			Items:      items,
			TotalCents: ord.TotalCents,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(ord.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
