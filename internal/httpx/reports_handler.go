package httpx

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopcore/shop-api/internal/orders"
	"github.com/shopcore/shop-api/internal/reports"
)

type ReportsHandler struct {
	Repo *orders.Repo
}

func (h *ReportsHandler) Register(r *chi.Mux) {
	r.Get("/reports/orders/{buyerID}", h.orderReport)
}

func (h *ReportsHandler) orderReport(w http.ResponseWriter, r *http.Request) {
	buyerID := chi.URLParam(r, "buyerID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.Repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		log.Printf("reports: list buyer %s: %v", buyerID, err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	report := reports.Build(buyerID, list)
	writeJSON(w, http.StatusOK, map[string]any{
		"buyer_id":    buyerID,
		"order_count": len(list),
		"report_size": len(report),
		"report":      report,
	})
}
