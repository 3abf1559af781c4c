package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shopcore/shop-api/internal/catalog"
)

type CatalogHandler struct {
	Repo *catalog.Repo
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Post("/products", h.createProduct)
	r.Post("/admin/products/import", h.importProducts)
	r.Get("/admin/inventory/low", h.lowInventory)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, total, err := h.Repo.List(ctx, page, limit)
	if err != nil {
		log.Printf("catalog: list: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	pages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, map[string]any{
		"products": ps,
		"pagination": map[string]int{
			"page": page, "limit": limit, "total": total, "pages": pages,
		},
	})
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.Find(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		log.Printf("catalog: find: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.NewProduct
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := in.Validate(); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.Create(ctx, in)
	if err != nil {
		log.Printf("catalog: create: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *CatalogHandler) importProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []catalog.NewProduct `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Products == nil {
		writeErr(w, http.StatusBadRequest, "products must be an array")
		return
	}
	for i, p := range req.Products {
		if err := p.Validate(); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Sprintf("product %d: %v", i, err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	start := time.Now()
	n, err := h.Repo.Import(ctx, req.Products)
	if err != nil {
		log.Printf("catalog: import: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  fmt.Sprintf("Successfully imported %d products", n),
		"duration": time.Since(start).String(),
		"count":    n,
	})
}

func (h *CatalogHandler) lowInventory(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.Atoi(r.URL.Query().Get("threshold"))
	if err != nil || threshold < 0 {
		threshold = 10
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.LowInventory(ctx, threshold)
	if err != nil {
		log.Printf("catalog: low inventory: %v", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
