package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pushpak01/pushtoys-render/internal/cart"
	"github.com/pushpak01/pushtoys-render/internal/catalog/repository"
	"github.com/pushpak01/pushtoys-render/internal/session"
	"github.com/pushpak01/pushtoys-render/internal/tax"
)

type CartHandler struct {
	catalog cart.ProductFinder
	taxes   *tax.Calculator
	timeout time.Duration
}

func NewCartHandler(catalog cart.ProductFinder, taxes *tax.Calculator, timeout time.Duration) *CartHandler {
	return &CartHandler{
		catalog: catalog,
		taxes:   taxes,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Override  bool  `json:"override"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Items      []cart.Item   `json:"items"`
	Quantity   int           `json:"quantity"`
	Subtotal   string        `json:"subtotal"`
	Taxes      tax.Breakdown `json:"taxes"`
	GrandTotal string        `json:"grand_total"`
}

// cartFromRequest rebuilds the visitor's cart from their session. Without
// the session middleware the cart is ephemeral and vanishes after the
// request.
func (h *CartHandler) cartFromRequest(r *http.Request) *cart.Cart {
	sess := getSessionFromContext(r.Context())
	if sess == nil {
		sess = session.New("", nil)
	}
	return cart.New(sess, h.catalog, h.taxes)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, status int, c *cart.Cart, stateCode string) {
	items, err := c.Items(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to resolve cart products")
		return
	}
	if items == nil {
		items = []cart.Item{}
	}

	totals := c.GrandTotal(stateCode)
	respondJSON(w, status, &CartResponseDTO{
		Items:      items,
		Quantity:   c.Len(),
		Subtotal:   totals.Subtotal.StringFixed(2),
		Taxes:      totals.Taxes,
		GrandTotal: totals.GrandTotal.StringFixed(2),
	})
}

// GET /api/v1/cart?state_code=XX
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.respondCart(ctx, w, http.StatusOK, h.cartFromRequest(r), r.URL.Query().Get("state_code"))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}
	if !product.InStock() {
		respondError(w, http.StatusConflict, "product_unavailable", "product is out of stock")
		return
	}

	c := h.cartFromRequest(r)
	c.Add(product, req.Quantity, req.Override)

	h.respondCart(ctx, w, http.StatusCreated, c, "")
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	c := h.cartFromRequest(r)
	c.Add(product, req.Quantity, true)

	h.respondCart(ctx, w, http.StatusOK, c, "")
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	c := h.cartFromRequest(r)
	c.Remove(productID)

	h.respondCart(ctx, w, http.StatusOK, c, "")
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c := h.cartFromRequest(r)
	c.Clear()

	h.respondCart(ctx, w, http.StatusOK, c, "")
}
