package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pushpak01/pushtoys-render/internal/cart"
	"github.com/pushpak01/pushtoys-render/internal/checkout"
	"github.com/pushpak01/pushtoys-render/internal/session"
	"github.com/pushpak01/pushtoys-render/internal/tax"
)

type CheckoutHandler struct {
	checkout *checkout.Service
	catalog  cart.ProductFinder
	taxes    *tax.Calculator
	timeout  time.Duration
}

func NewCheckoutHandler(svc *checkout.Service, catalog cart.ProductFinder, taxes *tax.Calculator, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		catalog:  catalog,
		taxes:    taxes,
		timeout:  timeout,
	}
}

type PlaceOrderRequestDTO struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	StateCode string `json:"state_code"`
}

type OrderResponseDTO struct {
	OrderID   string `json:"order_id"`
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"tax_amount"`
	Total     string `json:"total"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess := getSessionFromContext(r.Context())
	if sess == nil {
		sess = session.New("", nil)
	}
	c := cart.New(sess, h.catalog, h.taxes)

	form := &checkout.OrderForm{
		FullName: req.FullName,
		Email:    req.Email,
		Address:  req.Address,
		Phone:    req.Phone,
	}

	order, err := h.checkout.PlaceOrder(ctx, c, form, getUserIDFromContext(r.Context()), req.StateCode)
	if err != nil {
		var fieldErrs checkout.FieldErrors
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty, nothing to checkout")
		case errors.As(err, &fieldErrs):
			respondFieldErrors(w, fieldErrs)
		case errors.Is(err, checkout.ErrPersistenceFailure):
			respondError(w, http.StatusServiceUnavailable, "persistence_failure", "order could not be saved, your cart is untouched")
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
		}
		return
	}

	respondJSON(w, http.StatusCreated, &OrderResponseDTO{
		OrderID:   order.ID.String(),
		Subtotal:  order.Subtotal.StringFixed(2),
		TaxAmount: order.TaxAmount.StringFixed(2),
		Total:     order.Total.StringFixed(2),
	})
}
