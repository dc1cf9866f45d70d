package http

import (
	"context"
	"net/http"
	"time"

	"github.com/pushpak01/pushtoys-render/internal/checkout"
	"github.com/pushpak01/pushtoys-render/internal/orders/domain"
)

type OrdersHandler struct {
	checkout *checkout.Service
	timeout  time.Duration
}

func NewOrdersHandler(svc *checkout.Service, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		checkout: svc,
		timeout:  timeout,
	}
}

type OrdersResponseDTO struct {
	Orders []*domain.Order `json:"orders"`
}

// GET /api/v1/orders, newest first, guarded by RequireUser
func (h *OrdersHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "login required")
		return
	}

	orders, err := h.checkout.OrderHistory(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load order history")
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, &OrdersResponseDTO{Orders: orders})
}
