package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpak01/pushtoys-render/internal/checkout"
	ordersdomain "github.com/pushpak01/pushtoys-render/internal/orders/domain"
	"github.com/pushpak01/pushtoys-render/internal/session"
	"github.com/pushpak01/pushtoys-render/internal/tax"
	"github.com/pushpak01/pushtoys-render/pkg/logger"
)

type historyStoreMock struct {
	orders []*ordersdomain.Order
}

func (m *historyStoreMock) CreateOrder(_ context.Context, _ *ordersdomain.Order) error { return nil }

func (m *historyStoreMock) ListOrdersByUser(_ context.Context, _ string) ([]*ordersdomain.Order, error) {
	return m.orders, nil
}

func TestOrderHistory(t *testing.T) {
	store := &historyStoreMock{orders: []*ordersdomain.Order{{
		Items: []ordersdomain.OrderItem{
			{ProductID: 1, ProductName: "Wooden Train", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		},
	}}}
	svc := checkout.NewService(store, tax.NewCalculator(tax.DefaultRates()), logger.NewNop())
	handler := NewOrdersHandler(svc, 5*time.Second)

	sess := session.New("sid", nil)
	require.NoError(t, sess.Set(userSessionKey, "u-1"))

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/orders", nil), sess)

	handler.History(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response OrdersResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response.Orders, 1)
	assert.True(t, response.Orders[0].Subtotal.Equal(decimal.RequireFromString("20.00")), "totals recomputed from the lines")
}

func TestOrderHistory_Anonymous(t *testing.T) {
	svc := checkout.NewService(&historyStoreMock{}, tax.NewCalculator(tax.DefaultRates()), logger.NewNop())
	handler := NewOrdersHandler(svc, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.History(recorder, httptest.NewRequest("GET", "/api/v1/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
