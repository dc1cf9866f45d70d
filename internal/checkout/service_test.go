package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushpak01/pushtoys-render/internal/cart"
	catalogdomain "github.com/pushpak01/pushtoys-render/internal/catalog/domain"
	"github.com/pushpak01/pushtoys-render/internal/orders/domain"
	"github.com/pushpak01/pushtoys-render/internal/session"
	"github.com/pushpak01/pushtoys-render/internal/tax"
	"github.com/pushpak01/pushtoys-render/pkg/logger"
)

type mockOrderStore struct {
	created   *domain.Order
	createErr error
	orders    []*domain.Order
	listErr   error
}

func (m *mockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = order
	return nil
}

func (m *mockOrderStore) ListOrdersByUser(_ context.Context, _ string) ([]*domain.Order, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.orders, nil
}

type fakeCatalog struct {
	products map[int64]*catalogdomain.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, id int64) (*catalogdomain.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeCatalog) GetProducts(_ context.Context, ids []int64) (map[int64]*catalogdomain.Product, error) {
	out := make(map[int64]*catalogdomain.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{products: map[int64]*catalogdomain.Product{
		1: {ID: 1, Name: "Wooden Train", Price: decimal.RequireFromString("10.00"), Stock: 5, Available: true},
		2: {ID: 2, Name: "Plush Bear", Price: decimal.RequireFromString("5.00"), Stock: 5, Available: true},
	}}
}

func newTestService(store *mockOrderStore) *Service {
	return NewService(store, tax.NewCalculator(tax.DefaultRates()), logger.NewNop())
}

func newCartWith(catalog *fakeCatalog, quantities map[int64]int) (*cart.Cart, *session.Session) {
	sess := session.New("sid", nil)
	c := cart.New(sess, catalog, tax.NewCalculator(tax.DefaultRates()))
	for id, qty := range quantities {
		c.Add(catalog.products[id], qty, false)
	}
	return c, sess
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	c, _ := newCartWith(testCatalog(), nil)

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "", "")

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
	assert.Nil(t, store.created, "no order record may be created")
}

func TestPlaceOrder_InvalidForm(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	catalog := testCatalog()
	c, _ := newCartWith(catalog, map[int64]int{1: 1})

	form := validForm()
	form.Phone = "nope"

	order, err := svc.PlaceOrder(context.Background(), c, form, "", "")

	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Nil(t, order)
	assert.Nil(t, store.created)
	assert.Equal(t, 1, c.Len(), "cart untouched on validation failure")
}

func TestPlaceOrder_Success(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	catalog := testCatalog()
	c, _ := newCartWith(catalog, map[int64]int{1: 2, 2: 1})

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "u-1", "")
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, "u-1", order.UserID)
	assert.Equal(t, "25.00", order.Subtotal.String())
	assert.Equal(t, "4.50", order.TaxAmount.String())
	assert.Equal(t, "29.50", order.Total.String())
	assert.True(t, order.Total.Equal(order.Subtotal.Add(order.TaxAmount)))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Wooden Train", order.Items[0].ProductName)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Same(t, order, store.created)
	assert.Equal(t, 0, c.Len(), "cart cleared after successful checkout")
}

func TestPlaceOrder_GuestCheckout(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	c, _ := newCartWith(testCatalog(), map[int64]int{2: 3})

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "", order.UserID)
	assert.Equal(t, "15.00", order.Subtotal.String())
}

func TestPlaceOrder_InterStateTax(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	c, _ := newCartWith(testCatalog(), map[int64]int{1: 10})

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "", "KA")
	require.NoError(t, err)
	assert.Equal(t, "100.00", order.Subtotal.String())
	assert.Equal(t, "18.00", order.TaxAmount.String())
	assert.Equal(t, "118.00", order.Total.String())
}

func TestPlaceOrder_PersistenceFailureKeepsCart(t *testing.T) {
	store := &mockOrderStore{createErr: errors.New("connection reset")}
	svc := newTestService(store)
	catalog := testCatalog()
	c, sess := newCartWith(catalog, map[int64]int{1: 2, 2: 1})

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "", "")

	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.Nil(t, order)
	assert.Equal(t, 3, c.Len(), "cart preserved so the visitor can retry")

	// the surviving cart still round-trips through the session
	reloaded := cart.New(sess, catalog, tax.NewCalculator(tax.DefaultRates()))
	assert.Equal(t, 3, reloaded.Len())
}

func TestPlaceOrder_VanishedProductDroppedBeforePricing(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	catalog := testCatalog()
	c, _ := newCartWith(catalog, map[int64]int{1: 2, 2: 1})

	delete(catalog.products, 2)

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "", "")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
	assert.Equal(t, "20.00", order.Subtotal.String())
}

func TestPlaceOrder_AllProductsVanished(t *testing.T) {
	store := &mockOrderStore{}
	svc := newTestService(store)
	catalog := testCatalog()
	c, _ := newCartWith(catalog, map[int64]int{1: 1})

	delete(catalog.products, 1)

	order, err := svc.PlaceOrder(context.Background(), c, validForm(), "", "")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, order)
	assert.Nil(t, store.created)
}

func TestOrderHistory_RecomputesTotals(t *testing.T) {
	stale := &domain.Order{
		// stored aggregates are stale on purpose
		Subtotal:  decimal.RequireFromString("1.00"),
		TaxAmount: decimal.RequireFromString("0.01"),
		Total:     decimal.RequireFromString("1.01"),
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Wooden Train", Price: decimal.RequireFromString("10.00"), Quantity: 2},
			{ProductID: 2, ProductName: "Plush Bear", Price: decimal.RequireFromString("5.00"), Quantity: 1},
		},
	}
	store := &mockOrderStore{orders: []*domain.Order{stale}}
	svc := newTestService(store)

	orders, err := svc.OrderHistory(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	assert.Equal(t, "25.00", orders[0].Subtotal.String())
	assert.Equal(t, "4.50", orders[0].TaxAmount.String())
	assert.Equal(t, "29.50", orders[0].Total.String())
}
