package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pushpak01/pushtoys-render/internal/cart"
	"github.com/pushpak01/pushtoys-render/internal/orders/domain"
	"github.com/pushpak01/pushtoys-render/internal/tax"
)

// OrderStore is the slice of the orders repository checkout needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

// Service turns a session cart into a persisted order.
type Service struct {
	repo  OrderStore
	taxes *tax.Calculator
	log   *zap.SugaredLogger
}

func NewService(repo OrderStore, taxes *tax.Calculator, log *zap.SugaredLogger) *Service {
	return &Service{
		repo:  repo,
		taxes: taxes,
		log:   log,
	}
}

// PlaceOrder runs the checkout pipeline: validate the form and the cart,
// price the cart, write the order with all its lines atomically, then
// clear the cart. On a persistence failure the cart is left untouched and
// the returned error wraps ErrPersistenceFailure so the caller can retry.
// userID may be empty for guest checkout.
func (s *Service) PlaceOrder(ctx context.Context, c *cart.Cart, form *OrderForm, userID, stateCode string) (*domain.Order, error) {
	status := StatusFormPresented

	status, err := s.transition(status, StatusValidating)
	if err != nil {
		return nil, err
	}

	if c.Len() == 0 {
		s.logStatus(StatusRejected, "", "empty cart")
		return nil, ErrEmptyCart
	}

	if errForm := form.Validate(); errForm != nil {
		s.logStatus(StatusRejected, "", "invalid contact info")
		return nil, errForm
	}

	// reconcile against the live catalog before pricing: vanished products
	// drop out instead of blocking the purchase
	if errValidate := c.Validate(ctx); errValidate != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, errValidate)
	}
	if c.Len() == 0 {
		s.logStatus(StatusRejected, "", "cart empty after validation")
		return nil, ErrEmptyCart
	}

	items, err := c.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, err)
	}

	subtotal := c.Subtotal()
	taxes := s.taxes.Calculate(subtotal, stateCode)

	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		FullName:  form.FullName,
		Email:     form.Email,
		Address:   form.Address,
		Phone:     form.Phone,
		Subtotal:  subtotal.Round(2),
		TaxAmount: taxes.Total.Round(2),
	}
	order.Total = order.Subtotal.Add(order.TaxAmount)

	for _, item := range items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: name,
			Price:       item.Price,
			Quantity:    item.Quantity,
		})
	}

	status, err = s.transition(status, StatusPersisting)
	if err != nil {
		return nil, err
	}

	if errCreate := s.repo.CreateOrder(ctx, order); errCreate != nil {
		// cart stays intact so the visitor can retry
		s.log.Errorw("atomic order write failed", "order_id", order.ID, "err", errCreate)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailure, errCreate)
	}

	c.Clear()

	status, err = s.transition(status, StatusCompleted)
	if err != nil {
		return nil, err
	}
	s.logStatus(status, order.ID.String(), "")

	return order, nil
}

// OrderHistory lists a customer's orders newest-first. Totals are
// recomputed from the stored line items rather than trusted from the
// aggregate columns.
func (s *Service) OrderHistory(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for _, order := range orders {
		order.RecomputeTotals(s.taxes.CombinedRate())
	}
	return orders, nil
}

func (s *Service) transition(from, to Status) (Status, error) {
	if !CanTransitionTo(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return to, nil
}

func (s *Service) logStatus(status Status, orderID, reason string) {
	s.log.Infow("checkout status", "status", status.String(), "order_id", orderID, "reason", reason)
}
