package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pushpak01/pushtoys-render/internal/orders/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEventNotFound = errors.New("outbox event not found")
)

// OutboxEvent is a pending integration event written in the same
// transaction as the order it describes.
type OutboxEvent struct {
	ID        int64
	OrderID   string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

const EventOrderPlaced = "order.placed"

type OrderRepository interface {
	// CreateOrder writes the order, every item and an order.placed outbox
	// event as a single transaction: either all rows land or none do.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	MarkOrderPaid(ctx context.Context, id uuid.UUID) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
