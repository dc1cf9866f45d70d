package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a persisted checkout result. It is written exactly once,
// together with all of its items, and is immutable afterwards except for
// the paid flag and an explicit recompute of the stored totals.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"user_id,omitempty"` // empty for guest checkout
	FullName  string          `json:"full_name"`
	Email     string          `json:"email"`
	Address   string          `json:"address"`
	Phone     string          `json:"phone"`
	Paid      bool            `json:"paid"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItem     `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderItem records one product at its purchase-time price. Created in a
// batch alongside the order, never updated.
type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Cost is the line total at the captured price.
func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecomputeTotals rederives subtotal, tax and total from the order's items
// instead of trusting the stored aggregates. combinedRate is the full GST
// rate to apply; the original jurisdiction split is not kept per order.
func (o *Order) RecomputeTotals(combinedRate decimal.Decimal) {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Cost())
	}
	o.Subtotal = subtotal.Round(2)
	o.TaxAmount = subtotal.Mul(combinedRate).Round(2)
	o.Total = o.Subtotal.Add(o.TaxAmount)
}
