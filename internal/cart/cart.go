package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/pushpak01/pushtoys-render/internal/catalog/domain"
	"github.com/pushpak01/pushtoys-render/internal/session"
	"github.com/pushpak01/pushtoys-render/internal/tax"
)

const sessionKey = "cart"

// Line is one product inside the session cart. The price is the unit price
// captured when the product was added, stored as a decimal string so it
// survives session serialization without binary-float drift. It only
// changes through Validate.
type Line struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Item is an enriched view of a Line: the live product is resolved from
// the catalog and totals are computed in exact decimal. Product is nil
// when the catalog no longer knows the id.
type Item struct {
	ProductID  int64           `json:"product_id"`
	Product    *domain.Product `json:"product,omitempty"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Totals is the full cart breakdown returned by GrandTotal.
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Taxes      tax.Breakdown   `json:"taxes"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// ProductFinder is the slice of the catalog the cart needs.
type ProductFinder interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
}

// Cart is the per-visitor shopping cart. It lives inside the session: the
// map holds only ids, quantities and captured prices, full product detail
// is re-fetched from the catalog on demand.
type Cart struct {
	session  *session.Session
	products ProductFinder
	taxes    *tax.Calculator
	lines    map[string]Line
}

// New loads the cart from the session. A missing or corrupt cart value
// behaves as an empty cart.
func New(sess *session.Session, products ProductFinder, taxes *tax.Calculator) *Cart {
	lines := make(map[string]Line)
	if !sess.Get(sessionKey, &lines) {
		lines = make(map[string]Line)
	}
	return &Cart{
		session:  sess,
		products: products,
		taxes:    taxes,
		lines:    lines,
	}
}

// Add puts a product into the cart. If a line for the product exists the
// quantity is incremented, or overwritten when override is set; otherwise
// a new line captures the product's current price.
func (c *Cart) Add(p *domain.Product, quantity int, override bool) {
	key := lineKey(p.ID)
	if line, ok := c.lines[key]; ok {
		if override {
			line.Quantity = quantity
		} else {
			line.Quantity += quantity
		}
		c.lines[key] = line
	} else {
		c.lines[key] = Line{
			ProductID: p.ID,
			Quantity:  quantity,
			Price:     p.Price.String(),
		}
	}
	c.save()
}

// Remove deletes the product's line. Removing an absent product is a no-op.
func (c *Cart) Remove(productID int64) {
	key := lineKey(productID)
	if _, ok := c.lines[key]; ok {
		delete(c.lines, key)
		c.save()
	}
}

func (c *Cart) Clear() {
	c.lines = make(map[string]Line)
	c.save()
}

// Len is the total quantity across all lines, not the line count.
func (c *Cart) Len() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// Subtotal is Σ(captured price × quantity) in exact decimal. Lines whose
// stored price does not parse are skipped; Validate removes them.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.lines {
		price, err := decimal.NewFromString(line.Price)
		if err != nil {
			continue
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return subtotal
}

// Items resolves every line against the catalog and returns enriched views
// ordered by product id. A product the catalog no longer knows shows up
// with a nil Product rather than failing the listing.
func (c *Cart) Items(ctx context.Context) ([]Item, error) {
	ids := make([]int64, 0, len(c.lines))
	for _, line := range c.lines {
		ids = append(ids, line.ProductID)
	}

	products, err := c.products.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve cart products: %w", err)
	}

	items := make([]Item, 0, len(c.lines))
	for _, line := range c.lines {
		price, err := decimal.NewFromString(line.Price)
		if err != nil {
			continue
		}
		items = append(items, Item{
			ProductID:  line.ProductID,
			Product:    products[line.ProductID],
			Quantity:   line.Quantity,
			Price:      price,
			TotalPrice: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

// Taxes computes the GST breakdown for the current subtotal.
func (c *Cart) Taxes(stateCode string) tax.Breakdown {
	return c.taxes.Calculate(c.Subtotal(), stateCode)
}

func (c *Cart) GrandTotal(stateCode string) Totals {
	subtotal := c.Subtotal()
	taxes := c.taxes.Calculate(subtotal, stateCode)
	return Totals{
		Subtotal:   subtotal,
		Taxes:      taxes,
		GrandTotal: subtotal.Add(taxes.Total),
	}
}

// Validate reconciles the cart with the live catalog: lines for products
// that vanished or can no longer be sold are dropped, as are lines with
// unreadable stored prices; a changed live price replaces the captured
// one. The repricing is silent, matching the storefront's historical
// behavior.
func (c *Cart) Validate(ctx context.Context) error {
	ids := make([]int64, 0, len(c.lines))
	for _, line := range c.lines {
		ids = append(ids, line.ProductID)
	}

	products, err := c.products.GetProducts(ctx, ids)
	if err != nil {
		return fmt.Errorf("validate cart: %w", err)
	}

	changed := false
	for key, line := range c.lines {
		product, ok := products[line.ProductID]
		if !ok || !product.InStock() {
			delete(c.lines, key)
			changed = true
			continue
		}

		price, e2 := decimal.NewFromString(line.Price)
		if e2 != nil {
			delete(c.lines, key)
			changed = true
			continue
		}

		if !product.Price.Equal(price) {
			line.Price = product.Price.String()
			c.lines[key] = line
			changed = true
		}
	}

	if changed {
		c.save()
	}
	return nil
}

// Lines exposes a copy of the raw cart state, mainly for tests and views.
func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

func (c *Cart) save() {
	// a map of plain lines always marshals; Set flags the session dirty
	_ = c.session.Set(sessionKey, c.lines)
}

func lineKey(productID int64) string {
	return strconv.FormatInt(productID, 10)
}
