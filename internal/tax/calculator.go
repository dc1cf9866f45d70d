package tax

import (
	"github.com/shopspring/decimal"
)

// Rates holds the GST rates applied at checkout. Intra-state sales are
// split into cgst+sgst, inter-state sales pay the combined igst rate.
type Rates struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
}

// DefaultRates returns the standard GST slab: 9% + 9% intra-state,
// 18% combined inter-state.
func DefaultRates() Rates {
	return Rates{
		CGST: decimal.RequireFromString("0.09"),
		SGST: decimal.RequireFromString("0.09"),
		IGST: decimal.RequireFromString("0.18"),
	}
}

// Breakdown is the tax split for a single subtotal. Amounts are exact
// decimals; rounding to 2 places happens only when a total is persisted.
type Breakdown struct {
	CGST  decimal.Decimal `json:"cgst"`
	SGST  decimal.Decimal `json:"sgst"`
	IGST  decimal.Decimal `json:"igst"`
	Total decimal.Decimal `json:"total_tax"`
}

type Calculator struct {
	rates Rates
}

// NewCalculator builds a calculator from an explicit rate config. Rates are
// fixed at construction; there is no mutable global state.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Calculate computes the GST breakdown for a subtotal. A non-empty
// stateCode marks an inter-state sale: the whole subtotal is taxed at the
// igst rate and the local components stay zero. Otherwise cgst and sgst
// each apply to the whole subtotal.
func (c *Calculator) Calculate(subtotal decimal.Decimal, stateCode string) Breakdown {
	b := Breakdown{
		CGST: decimal.Zero,
		SGST: decimal.Zero,
		IGST: decimal.Zero,
	}

	if stateCode != "" {
		b.IGST = subtotal.Mul(c.rates.IGST)
		b.Total = b.IGST
		return b
	}

	b.CGST = subtotal.Mul(c.rates.CGST)
	b.SGST = subtotal.Mul(c.rates.SGST)
	b.Total = b.CGST.Add(b.SGST)
	return b
}

// CombinedRate is the full GST rate, used when totals are recomputed from
// stored order lines and the original jurisdiction is no longer known.
func (c *Calculator) CombinedRate() decimal.Decimal {
	return c.rates.IGST
}
