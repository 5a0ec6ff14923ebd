package cart

import "github.com/shopspring/decimal"

// Summary aggregates computed cart totals.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Fees     decimal.Decimal `json:"fees"`
	Total    decimal.Decimal `json:"total"`
}

// Compute totals the cart. Subtotal uses undiscounted prices; Discount covers
// both lowered line prices and negative fees.
func Compute(c *Cart) Summary {
	var s Summary
	if c == nil {
		return s
	}
	var live decimal.Decimal
	for _, l := range c.Lines {
		if l == nil || l.Quantity <= 0 {
			continue
		}
		q := decimal.NewFromInt(int64(l.Quantity))
		s.Subtotal = s.Subtotal.Add(l.Product.Price.Mul(q))
		live = live.Add(l.Price.Mul(q))
	}
	for _, f := range c.Fees {
		s.Fees = s.Fees.Add(f.Amount)
	}
	s.Total = live.Add(s.Fees)
	if s.Total.IsNegative() {
		s.Total = decimal.Zero
	}
	s.Discount = s.Subtotal.Sub(s.Total)
	return s
}
