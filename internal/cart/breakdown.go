package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// BreakdownEntry totals one campaign's effect on a cart.
type BreakdownEntry struct {
	Title         string          `json:"title"`
	TotalOldPrice decimal.Decimal `json:"total_old_price"`
	TotalNewPrice decimal.Decimal `json:"total_new_price"`
}

// Discount is the amount the campaign took off.
func (e BreakdownEntry) Discount() decimal.Decimal {
	return e.TotalOldPrice.Sub(e.TotalNewPrice)
}

// Breakdown maps campaign id to its totals. It serialises as
// {"<campaign_id>": {"title", "total_old_price", "total_new_price"}}.
type Breakdown map[int64]BreakdownEntry

// Add accumulates qty units moved from base to final under campaign id.
func (b Breakdown) Add(id int64, title string, base, final decimal.Decimal, qty int) {
	q := decimal.NewFromInt(int64(qty))
	e := b[id]
	e.Title = title
	e.TotalOldPrice = e.TotalOldPrice.Add(base.Mul(q))
	e.TotalNewPrice = e.TotalNewPrice.Add(final.Mul(q))
	b[id] = e
}

// Total sums the discount across every campaign.
func (b Breakdown) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range b {
		sum = sum.Add(e.Discount())
	}
	return sum
}

// Encode returns the order meta form of b.
func (b Breakdown) Encode() ([]byte, error) {
	if b == nil {
		b = Breakdown{}
	}
	return json.Marshal(b)
}

// ErrMalformedBreakdown marks order meta that cannot be read back.
var ErrMalformedBreakdown = errors.New("cart: malformed discount breakdown")

// DecodeBreakdown parses order meta written by Encode.
func DecodeBreakdown(data []byte) (Breakdown, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, ErrMalformedBreakdown
	}
	var b Breakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBreakdown, err)
	}
	for id := range b {
		if id <= 0 {
			return nil, fmt.Errorf("%w: campaign id %d", ErrMalformedBreakdown, id)
		}
	}
	return b, nil
}
