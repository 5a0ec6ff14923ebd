package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
)

// ErrInvalidInput is returned when a line request is unusable.
var ErrInvalidInput = errors.New("invalid input")

// Line is one product and quantity in a cart. Price is the live unit price
// and may be lowered by discount application.
type Line struct {
	Key      string          `json:"key"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Fee is a cart level adjustment. Discounts are negative.
type Fee struct {
	CampaignID int64           `json:"campaign_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
}

// Notice is a storefront message such as the next tier upsell.
type Notice struct {
	CampaignID int64  `json:"campaign_id"`
	LineKey    string `json:"line_key"`
	Message    string `json:"message"`
}

// Cart is the mutable state a discount pass operates on.
type Cart struct {
	Lines     []*Line   `json:"lines"`
	Fees      []Fee     `json:"fees"`
	Notices   []Notice  `json:"notices"`
	Breakdown Breakdown `json:"discount_breakdown"`
}

// reset restores undiscounted prices and clears everything a discount pass
// produces.
func (c *Cart) reset() {
	for _, l := range c.Lines {
		l.Price = l.Product.Price
	}
	c.Fees = nil
	c.Notices = nil
	c.Breakdown = Breakdown{}
}

// LineRequest is the wire form of a cart line.
type LineRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

// Build loads every requested product and returns an undiscounted cart.
// Repeated product ids are merged into one line.
func Build(ctx context.Context, lookup catalog.Lookup, items []LineRequest) (*Cart, error) {
	if lookup == nil {
		return nil, errors.New("cart: catalog not configured")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", ErrInvalidInput)
	}
	c := &Cart{Breakdown: Breakdown{}}
	index := map[int64]*Line{}
	for _, item := range items {
		if err := validate().Struct(item); err != nil {
			return nil, fmt.Errorf("line %d: %w", item.ProductID, ErrInvalidInput)
		}
		if l, ok := index[item.ProductID]; ok {
			l.Quantity += item.Quantity
			continue
		}
		p, err := lookup.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if p.IsVariable() {
			return nil, fmt.Errorf("product %d is variable, choose a variation: %w", p.ID, ErrInvalidInput)
		}
		l := &Line{Key: strconv.FormatInt(p.ID, 10), Product: p, Quantity: item.Quantity, Price: p.Price}
		index[p.ID] = l
		c.Lines = append(c.Lines, l)
	}
	return c, nil
}
