package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound is returned when a product id does not resolve to a row.
var ErrProductNotFound = errors.New("catalog: product not found")

// Kind distinguishes simple products from variable parents and their variations.
type Kind string

const (
	KindSimple    Kind = "simple"
	KindVariable  Kind = "variable"
	KindVariation Kind = "variation"
)

// Product is the catalog view consumed by the discount engine.
type Product struct {
	ID           int64           `json:"id"`
	ParentID     int64           `json:"parent_id,omitempty"`
	Name         string          `json:"name"`
	Kind         Kind            `json:"kind"`
	Price        decimal.Decimal `json:"price"`
	RegularPrice decimal.Decimal `json:"regular_price"`
	VariationIDs []int64         `json:"variation_ids,omitempty"`
	TagIDs       []int64         `json:"tag_ids,omitempty"`
	CategoryIDs  []int64         `json:"category_ids,omitempty"`
}

// IsVariable reports whether the product is a parent with variations.
func (p Product) IsVariable() bool { return p.Kind == KindVariable }

// IsOnSale reports whether the current price undercuts the regular price.
func (p Product) IsOnSale() bool {
	return p.RegularPrice.IsPositive() && p.Price.LessThan(p.RegularPrice)
}

// Lookup is the catalog capability required by campaign targeting and pricing.
type Lookup interface {
	GetProductByID(ctx context.Context, id int64) (Product, error)
	QueryProductIDsByCategory(ctx context.Context, categoryIDs []int64) ([]int64, error)
}
