package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount reduces base by value interpreted as typ, rounded to cents
// and clamped at zero. Unknown types leave base unchanged.
func ApplyDiscount(base, value decimal.Decimal, typ campaign.DiscountType) decimal.Decimal {
	var out decimal.Decimal
	switch typ {
	case campaign.DiscountPercentage:
		out = base.Mul(decimal.NewFromInt(1).Sub(value.Div(hundred)))
	case campaign.DiscountFixed:
		out = base.Sub(value)
	default:
		return base
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}

// candidate is the price a single campaign would give a product.
type candidate struct {
	price         decimal.Decimal
	discountValue decimal.Decimal
	discountType  campaign.DiscountType
}

// candidatePrice evaluates c against base. Tiered campaigns use only their
// first tier here; the cart walks the full list by quantity. BOGO is left to
// cart level unit economics and never yields a candidate.
func candidatePrice(c *campaign.Campaign, base decimal.Decimal) (candidate, bool) {
	switch c.Type {
	case campaign.TypeScheduled:
		if !c.DiscountType.Valid() {
			return candidate{}, false
		}
		return candidate{
			price:         ApplyDiscount(base, c.DiscountValue, c.DiscountType),
			discountValue: c.DiscountValue,
			discountType:  c.DiscountType,
		}, true
	case campaign.TypeQuantity:
		if len(c.Tiers.Quantity) == 0 || !c.Tiers.Quantity[0].Type.Valid() {
			return candidate{}, false
		}
		t := c.Tiers.Quantity[0]
		return candidate{price: ApplyDiscount(base, t.Value, t.Type), discountValue: t.Value, discountType: t.Type}, true
	case campaign.TypeEarlyBird:
		if len(c.Tiers.EarlyBird) == 0 || !c.Tiers.EarlyBird[0].Type.Valid() {
			return candidate{}, false
		}
		t := c.Tiers.EarlyBird[0]
		return candidate{price: ApplyDiscount(base, t.Value, t.Type), discountValue: t.Value, discountType: t.Type}, true
	default:
		return candidate{}, false
	}
}

// Prefer reports whether price should displace the current best under method.
// A nil best always loses. Comparisons are strict so ties keep the earlier
// campaign.
func Prefer(method config.PriorityMethod, price decimal.Decimal, best *decimal.Decimal) bool {
	if best == nil {
		return true
	}
	switch method {
	case config.ApplyLowest:
		return price.GreaterThan(*best)
	case config.ApplyFirst:
		return false
	default:
		return price.LessThan(*best)
	}
}
