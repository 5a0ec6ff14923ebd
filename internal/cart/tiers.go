package cart

import (
	"strconv"
	"strings"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
)

// MatchQuantityTier returns the tier whose range contains qty.
func MatchQuantityTier(tiers []campaign.QuantityTier, qty int) (campaign.QuantityTier, bool) {
	for _, t := range tiers {
		if t.Contains(qty) {
			return t, true
		}
	}
	return campaign.QuantityTier{}, false
}

// NextQuantityTier returns the nearest tier that starts above qty.
func NextQuantityTier(tiers []campaign.QuantityTier, qty int) (campaign.QuantityTier, bool) {
	var next campaign.QuantityTier
	found := false
	for _, t := range tiers {
		if t.Min > qty && (!found || t.Min < next.Min) {
			next = t
			found = true
		}
	}
	return next, found
}

// RenderNextTierMessage fills the upsell template for a line of qty units.
func RenderNextTierMessage(format string, next campaign.QuantityTier, qty int) string {
	amount := next.Value.String()
	if next.Type == campaign.DiscountPercentage {
		amount += "%"
	} else {
		amount = next.Value.StringFixed(2)
	}
	return strings.NewReplacer(
		"{remaining_amount}", strconv.Itoa(next.Min-qty),
		"{discount_percentage}", amount,
	).Replace(format)
}
