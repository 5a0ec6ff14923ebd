package cart

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
	"github.com/dipta-sdd/campaignbay-sub002/internal/pricing"
)

var (
	validateOnce  sync.Once
	validatorInst *validator.Validate
)

func validate() *validator.Validate {
	validateOnce.Do(func() { validatorInst = validator.New() })
	return validatorInst
}

// Origin describes where a cart calculation was triggered from.
type Origin struct {
	Admin bool
	AJAX  bool
}

type originKey struct{}

// WithOrigin records the calling context on ctx.
func WithOrigin(ctx context.Context, o Origin) context.Context {
	return context.WithValue(ctx, originKey{}, o)
}

// OriginFrom returns the recorded origin, defaulting to storefront.
func OriginFrom(ctx context.Context) Origin {
	o, _ := ctx.Value(originKey{}).(Origin)
	return o
}

// DiscountCalculator resolves a product's winning campaign.
type DiscountCalculator interface {
	GetOrCalculateProductDiscount(ctx context.Context, p *catalog.Product) *pricing.Outcome
}

// Integrator applies calculated discounts to a live cart.
type Integrator struct {
	Calc     DiscountCalculator
	Settings config.Settings
	Logger   zerolog.Logger
}

// ApplyDiscountsAndPrepareNotices recomputes every line discount, the fee
// list, upsell notices and the per-campaign breakdown. Repeated calls on the
// same cart produce the same state. Admin side calculations are skipped unless
// they come through AJAX.
func (i *Integrator) ApplyDiscountsAndPrepareNotices(ctx context.Context, c *Cart) {
	if c == nil {
		return
	}
	if o := OriginFrom(ctx); o.Admin && !o.AJAX {
		return
	}
	c.reset()
	if i.Calc == nil {
		i.Logger.Error().Msg("cart discount calculator not configured")
		return
	}
	settings := i.Settings.Normalize()
	fees := map[int64]*Fee{}
	var feeOrder []int64

	for _, line := range c.Lines {
		if line == nil || line.Quantity <= 0 {
			continue
		}
		out := i.Calc.GetOrCalculateProductDiscount(ctx, &line.Product)
		if out == nil || !out.OnCampaign {
			continue
		}
		base := out.BasePrice
		final := out.BestPrice

		if out.CampaignType == campaign.TypeQuantity {
			if tier, ok := MatchQuantityTier(out.Tiers.Quantity, line.Quantity); ok {
				final = pricing.ApplyDiscount(base, tier.Value, tier.Type)
			}
			if settings.ShowNextDiscountBar {
				if next, ok := NextQuantityTier(out.Tiers.Quantity, line.Quantity); ok {
					c.Notices = append(c.Notices, Notice{
						CampaignID: out.CampaignID,
						LineKey:    line.Key,
						Message:    RenderNextTierMessage(settings.NextDiscountFormat, next, line.Quantity),
					})
				}
			}
		}
		if final.IsNegative() {
			final = decimal.Zero
		}
		if !final.LessThan(base) {
			continue
		}

		if settings.ShowDiscountBreakdown {
			delta := base.Sub(final).Mul(decimal.NewFromInt(int64(line.Quantity)))
			fee, ok := fees[out.CampaignID]
			if !ok {
				fee = &Fee{CampaignID: out.CampaignID, Name: out.CampaignTitle}
				fees[out.CampaignID] = fee
				feeOrder = append(feeOrder, out.CampaignID)
			}
			fee.Amount = fee.Amount.Sub(delta)
			obs.CartDiscountApplications.WithLabelValues("fee").Inc()
		} else {
			line.Price = final
			obs.CartDiscountApplications.WithLabelValues("price").Inc()
		}
		c.Breakdown.Add(out.CampaignID, out.CampaignTitle, base, final, line.Quantity)
	}
	for _, id := range feeOrder {
		c.Fees = append(c.Fees, *fees[id])
	}
}
