package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
)

// CampaignSource supplies the campaign list for a request.
type CampaignSource interface {
	GetActiveCampaigns(ctx context.Context) []*campaign.Campaign
}

// Outcome is the discount decision for one product. It lives for a single
// request and is never persisted.
type Outcome struct {
	ProductID     int64                 `json:"product_id"`
	BasePrice     decimal.Decimal       `json:"base_price"`
	OnCampaign    bool                  `json:"on_campaign"`
	BestPrice     decimal.Decimal       `json:"best_price"`
	CampaignID    int64                 `json:"campaign_id,omitempty"`
	CampaignTitle string                `json:"campaign_title,omitempty"`
	CampaignType  campaign.Type         `json:"campaign_type,omitempty"`
	Tiers         campaign.Tiers        `json:"tiers"`
	DiscountValue decimal.Decimal       `json:"discount_value"`
	DiscountType  campaign.DiscountType `json:"discount_type,omitempty"`
}

func noDiscount(p *catalog.Product) *Outcome {
	out := &Outcome{}
	if p != nil {
		out.ProductID = p.ID
		out.BasePrice = p.Price
		out.BestPrice = p.Price
	}
	return out
}

type sessionKey struct{}

type session struct {
	mu       sync.Mutex
	outcomes map[int64]*Outcome
}

// WithSession attaches a per-request outcome memo to ctx.
func WithSession(ctx context.Context) context.Context {
	if _, ok := ctx.Value(sessionKey{}).(*session); ok {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, &session{outcomes: map[int64]*Outcome{}})
}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

// Calculator resolves the winning campaign for a product.
type Calculator struct {
	Campaigns CampaignSource
	Settings  config.Settings
	Now       func() time.Time
	Logger    zerolog.Logger
}

// GetOrCalculateProductDiscount returns the memoised outcome for p, computing
// it on first use within the request. It never fails: bad input yields a
// no-discount outcome and an error log.
func (c *Calculator) GetOrCalculateProductDiscount(ctx context.Context, p *catalog.Product) *Outcome {
	if p == nil || p.ID <= 0 {
		c.Logger.Error().Msg("discount requested for invalid product")
		obs.DiscountCalculations.WithLabelValues("invalid").Inc()
		return noDiscount(p)
	}
	settings := c.Settings.Normalize()
	if settings.ExcludeSaleItems && p.IsOnSale() {
		obs.DiscountCalculations.WithLabelValues("sale_excluded").Inc()
		return noDiscount(p)
	}

	sess := sessionFrom(ctx)
	if sess != nil {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if out, ok := sess.outcomes[p.ID]; ok {
			obs.DiscountCalculations.WithLabelValues("memo").Inc()
			return out
		}
	}

	out := c.calculate(ctx, p, settings.PriorityMethod)
	if sess != nil {
		sess.outcomes[p.ID] = out
	}
	if out.OnCampaign {
		obs.DiscountCalculations.WithLabelValues("discounted").Inc()
	} else {
		obs.DiscountCalculations.WithLabelValues("none").Inc()
	}
	return out
}

func (c *Calculator) calculate(ctx context.Context, p *catalog.Product, method config.PriorityMethod) *Outcome {
	out := noDiscount(p)
	if c.Campaigns == nil {
		return out
	}
	campaigns := c.Campaigns.GetActiveCampaigns(ctx)
	if len(campaigns) == 0 {
		return out
	}
	now := c.now()
	var best *decimal.Decimal
	for _, camp := range campaigns {
		if !eligible(camp, p, now) {
			continue
		}
		cand, ok := candidatePrice(camp, p.Price)
		if !ok {
			if camp.Type != campaign.TypeBogo {
				c.Logger.Warn().Int64("campaign_id", camp.ID).Str("type", string(camp.Type)).Msg("campaign has no usable discount data")
			}
			continue
		}
		if !Prefer(method, cand.price, best) {
			continue
		}
		price := cand.price
		best = &price
		out.OnCampaign = true
		out.BestPrice = price
		out.CampaignID = camp.ID
		out.CampaignTitle = camp.Title
		out.CampaignType = camp.Type
		out.Tiers = camp.Tiers
		out.DiscountValue = cand.discountValue
		out.DiscountType = cand.discountType
	}
	return out
}

func eligible(c *campaign.Campaign, p *catalog.Product, now time.Time) bool {
	if c == nil || c.Status != campaign.StatusActive {
		return false
	}
	if !c.InWindow(now) || c.UsageExhausted() {
		return false
	}
	if c.ExcludeSaleItems && p.IsOnSale() {
		return false
	}
	return c.IsApplicableToProduct(*p)
}

func (c *Calculator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
