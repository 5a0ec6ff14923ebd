package campaign

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
)

type scopeKey struct{}

type requestScope struct {
	mu        sync.Mutex
	loaded    bool
	campaigns []*Campaign
}

// WithRequestScope attaches a per-request campaign list memo to ctx.
func WithRequestScope(ctx context.Context) context.Context {
	if _, ok := ctx.Value(scopeKey{}).(*requestScope); ok {
		return ctx
	}
	return context.WithValue(ctx, scopeKey{}, &requestScope{})
}

func scopeFrom(ctx context.Context) *requestScope {
	s, _ := ctx.Value(scopeKey{}).(*requestScope)
	return s
}

// Repository serves the full campaign list through a request memo and a
// shared cross-request cache.
type Repository struct {
	Store   Store
	Catalog catalog.Lookup
	Cache   ListCache
	Logger  zerolog.Logger
}

// GetActiveCampaigns returns every live campaign in every status, resolved
// against the catalog. Storage failures yield an empty list and are logged.
func (r *Repository) GetActiveCampaigns(ctx context.Context) []*Campaign {
	scope := scopeFrom(ctx)
	if scope != nil {
		scope.mu.Lock()
		defer scope.mu.Unlock()
		if scope.loaded {
			obs.CampaignCacheRequests.WithLabelValues("request", "hit").Inc()
			return scope.campaigns
		}
	}
	campaigns := r.load(ctx)
	if scope != nil {
		scope.loaded = true
		scope.campaigns = campaigns
	}
	return campaigns
}

func (r *Repository) load(ctx context.Context) []*Campaign {
	if r.Cache != nil {
		cached, ok, err := r.Cache.Get(ctx)
		switch {
		case err != nil:
			r.Logger.Warn().Err(err).Msg("campaign cache read failed")
		case ok:
			obs.CampaignCacheRequests.WithLabelValues("shared", "hit").Inc()
			return cached
		}
		obs.CampaignCacheRequests.WithLabelValues("shared", "miss").Inc()
	}
	if r.Store == nil {
		return nil
	}
	campaigns, err := r.Store.List(ctx)
	if err != nil {
		r.Logger.Error().Err(err).Msg("load campaigns failed")
		return nil
	}
	for _, c := range campaigns {
		if err := c.Resolve(ctx, r.Catalog); err != nil {
			r.Logger.Warn().Err(err).Int64("campaign_id", c.ID).Msg("campaign targeting partially resolved")
		}
	}
	if r.Cache != nil {
		if err := r.Cache.Set(ctx, campaigns); err != nil {
			r.Logger.Warn().Err(err).Msg("campaign cache write failed")
		}
	}
	return campaigns
}

// Invalidate drops the shared cache and the request memo on ctx.
func (r *Repository) Invalidate(ctx context.Context) error {
	if scope := scopeFrom(ctx); scope != nil {
		scope.mu.Lock()
		scope.loaded = false
		scope.campaigns = nil
		scope.mu.Unlock()
	}
	if r.Cache == nil {
		return nil
	}
	return r.Cache.Clear(ctx)
}

// Notify invalidates on any campaign save or delete.
func (r *Repository) Notify(ctx context.Context, ev events.Event) error {
	switch ev.Topic {
	case events.TopicCampaignSaved, events.TopicCampaignDeleted:
		return r.Invalidate(ctx)
	}
	return nil
}
