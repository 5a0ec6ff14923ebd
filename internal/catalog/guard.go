package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
)

// ErrUnavailable is returned while the catalog breaker is open.
var ErrUnavailable = errors.New("catalog: temporarily unavailable")

// BreakerConfig tunes the circuit breaker guarding catalog reads.
type BreakerConfig struct {
	Name         string
	MinRequests  uint32
	FailureRatio float64
	OpenFor      time.Duration
}

// GuardedLookup trips a circuit breaker when the catalog keeps failing so
// that targeting and pricing degrade to empty results instead of piling up
// slow queries.
type GuardedLookup struct {
	next    Lookup
	breaker *gobreaker.CircuitBreaker[any]
}

// NewGuardedLookup wraps next with a breaker configured by cfg.
func NewGuardedLookup(next Lookup, cfg BreakerConfig, logger zerolog.Logger) *GuardedLookup {
	if cfg.Name == "" {
		cfg.Name = "catalog"
	}
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 10
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = 0.5
	}
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("catalog breaker state change")
			obs.CatalogBreakerState.Set(breakerGauge(to))
		},
	}
	return &GuardedLookup{next: next, breaker: gobreaker.NewCircuitBreaker[any](settings)}
}

// State exposes the breaker state for readiness reporting.
func (g *GuardedLookup) State() gobreaker.State {
	return g.breaker.State()
}

// GetProductByID implements Lookup.
func (g *GuardedLookup) GetProductByID(ctx context.Context, id int64) (Product, error) {
	v, err := g.breaker.Execute(func() (any, error) {
		return g.next.GetProductByID(ctx, id)
	})
	if err != nil {
		return Product{}, mapBreakerErr(err)
	}
	return v.(Product), nil
}

// QueryProductIDsByCategory implements Lookup.
func (g *GuardedLookup) QueryProductIDsByCategory(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	v, err := g.breaker.Execute(func() (any, error) {
		return g.next.QueryProductIDsByCategory(ctx, categoryIDs)
	})
	if err != nil {
		return nil, mapBreakerErr(err)
	}
	ids, _ := v.([]int64)
	return ids, nil
}

func mapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func breakerGauge(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
