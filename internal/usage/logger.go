package usage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dipta-sdd/campaignbay-sub002/internal/cart"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
	"github.com/dipta-sdd/campaignbay-sub002/internal/lock"
	"github.com/dipta-sdd/campaignbay-sub002/internal/obs"
	"github.com/dipta-sdd/campaignbay-sub002/internal/order"
)

// ErrBreakdownMissing marks orders that carry no readable discount breakdown.
var ErrBreakdownMissing = errors.New("usage: order has no discount breakdown")

// OrderReader loads orders with their breakdown meta.
type OrderReader interface {
	Get(ctx context.Context, id int64) (order.Order, error)
}

// SaleWriter upserts sale rows.
type SaleWriter interface {
	UpsertSaleLog(ctx context.Context, e SaleEntry) (bool, error)
}

// Locker serialises work per key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Recounter refreshes a campaign's stored usage count.
type Recounter interface {
	RefreshUsageCount(ctx context.Context, campaignID int64) (int, error)
}

// Invalidator drops cached campaign lists.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Logger attributes discounted orders to campaigns as order statuses change.
type Logger struct {
	Orders    OrderReader
	Store     SaleWriter
	Locker    Locker
	Recounter Recounter
	Cache     Invalidator
	Events    Emitter
	LockTTL   time.Duration
	Log       zerolog.Logger
}

// Notify handles order.status_changed events.
func (l *Logger) Notify(ctx context.Context, ev events.Event) error {
	if ev.Topic != events.TopicOrderStatusChanged {
		return nil
	}
	var p events.OrderStatusPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode order status payload: %w", err)
	}
	return l.HandleOrderStatusChange(ctx, p.OrderID, p.OldStatus, p.NewStatus)
}

// HandleOrderStatusChange upserts one sale row per campaign in the order's
// breakdown. Every transition is handled the same way. Only a newly
// inserted row triggers a usage recount and cache invalidation.
func (l *Logger) HandleOrderStatusChange(ctx context.Context, orderID int64, oldStatus, newStatus string) error {
	if l == nil || l.Orders == nil || l.Store == nil {
		return errors.New("usage logger not configured")
	}
	o, err := l.Orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			l.Log.Warn().Int64("order_id", orderID).Msg("usage: order not found")
			return nil
		}
		return err
	}
	breakdown, err := readBreakdown(o)
	if err != nil {
		l.Log.Debug().Err(err).Int64("order_id", orderID).Msg("usage: skipping order")
		return nil
	}

	ids := make([]int64, 0, len(breakdown))
	for id := range breakdown {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var errs []error
	for _, campaignID := range ids {
		entry := breakdown[campaignID]
		sale := SaleEntry{
			CampaignID:    campaignID,
			OrderID:       o.ID,
			UserID:        o.UserID,
			BaseTotal:     entry.TotalOldPrice,
			TotalDiscount: entry.Discount(),
			OrderTotal:    o.Total,
			OrderStatus:   newStatus,
		}
		if err := l.record(ctx, sale, oldStatus); err != nil {
			l.Log.Error().Err(err).Int64("order_id", o.ID).Int64("campaign_id", campaignID).Msg("usage log write failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Logger) record(ctx context.Context, sale SaleEntry, oldStatus string) error {
	locker := l.Locker
	if locker == nil {
		locker = lock.Nop{}
	}
	return locker.WithLock(ctx, lock.UsageKey(sale.OrderID, sale.CampaignID), l.LockTTL, func(ctx context.Context) error {
		inserted, err := l.Store.UpsertSaleLog(ctx, sale)
		if err != nil {
			return err
		}
		if !inserted {
			obs.UsageLogWrites.WithLabelValues("updated").Inc()
			l.Log.Debug().Int64("order_id", sale.OrderID).Int64("campaign_id", sale.CampaignID).
				Str("from", oldStatus).Str("to", sale.OrderStatus).Msg("usage log updated")
			return nil
		}
		obs.UsageLogWrites.WithLabelValues("inserted").Inc()

		var errs []error
		if l.Recounter != nil {
			if _, err := l.Recounter.RefreshUsageCount(ctx, sale.CampaignID); err != nil {
				errs = append(errs, err)
			}
		}
		if l.Cache != nil {
			if err := l.Cache.Invalidate(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if l.Events != nil {
			payload := events.UsagePayload{OrderID: sale.OrderID, CampaignID: sale.CampaignID, Inserted: true}
			if _, err := l.Events.Emit(ctx, events.TopicCampaignUsageRecorded, strconv.FormatInt(sale.CampaignID, 10), payload); err != nil {
				l.Log.Warn().Err(err).Int64("campaign_id", sale.CampaignID).Msg("usage event dispatch failed")
			}
		}
		return errors.Join(errs...)
	})
}

func readBreakdown(o order.Order) (cart.Breakdown, error) {
	if len(o.DiscountBreakdown) == 0 {
		return nil, ErrBreakdownMissing
	}
	b, err := cart.DecodeBreakdown(o.DiscountBreakdown)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBreakdownMissing, err)
	}
	if len(b) == 0 {
		return nil, ErrBreakdownMissing
	}
	return b, nil
}
