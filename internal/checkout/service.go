package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dipta-sdd/campaignbay-sub002/internal/cart"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
	"github.com/dipta-sdd/campaignbay-sub002/internal/order"
	"github.com/dipta-sdd/campaignbay-sub002/internal/pricing"
)

// OrderStore persists placed orders.
type OrderStore interface {
	Create(ctx context.Context, o *order.Order) error
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// Input is the checkout request body.
type Input struct {
	Items []cart.LineRequest `json:"items"`
}

// Output describes the placed order.
type Output struct {
	Order  order.Order  `json:"order"`
	Totals cart.Summary `json:"totals"`
}

// OrderCreatedPayload accompanies order.created.
type OrderCreatedPayload struct {
	OrderID   int64    `json:"order_id"`
	Status    string   `json:"status"`
	Campaigns []string `json:"campaigns"`
}

// Service turns a priced cart into a pending order carrying the discount
// breakdown as meta.
type Service struct {
	Catalog    catalog.Lookup
	Integrator *cart.Integrator
	Orders     OrderStore
	Events     Emitter
	Logger     zerolog.Logger
}

// PlaceOrder prices items and stores the resulting order.
func (s *Service) PlaceOrder(ctx context.Context, userID *string, in Input) (Output, error) {
	if s == nil || s.Catalog == nil || s.Integrator == nil || s.Orders == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	ctx = pricing.WithSession(ctx)
	c, err := cart.Build(ctx, s.Catalog, in.Items)
	if err != nil {
		return Output{}, err
	}
	s.Integrator.ApplyDiscountsAndPrepareNotices(ctx, c)
	totals := cart.Compute(c)

	meta, err := c.Breakdown.Encode()
	if err != nil {
		return Output{}, fmt.Errorf("encode discount breakdown: %w", err)
	}
	o := order.Order{
		UserID:            userID,
		Status:            order.StatusPending,
		Subtotal:          totals.Subtotal,
		DiscountTotal:     totals.Discount,
		Total:             totals.Total,
		DiscountBreakdown: meta,
	}
	if err := s.Orders.Create(ctx, &o); err != nil {
		return Output{}, err
	}

	if s.Events != nil {
		campaigns := make([]string, 0, len(c.Breakdown))
		for id := range c.Breakdown {
			campaigns = append(campaigns, strconv.FormatInt(id, 10))
		}
		payload := OrderCreatedPayload{OrderID: o.ID, Status: string(o.Status), Campaigns: campaigns}
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, strconv.FormatInt(o.ID, 10), payload); err != nil {
			s.Logger.Error().Err(err).Int64("order_id", o.ID).Msg("order created event dispatch failed")
		}
	}
	return Output{Order: o, Totals: totals}, nil
}
