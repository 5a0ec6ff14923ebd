package campaign

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dipta-sdd/campaignbay-sub002/internal/audit"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
)

// UsageCounter runs the authoritative distinct order count for a campaign.
type UsageCounter interface {
	CountCampaignOrders(ctx context.Context, campaignID int64) (int, error)
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// ActivityRecorder writes campaign activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, act audit.Activity) error
}

// Service implements campaign construction, mutation and usage accounting.
type Service struct {
	Store    Store
	Usage    UsageCounter
	Catalog  catalog.Lookup
	Events   Emitter
	Activity ActivityRecorder
	Location *time.Location
	Logger   zerolog.Logger
}

func (s *Service) ready() error {
	if s == nil || s.Store == nil {
		return errors.New("campaign service not configured")
	}
	return nil
}

// Get loads a campaign and resolves its applicable products.
func (s *Service) Get(ctx context.Context, id int64) (*Campaign, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolve(ctx, c)
	return c, nil
}

// LoadUsage loads campaign id without resolving targeting and returns it
// together with its usage count.
func (s *Service) LoadUsage(ctx context.Context, id int64) (*Campaign, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	n, err := s.UsageCount(ctx, c)
	if err != nil {
		return nil, 0, err
	}
	return c, n, nil
}

// List returns every live campaign without resolving targeting.
func (s *Service) List(ctx context.Context) ([]*Campaign, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.Store.List(ctx)
}

// Create validates in, persists the sanitised campaign and announces it.
func (s *Service) Create(ctx context.Context, in Input) (*Campaign, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	status, err := validateCreate(in, s.Location)
	if err != nil {
		return nil, err
	}
	c := &Campaign{Status: status, TargetType: TargetEntireStore}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	c.Status = status
	if c.Status == StatusScheduled {
		c.ScheduleEnabled = true
	}
	if err := checkCampaign(c); err != nil {
		return nil, err
	}
	if err := s.Store.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.resolve(ctx, c)
	s.announce(ctx, c.ID, audit.ActionCreated, false)
	return c, nil
}

// Update applies only the fields present in in.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Campaign, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := validateUpdate(in, s.Location); err != nil {
		return nil, err
	}
	c, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(c, in); err != nil {
		return nil, err
	}
	if in.Status != nil && c.Status == StatusScheduled {
		c.ScheduleEnabled = true
	}
	if err := checkCampaign(c); err != nil {
		return nil, err
	}
	if err := s.Store.Update(ctx, c); err != nil {
		return nil, err
	}
	s.resolve(ctx, c)
	s.announce(ctx, c.ID, audit.ActionUpdated, false)
	return c, nil
}

// Delete removes a campaign; force skips the soft delete.
func (s *Service) Delete(ctx context.Context, id int64, force bool) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id, force); err != nil {
		return err
	}
	s.announce(ctx, id, audit.ActionDeleted, force)
	return nil
}

// UsageCount returns the number of distinct sale orders attributed to c.
// The first call per instance runs the count and writes it back to storage;
// later calls return the memoised value. Not safe for concurrent use on the
// same instance.
func (s *Service) UsageCount(ctx context.Context, c *Campaign) (int, error) {
	if c == nil {
		return 0, errors.New("campaign is nil")
	}
	if c.usageResolved && c.UsageCount != nil {
		return *c.UsageCount, nil
	}
	n, err := s.RefreshUsageCount(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	c.UsageCount = &n
	c.usageResolved = true
	return n, nil
}

// RefreshUsageCount recounts usage for id and stores the result on the row.
func (s *Service) RefreshUsageCount(ctx context.Context, id int64) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if s.Usage == nil {
		return 0, errors.New("campaign usage counter not configured")
	}
	n, err := s.Usage.CountCampaignOrders(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("count usage for campaign %d: %w", id, err)
	}
	if err := s.Store.SetUsageCount(ctx, id, n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Service) resolve(ctx context.Context, c *Campaign) {
	if err := c.Resolve(ctx, s.Catalog); err != nil {
		s.Logger.Warn().Err(err).Int64("campaign_id", c.ID).Msg("campaign targeting partially resolved")
	}
}

func (s *Service) announce(ctx context.Context, id int64, action string, force bool) {
	topic := events.TopicCampaignSaved
	if action == audit.ActionDeleted {
		topic = events.TopicCampaignDeleted
	}
	if s.Events != nil {
		payload := events.CampaignPayload{CampaignID: id, Action: action, Force: force}
		if _, err := s.Events.Emit(ctx, topic, strconv.FormatInt(id, 10), payload); err != nil {
			s.Logger.Error().Err(err).Int64("campaign_id", id).Str("topic", topic).Msg("campaign event dispatch failed")
		}
	}
	if s.Activity != nil {
		act := audit.Activity{CampaignID: id, Action: action, Message: "Campaign " + action}
		if err := s.Activity.Record(ctx, act); err != nil {
			s.Logger.Error().Err(err).Int64("campaign_id", id).Msg("campaign activity log failed")
		}
	}
}

// apply sanitises every present field of in onto c.
func (s *Service) apply(c *Campaign, in Input) error {
	if in.Title != nil {
		c.Title = textOf(in.Title)
	}
	if in.Type != nil {
		c.Type = Type(keyOf(in.Type))
	}
	if in.Status != nil {
		c.Status = Status(keyOf(in.Status))
	}
	if in.DiscountType != nil {
		c.DiscountType = DiscountType(keyOf(in.DiscountType))
	}
	if in.DiscountValue != nil {
		c.DiscountValue = in.DiscountValue.Decimal()
	}
	if in.TargetType != nil {
		c.TargetType = TargetType(keyOf(in.TargetType))
	}
	if in.TargetIDs != nil {
		c.TargetIDs = sanitizeIDs(*in.TargetIDs)
	}
	if c.TargetType == TargetEntireStore {
		c.TargetIDs = []int64{}
	}
	if in.IsExclude != nil {
		c.IsExclude = bool(*in.IsExclude)
	}
	if in.ExcludeSaleItems != nil {
		c.ExcludeSaleItems = bool(*in.ExcludeSaleItems)
	}
	if in.ScheduleEnabled != nil {
		c.ScheduleEnabled = bool(*in.ScheduleEnabled)
	}
	if in.StartAt != nil {
		c.StartAt, _ = parseDatetime(*in.StartAt, s.Location)
	}
	if in.EndAt != nil {
		c.EndAt, _ = parseDatetime(*in.EndAt, s.Location)
	}
	if in.UsageLimit != nil {
		if in.UsageLimit.Empty() || in.UsageLimit.Int() <= 0 {
			c.UsageLimit = nil
		} else {
			limit := in.UsageLimit.Int()
			c.UsageLimit = &limit
		}
	}
	if in.Tiers != nil || in.Type != nil {
		raw := in.Tiers
		if raw == nil {
			raw, _ = c.Tiers.MarshalJSON()
		}
		tiers, err := sanitizeTiers(c.Type, raw)
		if err != nil {
			return invalid("tiers", "tiers must be a list")
		}
		c.Tiers = tiers
	}
	return nil
}
