package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
)

// Store is the persistence boundary for campaigns.
type Store interface {
	Get(ctx context.Context, id int64) (*Campaign, error)
	List(ctx context.Context) ([]*Campaign, error)
	Insert(ctx context.Context, c *Campaign) error
	Update(ctx context.Context, c *Campaign) error
	Delete(ctx context.Context, id int64, force bool) error
	SetUsageCount(ctx context.Context, id int64, count int) error
}

// ErrMalformed marks a stored row whose discount data cannot be decoded.
var ErrMalformed = errors.New("malformed campaign row")

// PostgresStore implements Store on the campaigns table.
type PostgresStore struct {
	DB     db.DBTX
	Logger zerolog.Logger
}

const campaignColumns = `id, title, status, campaign_type, discount_type, discount_value::text,
       target_type, target_ids, is_exclude, exclude_sale_items, schedule_enabled,
       start_at, end_at, usage_limit, usage_count, tiers, created_at, updated_at`

const getCampaignSQL = `SELECT ` + campaignColumns + `
FROM campaigns
WHERE id = $1 AND deleted_at IS NULL`

const listCampaignsSQL = `SELECT ` + campaignColumns + `
FROM campaigns
WHERE deleted_at IS NULL
ORDER BY id`

const insertCampaignSQL = `INSERT INTO campaigns (
    title, status, campaign_type, discount_type, discount_value, target_type, target_ids,
    is_exclude, exclude_sale_items, schedule_enabled, start_at, end_at, usage_limit, tiers
) VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id, created_at, updated_at`

const updateCampaignSQL = `UPDATE campaigns SET
    title = $2, status = $3, campaign_type = $4, discount_type = $5, discount_value = $6::numeric,
    target_type = $7, target_ids = $8, is_exclude = $9, exclude_sale_items = $10,
    schedule_enabled = $11, start_at = $12, end_at = $13, usage_limit = $14, tiers = $15,
    updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING updated_at`

const softDeleteCampaignSQL = `UPDATE campaigns SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`

const hardDeleteCampaignSQL = `DELETE FROM campaigns WHERE id = $1`

const setUsageCountSQL = `UPDATE campaigns SET usage_count = $2 WHERE id = $1`

// Get loads one live campaign.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Campaign, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("campaign store not configured")
	}
	c, err := scanCampaign(s.DB.QueryRow(ctx, getCampaignSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get campaign %d: %w", id, err)
	}
	return c, nil
}

// List returns every live campaign regardless of status. Rows with
// undecodable discount data are logged and left out.
func (s *PostgresStore) List(ctx context.Context) ([]*Campaign, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("campaign store not configured")
	}
	rows, err := s.DB.Query(ctx, listCampaignsSQL)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()
	var out []*Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if errors.Is(err, ErrMalformed) {
			s.Logger.Error().Err(err).Msg("skipping malformed campaign")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

// Insert writes c and fills in its id and timestamps.
func (s *PostgresStore) Insert(ctx context.Context, c *Campaign) error {
	if s == nil || s.DB == nil {
		return errors.New("campaign store not configured")
	}
	tiers, err := json.Marshal(c.Tiers)
	if err != nil {
		return fmt.Errorf("encode tiers: %w", err)
	}
	err = s.DB.QueryRow(ctx, insertCampaignSQL,
		c.Title, string(c.Status), string(c.Type), nullableString(string(c.DiscountType)), c.DiscountValue.String(),
		string(c.TargetType), targetIDs(c.TargetIDs), c.IsExclude, c.ExcludeSaleItems, c.ScheduleEnabled,
		c.StartAt, c.EndAt, c.UsageLimit, tiers,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of c.
func (s *PostgresStore) Update(ctx context.Context, c *Campaign) error {
	if s == nil || s.DB == nil {
		return errors.New("campaign store not configured")
	}
	tiers, err := json.Marshal(c.Tiers)
	if err != nil {
		return fmt.Errorf("encode tiers: %w", err)
	}
	err = s.DB.QueryRow(ctx, updateCampaignSQL,
		c.ID, c.Title, string(c.Status), string(c.Type), nullableString(string(c.DiscountType)), c.DiscountValue.String(),
		string(c.TargetType), targetIDs(c.TargetIDs), c.IsExclude, c.ExcludeSaleItems, c.ScheduleEnabled,
		c.StartAt, c.EndAt, c.UsageLimit, tiers,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update campaign %d: %w", c.ID, err)
	}
	return nil
}

// Delete soft deletes by default; force removes the row.
func (s *PostgresStore) Delete(ctx context.Context, id int64, force bool) error {
	if s == nil || s.DB == nil {
		return errors.New("campaign store not configured")
	}
	query := softDeleteCampaignSQL
	if force {
		query = hardDeleteCampaignSQL
	}
	tag, err := s.DB.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete campaign %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUsageCount caches the recomputed usage count on the row.
func (s *PostgresStore) SetUsageCount(ctx context.Context, id int64, count int) error {
	if s == nil || s.DB == nil {
		return errors.New("campaign store not configured")
	}
	if _, err := s.DB.Exec(ctx, setUsageCountSQL, id, count); err != nil {
		return fmt.Errorf("set usage count for campaign %d: %w", id, err)
	}
	return nil
}

func scanCampaign(row pgx.Row) (*Campaign, error) {
	var (
		c            Campaign
		status, typ  string
		discountType *string
		value        string
		target       string
		tiers        []byte
		startAt      *time.Time
		endAt        *time.Time
	)
	err := row.Scan(
		&c.ID, &c.Title, &status, &typ, &discountType, &value,
		&target, &c.TargetIDs, &c.IsExclude, &c.ExcludeSaleItems, &c.ScheduleEnabled,
		&startAt, &endAt, &c.UsageLimit, &c.UsageCount, &tiers, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	c.Type = Type(typ)
	c.TargetType = TargetType(target)
	if discountType != nil {
		c.DiscountType = DiscountType(*discountType)
	}
	if c.DiscountValue, err = decimal.NewFromString(value); err != nil {
		return nil, fmt.Errorf("%w %d: discount value: %w", ErrMalformed, c.ID, err)
	}
	c.StartAt, c.EndAt = startAt, endAt
	if c.Tiers, err = DecodeTiers(c.Type, tiers); err != nil {
		return nil, fmt.Errorf("%w %d: %w", ErrMalformed, c.ID, err)
	}
	return &c, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func targetIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
