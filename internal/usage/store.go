package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/audit"
	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
)

// Log types stored in campaign_logs.
const (
	LogTypeSale     = "sale"
	LogTypeActivity = "activity"
)

// SaleEntry is the write model for one (order, campaign) usage row.
type SaleEntry struct {
	CampaignID    int64
	OrderID       int64
	UserID        *string
	BaseTotal     decimal.Decimal
	TotalDiscount decimal.Decimal
	OrderTotal    decimal.Decimal
	OrderStatus   string
	ExtraData     []byte
}

// Log is a stored campaign log row.
type Log struct {
	ID            int64           `json:"log_id"`
	CampaignID    int64           `json:"campaign_id"`
	OrderID       *int64          `json:"order_id,omitempty"`
	UserID        *string         `json:"user_id,omitempty"`
	LogType       string          `json:"log_type"`
	BaseTotal     decimal.Decimal `json:"base_total"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	OrderTotal    decimal.Decimal `json:"order_total"`
	OrderStatus   *string         `json:"order_status,omitempty"`
	ExtraData     json.RawMessage `json:"extra_data,omitempty"`
	CreatedAt     time.Time       `json:"timestamp"`
}

// Filter narrows ListLogs.
type Filter struct {
	CampaignID int64
	LogType    string
}

// PostgresStore reads and writes campaign_logs.
type PostgresStore struct {
	DB db.DBTX
}

const upsertSaleSQL = `INSERT INTO campaign_logs
    (campaign_id, order_id, user_id, log_type, base_total, total_discount, order_total, order_status, extra_data)
VALUES ($1, $2, $3, 'sale', $4::numeric, $5::numeric, $6::numeric, $7, $8)
ON CONFLICT (order_id, campaign_id) WHERE log_type = 'sale'
DO UPDATE SET
    order_status   = EXCLUDED.order_status,
    base_total     = EXCLUDED.base_total,
    total_discount = EXCLUDED.total_discount,
    order_total    = EXCLUDED.order_total,
    extra_data     = EXCLUDED.extra_data,
    created_at     = now()
RETURNING (xmax = 0) AS inserted`

const countOrdersSQL = `SELECT COUNT(DISTINCT order_id)
FROM campaign_logs
WHERE campaign_id = $1
  AND log_type = 'sale'
  AND order_status IN ('processing', 'completed')`

const insertActivitySQL = `INSERT INTO campaign_logs (campaign_id, user_id, log_type, extra_data)
VALUES ($1, $2, 'activity', $3)`

const listLogsSQL = `SELECT id, campaign_id, order_id, user_id, log_type,
       base_total::text, total_discount::text, order_total::text,
       order_status, extra_data, created_at, COUNT(*) OVER() AS total
FROM campaign_logs
WHERE ($1::bigint = 0 OR campaign_id = $1)
  AND ($2::text = '' OR log_type = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`

func (s *PostgresStore) ready() error {
	if s == nil || s.DB == nil {
		return errors.New("usage store not configured")
	}
	return nil
}

// UpsertSaleLog writes the row for (order, campaign), updating it in place
// when one exists. It reports whether a new row was inserted.
func (s *PostgresStore) UpsertSaleLog(ctx context.Context, e SaleEntry) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	var inserted bool
	err := s.DB.QueryRow(ctx, upsertSaleSQL,
		e.CampaignID, e.OrderID, e.UserID,
		e.BaseTotal.String(), e.TotalDiscount.String(), e.OrderTotal.String(),
		e.OrderStatus, e.ExtraData,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert usage log order=%d campaign=%d: %w", e.OrderID, e.CampaignID, err)
	}
	return inserted, nil
}

// CountCampaignOrders counts distinct paid orders attributed to campaignID.
func (s *PostgresStore) CountCampaignOrders(ctx context.Context, campaignID int64) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var n int64
	if err := s.DB.QueryRow(ctx, countOrdersSQL, campaignID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count usage campaign=%d: %w", campaignID, err)
	}
	return int(n), nil
}

// InsertActivityLog stores an audit entry as an activity row.
func (s *PostgresStore) InsertActivityLog(ctx context.Context, entry audit.Entry) error {
	if err := s.ready(); err != nil {
		return err
	}
	extra := entry.ExtraData
	if len(extra) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(extra, &payload); err == nil {
			payload["actor"] = string(entry.ActorKind)
			if data, err := json.Marshal(payload); err == nil {
				extra = data
			}
		}
	}
	if _, err := s.DB.Exec(ctx, insertActivitySQL, entry.CampaignID, entry.UserID, extra); err != nil {
		return fmt.Errorf("insert activity log campaign=%d: %w", entry.CampaignID, err)
	}
	return nil
}

// ListLogs returns one page of log rows, newest first, and the total match count.
func (s *PostgresStore) ListLogs(ctx context.Context, f Filter, limit, offset int) ([]Log, int, error) {
	if err := s.ready(); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, listLogsSQL, f.CampaignID, f.LogType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	var (
		out   []Log
		total int64
	)
	for rows.Next() {
		var (
			l                      Log
			base, discount, ordTot string
			extra                  []byte
		)
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.OrderID, &l.UserID, &l.LogType,
			&base, &discount, &ordTot, &l.OrderStatus, &extra, &l.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan usage log: %w", err)
		}
		l.BaseTotal, _ = decimal.NewFromString(base)
		l.TotalDiscount, _ = decimal.NewFromString(discount)
		l.OrderTotal, _ = decimal.NewFromString(ordTot)
		l.ExtraData = extra
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate usage logs: %w", err)
	}
	return out, int(total), nil
}
