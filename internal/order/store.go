package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dipta-sdd/campaignbay-sub002/internal/db"
)

// PostgresStore persists orders.
type PostgresStore struct {
	DB db.DBTX
}

const insertOrderSQL = `INSERT INTO orders (user_id, status, subtotal, discount_total, total, discount_breakdown)
VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6)
RETURNING id, created_at, updated_at`

const getOrderSQL = `SELECT id, user_id, status, subtotal::text, discount_total::text, total::text,
       discount_breakdown, created_at, updated_at
FROM orders
WHERE id = $1`

const updateStatusSQL = `WITH prev AS (
    SELECT id, status FROM orders WHERE id = $1 FOR UPDATE
)
UPDATE orders o SET status = $2, updated_at = now()
FROM prev
WHERE o.id = prev.id
RETURNING prev.status`

// Create inserts o and fills in its id and timestamps.
func (s *PostgresStore) Create(ctx context.Context, o *Order) error {
	if s == nil || s.DB == nil {
		return errors.New("order store not configured")
	}
	var breakdown []byte
	if len(o.DiscountBreakdown) > 0 {
		breakdown = o.DiscountBreakdown
	}
	err := s.DB.QueryRow(ctx, insertOrderSQL,
		o.UserID, string(o.Status), o.Subtotal.String(), o.DiscountTotal.String(), o.Total.String(), breakdown,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get loads an order by id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (Order, error) {
	if s == nil || s.DB == nil {
		return Order{}, errors.New("order store not configured")
	}
	var (
		o                         Order
		status                    string
		subtotal, discount, total string
		breakdown                 []byte
	)
	err := s.DB.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.UserID, &status, &subtotal, &discount, &total, &breakdown, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("get order %d: %w", id, err)
	}
	o.Status = Status(status)
	o.DiscountBreakdown = breakdown
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return Order{}, fmt.Errorf("order %d subtotal: %w", id, err)
	}
	if o.DiscountTotal, err = decimal.NewFromString(discount); err != nil {
		return Order{}, fmt.Errorf("order %d discount: %w", id, err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return Order{}, fmt.Errorf("order %d total: %w", id, err)
	}
	return o, nil
}

// UpdateStatus sets the order status and returns the previous one.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, status Status) (Status, error) {
	if s == nil || s.DB == nil {
		return "", errors.New("order store not configured")
	}
	var prev string
	if err := s.DB.QueryRow(ctx, updateStatusSQL, id, string(status)).Scan(&prev); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("update order %d status: %w", id, err)
	}
	return Status(prev), nil
}
