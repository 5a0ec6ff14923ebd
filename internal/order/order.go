package order

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the externally driven order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusOnHold     Status = "on-hold"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
	StatusFailed     Status = "failed"
)

// ParseStatus normalises s and reports whether it is a known status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusProcessing, StatusOnHold, StatusCompleted, StatusCancelled, StatusRefunded, StatusFailed:
		return st, true
	}
	return "", false
}

// Order is a placed order with its persisted discount breakdown meta.
type Order struct {
	ID                int64           `json:"id"`
	UserID            *string         `json:"user_id,omitempty"`
	Status            Status          `json:"status"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountTotal     decimal.Decimal `json:"discount_total"`
	Total             decimal.Decimal `json:"total"`
	DiscountBreakdown json.RawMessage `json:"discount_breakdown,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
