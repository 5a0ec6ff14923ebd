package campaign

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Number accepts a JSON number or a numeric string. Anything else decodes
// to the empty value, which coerces to zero.
type Number string

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	*n = Number(data)
	return nil
}

// Empty reports whether no usable value was supplied.
func (n Number) Empty() bool { return strings.TrimSpace(string(n)) == "" }

// Decimal coerces n to a non-negative decimal.
func (n Number) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(n)))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Int coerces n to a non-negative integer, truncating fractions.
func (n Number) Int() int {
	return int(n.Decimal().IntPart())
}

// Flag accepts booleans, 0/1 and the usual yes/no strings.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Input carries a create or partial update request. Nil fields are absent.
type Input struct {
	Title            *string         `json:"title"`
	Status           *string         `json:"status"`
	Type             *string         `json:"type"`
	DiscountType     *string         `json:"discount_type"`
	DiscountValue    *Number         `json:"discount_value"`
	Tiers            json.RawMessage `json:"tiers"`
	TargetType       *string         `json:"target_type"`
	TargetIDs        *[]Number       `json:"target_ids"`
	IsExclude        *Flag           `json:"is_exclude"`
	ExcludeSaleItems *Flag           `json:"exclude_sale_items"`
	ScheduleEnabled  *Flag           `json:"schedule_enabled"`
	StartAt          *string         `json:"start_datetime"`
	EndAt            *string         `json:"end_datetime"`
	UsageLimit       *Number         `json:"usage_limit"`
}

// sanitizeKey lowercases s and drops every rune outside [a-z0-9_-].
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sanitizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func keyOf(p *string) string {
	if p == nil {
		return ""
	}
	return sanitizeKey(*p)
}

func textOf(p *string) string {
	if p == nil {
		return ""
	}
	return sanitizeText(*p)
}

func sanitizeIDs(in []Number) []int64 {
	out := make([]int64, 0, len(in))
	for _, n := range in {
		id, err := strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out = append(out, id)
	}
	return out
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseDatetime reads s in loc (unless it carries an offset) and returns UTC.
func parseDatetime(s string, loc *time.Location) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range datetimeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			u := t.UTC()
			return &u, true
		}
	}
	return nil, false
}

// rawTier is the loosely typed wire form of every tier shape.
type rawTier struct {
	ID          Number `json:"id"`
	Min         Number `json:"min"`
	Max         Number `json:"max"`
	Value       Number `json:"value"`
	Type        string `json:"type"`
	Quantity    Number `json:"quantity"`
	Total       Number `json:"total"`
	BuyQuantity Number `json:"buy_quantity"`
	GetQuantity Number `json:"get_quantity"`
}

// sanitizeTiers coerces each tier of raw into the shape selected by typ.
func sanitizeTiers(typ Type, raw json.RawMessage) (Tiers, error) {
	var out Tiers
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return out, nil
	}
	var items []rawTier
	if err := json.Unmarshal(raw, &items); err != nil {
		return out, err
	}
	for _, item := range items {
		id := item.ID.Int()
		dt := DiscountType(sanitizeKey(item.Type))
		if dt == "" {
			dt = DiscountPercentage
		}
		switch typ {
		case TypeQuantity:
			out.Quantity = append(out.Quantity, QuantityTier{ID: id, Min: item.Min.Int(), Max: item.Max.Int(), Value: item.Value.Decimal(), Type: dt})
		case TypeEarlyBird:
			out.EarlyBird = append(out.EarlyBird, EarlyBirdTier{ID: id, Quantity: item.Quantity.Int(), Value: item.Value.Decimal(), Type: dt, Total: item.Total.Int()})
		case TypeBogo:
			out.Bogo = append(out.Bogo, BogoTier{ID: id, BuyQuantity: item.BuyQuantity.Int(), GetQuantity: item.GetQuantity.Int()})
		}
	}
	return out, nil
}
