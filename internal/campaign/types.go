package campaign

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type selects the pricing strategy and the tier shape of a campaign.
type Type string

const (
	TypeScheduled Type = "scheduled"
	TypeQuantity  Type = "quantity"
	TypeEarlyBird Type = "earlybird"
	TypeBogo      Type = "bogo"
)

// Valid reports whether t is a known campaign type.
func (t Type) Valid() bool {
	switch t {
	case TypeScheduled, TypeQuantity, TypeEarlyBird, TypeBogo:
		return true
	}
	return false
}

// Status is the lifecycle state of a campaign.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusScheduled Status = "scheduled"
	StatusExpired   Status = "expired"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusScheduled, StatusExpired:
		return true
	}
	return false
}

// TargetType selects how a campaign picks the products it covers.
type TargetType string

const (
	TargetEntireStore TargetType = "entire_store"
	TargetCategory    TargetType = "category"
	TargetProduct     TargetType = "product"
	TargetTag         TargetType = "tag"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	switch t {
	case TargetEntireStore, TargetCategory, TargetProduct, TargetTag:
		return true
	}
	return false
}

// DiscountType is either a percentage off or a fixed amount off.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Valid reports whether d is a known discount type.
func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFixed
}

// QuantityTier maps a unit range to a discount. Max of zero means open ended.
type QuantityTier struct {
	ID    int             `json:"id"`
	Min   int             `json:"min" validate:"gte=0"`
	Max   int             `json:"max" validate:"gte=0"`
	Value decimal.Decimal `json:"value"`
	Type  DiscountType    `json:"type" validate:"oneof=percentage fixed"`
}

// Contains reports whether qty falls inside the tier range.
func (t QuantityTier) Contains(qty int) bool {
	return qty >= t.Min && (t.Max == 0 || qty <= t.Max)
}

// EarlyBirdTier discounts the first Quantity sales of a campaign.
type EarlyBirdTier struct {
	ID       int             `json:"id"`
	Quantity int             `json:"quantity" validate:"gte=0"`
	Value    decimal.Decimal `json:"value"`
	Type     DiscountType    `json:"type" validate:"oneof=percentage fixed"`
	Total    int             `json:"total" validate:"gte=0"`
}

// BogoTier grants GetQuantity free units for every BuyQuantity bought.
type BogoTier struct {
	ID          int `json:"id"`
	BuyQuantity int `json:"buy_quantity" validate:"gte=1"`
	GetQuantity int `json:"get_quantity" validate:"gte=1"`
}

// Tiers holds the tier list of a campaign. Only the slice matching the
// campaign type is populated.
type Tiers struct {
	Quantity  []QuantityTier
	EarlyBird []EarlyBirdTier
	Bogo      []BogoTier
}

// Len returns the number of tiers in whichever list is populated.
func (t Tiers) Len() int {
	return len(t.Quantity) + len(t.EarlyBird) + len(t.Bogo)
}

// MarshalJSON emits the populated tier list as a plain array.
func (t Tiers) MarshalJSON() ([]byte, error) {
	switch {
	case len(t.Quantity) > 0:
		return json.Marshal(t.Quantity)
	case len(t.EarlyBird) > 0:
		return json.Marshal(t.EarlyBird)
	case len(t.Bogo) > 0:
		return json.Marshal(t.Bogo)
	}
	return []byte("[]"), nil
}

// DecodeTiers parses a tier array using the shape dictated by typ.
func DecodeTiers(typ Type, raw []byte) (Tiers, error) {
	var t Tiers
	if len(raw) == 0 || string(raw) == "null" {
		return t, nil
	}
	var err error
	switch typ {
	case TypeQuantity:
		err = json.Unmarshal(raw, &t.Quantity)
	case TypeEarlyBird:
		err = json.Unmarshal(raw, &t.EarlyBird)
	case TypeBogo:
		err = json.Unmarshal(raw, &t.Bogo)
	default:
		return t, nil
	}
	if err != nil {
		return Tiers{}, fmt.Errorf("decode %s tiers: %w", typ, err)
	}
	return t, nil
}

// Campaign is a single discount rule together with its resolved targeting.
type Campaign struct {
	ID               int64           `json:"id"`
	Title            string          `json:"title"`
	Status           Status          `json:"status"`
	Type             Type            `json:"type"`
	DiscountType     DiscountType    `json:"discount_type,omitempty"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	Tiers            Tiers           `json:"tiers"`
	TargetType       TargetType      `json:"target_type"`
	TargetIDs        []int64         `json:"target_ids"`
	IsExclude        bool            `json:"is_exclude"`
	ExcludeSaleItems bool            `json:"exclude_sale_items"`
	ScheduleEnabled  bool            `json:"schedule_enabled"`
	StartAt          *time.Time      `json:"start_datetime,omitempty"`
	EndAt            *time.Time      `json:"end_datetime,omitempty"`
	UsageLimit       *int            `json:"usage_limit"`
	UsageCount       *int            `json:"usage_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// ApplicableProductIDs is derived by Resolve and never stored.
	ApplicableProductIDs []int64 `json:"applicable_product_ids,omitempty"`

	usageResolved bool
}

// UnmarshalJSON decodes the tier array according to the campaign type.
func (c *Campaign) UnmarshalJSON(data []byte) error {
	type plain Campaign
	aux := struct {
		*plain
		Tiers json.RawMessage `json:"tiers"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	tiers, err := DecodeTiers(c.Type, aux.Tiers)
	if err != nil {
		return err
	}
	c.Tiers = tiers
	return nil
}

// InWindow reports whether now falls inside the campaign schedule. Campaigns
// without scheduling enabled are always in window.
func (c *Campaign) InWindow(now time.Time) bool {
	if !c.ScheduleEnabled {
		return true
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}

// UsageExhausted reports whether the cached usage count has reached the limit.
func (c *Campaign) UsageExhausted() bool {
	if c.UsageLimit == nil || *c.UsageLimit <= 0 || c.UsageCount == nil {
		return false
	}
	return *c.UsageCount >= *c.UsageLimit
}
