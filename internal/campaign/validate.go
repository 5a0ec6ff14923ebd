package campaign

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrNotFound is returned when a campaign id does not resolve to a live row.
var ErrNotFound = errors.New("campaign: not found")

// ValidationError reports a single rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func tierValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateCreate checks required fields in a fixed order and returns the
// first failure. It resolves the default status for scheduled campaigns.
func validateCreate(in Input, loc *time.Location) (Status, error) {
	if textOf(in.Title) == "" {
		return "", invalid("title", "title is required")
	}
	typ := Type(keyOf(in.Type))
	if typ == "" {
		return "", invalid("type", "campaign type is required")
	}
	if !typ.Valid() {
		return "", invalid("type", "invalid campaign type")
	}
	status := Status(keyOf(in.Status))
	if status == "" {
		if typ != TypeScheduled {
			return "", invalid("status", "status is required")
		}
		status = StatusScheduled
	}
	if !status.Valid() {
		return "", invalid("status", "invalid status")
	}
	if status == StatusScheduled {
		if err := requireDatetime("start_datetime", in.StartAt, loc); err != nil {
			return "", err
		}
		if err := requireDatetime("end_datetime", in.EndAt, loc); err != nil {
			return "", err
		}
	}
	if typ == TypeScheduled {
		if in.DiscountValue == nil || in.DiscountValue.Empty() {
			return "", invalid("discount_value", "discount value is required")
		}
		dt := DiscountType(keyOf(in.DiscountType))
		if dt == "" {
			return "", invalid("discount_type", "discount type is required")
		}
		if !dt.Valid() {
			return "", invalid("discount_type", "invalid discount type")
		}
		return status, nil
	}
	target := TargetType(keyOf(in.TargetType))
	if target == "" {
		return "", invalid("target_type", "target type is required")
	}
	if !target.Valid() {
		return "", invalid("target_type", "invalid target type")
	}
	if target != TargetEntireStore && (in.TargetIDs == nil || len(sanitizeIDs(*in.TargetIDs)) == 0) {
		return "", invalid("target_ids", "target ids are required")
	}
	return status, nil
}

// validateUpdate checks only the fields present in in.
func validateUpdate(in Input, loc *time.Location) error {
	if in.Title != nil && textOf(in.Title) == "" {
		return invalid("title", "title cannot be empty")
	}
	if in.Type != nil && !Type(keyOf(in.Type)).Valid() {
		return invalid("type", "invalid campaign type")
	}
	if in.Status != nil && !Status(keyOf(in.Status)).Valid() {
		return invalid("status", "invalid status")
	}
	if in.DiscountType != nil && !DiscountType(keyOf(in.DiscountType)).Valid() {
		return invalid("discount_type", "invalid discount type")
	}
	if in.TargetType != nil && !TargetType(keyOf(in.TargetType)).Valid() {
		return invalid("target_type", "invalid target type")
	}
	if in.StartAt != nil && *in.StartAt != "" {
		if _, ok := parseDatetime(*in.StartAt, loc); !ok {
			return invalid("start_datetime", "invalid datetime")
		}
	}
	if in.EndAt != nil && *in.EndAt != "" {
		if _, ok := parseDatetime(*in.EndAt, loc); !ok {
			return invalid("end_datetime", "invalid datetime")
		}
	}
	return nil
}

// checkCampaign enforces invariants that hold after create or update.
func checkCampaign(c *Campaign) error {
	if c.Status == StatusScheduled && (c.StartAt == nil || c.EndAt == nil) {
		return invalid("start_datetime", "scheduled campaigns need a start and end datetime")
	}
	if c.StartAt != nil && c.EndAt != nil && c.EndAt.Before(*c.StartAt) {
		return invalid("end_datetime", "end datetime must be after start datetime")
	}
	if c.TargetType != TargetEntireStore && len(c.TargetIDs) == 0 && c.Type != TypeScheduled {
		return invalid("target_ids", "target ids are required")
	}
	v := tierValidator()
	for i, t := range c.Tiers.Quantity {
		if err := v.Struct(t); err != nil {
			return invalid(fmt.Sprintf("tiers[%d]", i), err.Error())
		}
		if t.Max != 0 && t.Max < t.Min {
			return invalid(fmt.Sprintf("tiers[%d]", i), "max must not be below min")
		}
	}
	for i, t := range c.Tiers.EarlyBird {
		if err := v.Struct(t); err != nil {
			return invalid(fmt.Sprintf("tiers[%d]", i), err.Error())
		}
	}
	for i, t := range c.Tiers.Bogo {
		if err := v.Struct(t); err != nil {
			return invalid(fmt.Sprintf("tiers[%d]", i), err.Error())
		}
	}
	return nil
}

func requireDatetime(field string, value *string, loc *time.Location) error {
	if value == nil || *value == "" {
		return invalid(field, field+" is required for scheduled campaigns")
	}
	if _, ok := parseDatetime(*value, loc); !ok {
		return invalid(field, "invalid datetime")
	}
	return nil
}
