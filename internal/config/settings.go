package config

import (
	"strings"

	"github.com/knadh/koanf/v2"
)

// PriorityMethod selects which campaign wins when several apply to a product.
type PriorityMethod string

const (
	// ApplyHighest keeps the candidate with the lowest resulting price.
	ApplyHighest PriorityMethod = "apply_highest"
	// ApplyLowest keeps the candidate with the highest resulting price.
	ApplyLowest PriorityMethod = "apply_lowest"
	// ApplyFirst keeps the first applicable campaign.
	ApplyFirst PriorityMethod = "apply_first"
)

// DefaultNextDiscountFormat is the upsell template used when none is configured.
const DefaultNextDiscountFormat = "Buy {remaining_amount} more and get {discount_percentage} off!"

// Settings enumerates every storefront option the discount engine reads.
type Settings struct {
	PriorityMethod        PriorityMethod `json:"product_priorityMethod"`
	ExcludeSaleItems      bool           `json:"product_excludeSaleItems"`
	ShowDiscountBreakdown bool           `json:"cart_showDiscountBreakdown"`
	ShowNextDiscountBar   bool           `json:"cart_showNextDiscountBar"`
	NextDiscountFormat    string         `json:"cart_nextDiscountFormat"`
}

// DefaultSettings returns the option values used on a fresh install.
func DefaultSettings() Settings {
	return Settings{
		PriorityMethod:      ApplyHighest,
		ShowNextDiscountBar: true,
		NextDiscountFormat:  DefaultNextDiscountFormat,
	}
}

// ParsePriorityMethod normalises value, falling back to ApplyHighest for
// anything unrecognised.
func ParsePriorityMethod(value string) PriorityMethod {
	switch PriorityMethod(strings.ToLower(strings.TrimSpace(value))) {
	case ApplyLowest:
		return ApplyLowest
	case ApplyFirst:
		return ApplyFirst
	default:
		return ApplyHighest
	}
}

// Normalize replaces empty or unknown values with their defaults.
func (s Settings) Normalize() Settings {
	s.PriorityMethod = ParsePriorityMethod(string(s.PriorityMethod))
	if strings.TrimSpace(s.NextDiscountFormat) == "" {
		s.NextDiscountFormat = DefaultNextDiscountFormat
	}
	return s
}

func loadSettings(k *koanf.Koanf) Settings {
	def := DefaultSettings()
	s := Settings{
		PriorityMethod:        ParsePriorityMethod(k.String("CAMPAIGNBAY_PRODUCT_PRIORITY_METHOD")),
		ExcludeSaleItems:      parseBoolDefault(k.String("CAMPAIGNBAY_PRODUCT_EXCLUDE_SALE_ITEMS"), def.ExcludeSaleItems),
		ShowDiscountBreakdown: parseBoolDefault(k.String("CAMPAIGNBAY_CART_SHOW_DISCOUNT_BREAKDOWN"), def.ShowDiscountBreakdown),
		ShowNextDiscountBar:   parseBoolDefault(k.String("CAMPAIGNBAY_CART_SHOW_NEXT_DISCOUNT_BAR"), def.ShowNextDiscountBar),
		NextDiscountFormat:    k.String("CAMPAIGNBAY_CART_NEXT_DISCOUNT_FORMAT"),
	}
	return s.Normalize()
}
