package campaign

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
)

// Resolve computes ApplicableProductIDs from the targeting rules. Catalog
// failures leave a partial (possibly empty) list in place and are returned
// so the caller can log them; the campaign remains usable.
func (c *Campaign) Resolve(ctx context.Context, lookup catalog.Lookup) error {
	c.ApplicableProductIDs = nil
	if c.TargetType == TargetEntireStore || c.TargetType == TargetTag {
		return nil
	}
	if len(c.TargetIDs) == 0 || lookup == nil {
		return nil
	}

	var seed []int64
	switch c.TargetType {
	case TargetCategory:
		ids, err := lookup.QueryProductIDsByCategory(ctx, c.TargetIDs)
		if err != nil {
			return fmt.Errorf("resolve campaign %d categories: %w", c.ID, err)
		}
		seed = ids
	case TargetProduct:
		seed = slices.Clone(c.TargetIDs)
	default:
		return nil
	}

	resolved := make([]int64, 0, len(seed))
	var errs error
	for _, id := range seed {
		resolved = append(resolved, id)
		p, err := lookup.GetProductByID(ctx, id)
		if err != nil {
			if !errors.Is(err, catalog.ErrProductNotFound) {
				errs = errors.Join(errs, fmt.Errorf("resolve campaign %d product %d: %w", c.ID, id, err))
			}
			continue
		}
		if p.IsVariable() {
			resolved = append(resolved, p.VariationIDs...)
		}
	}
	slices.Sort(resolved)
	c.ApplicableProductIDs = slices.Compact(resolved)
	return errs
}

// IsApplicableToProduct reports whether the campaign covers p. With
// IsExclude set and a non-empty target list the match is inverted.
func (c *Campaign) IsApplicableToProduct(p catalog.Product) bool {
	if p.ID <= 0 {
		return false
	}
	if c.TargetType == TargetEntireStore {
		return true
	}
	if len(c.TargetIDs) == 0 {
		return false
	}
	var matched bool
	switch c.TargetType {
	case TargetTag:
		matched = intersects(p.TagIDs, c.TargetIDs)
	case TargetCategory, TargetProduct:
		matched = slices.Contains(c.ApplicableProductIDs, p.ID)
	}
	if c.IsExclude {
		return !matched
	}
	return matched
}

// IsApplicableToID is the id-only form used where only a raw identifier is
// available. Tag campaigns need the product's tags and always report false.
func (c *Campaign) IsApplicableToID(raw string) bool {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return false
	}
	if c.TargetType == TargetTag {
		return false
	}
	return c.IsApplicableToProduct(catalog.Product{ID: id})
}

func intersects(a, b []int64) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}
