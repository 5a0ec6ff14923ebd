package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
)

type countingSource struct {
	campaigns []*campaign.Campaign
	calls     int
}

func (s *countingSource) GetActiveCampaigns(context.Context) []*campaign.Campaign {
	s.calls++
	return s.campaigns
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func flat(id int64, typ campaign.DiscountType, value string) *campaign.Campaign {
	return &campaign.Campaign{
		ID:            id,
		Title:         "flat",
		Status:        campaign.StatusActive,
		Type:          campaign.TypeScheduled,
		DiscountType:  typ,
		DiscountValue: dec(value),
		TargetType:    campaign.TargetEntireStore,
	}
}

func quantityTiers() campaign.Tiers {
	return campaign.Tiers{Quantity: []campaign.QuantityTier{
		{ID: 0, Min: 1, Max: 5, Value: dec("10"), Type: campaign.DiscountPercentage},
		{ID: 1, Min: 6, Max: 10, Value: dec("20"), Type: campaign.DiscountPercentage},
	}}
}

func product(price string) *catalog.Product {
	return &catalog.Product{ID: 42, Kind: catalog.KindSimple, Price: dec(price), RegularPrice: dec(price)}
}

func calc(method config.PriorityMethod, campaigns ...*campaign.Campaign) (*Calculator, *countingSource) {
	src := &countingSource{campaigns: campaigns}
	settings := config.DefaultSettings()
	settings.PriorityMethod = method
	return &Calculator{Campaigns: src, Settings: settings}, src
}

func TestScheduledDiscountArithmetic(t *testing.T) {
	cases := []struct {
		typ   campaign.DiscountType
		value string
		want  string
	}{
		{campaign.DiscountPercentage, "25", "75"},
		{campaign.DiscountFixed, "30", "70"},
		{campaign.DiscountFixed, "150", "0"},
		{campaign.DiscountPercentage, "150", "0"},
	}
	for _, tc := range cases {
		c, _ := calc(config.ApplyHighest, flat(1, tc.typ, tc.value))
		out := c.GetOrCalculateProductDiscount(context.Background(), product("100"))
		require.True(t, out.OnCampaign)
		require.True(t, out.BestPrice.Equal(dec(tc.want)), "%s %s: got %s", tc.typ, tc.value, out.BestPrice)
		require.Equal(t, "75.00", ApplyDiscount(dec("100"), dec("25"), campaign.DiscountPercentage).StringFixed(2))
	}
}

func TestTieBreakPolicies(t *testing.T) {
	eighty := flat(1, campaign.DiscountFixed, "20")
	ninety := flat(2, campaign.DiscountFixed, "10")

	c, _ := calc(config.ApplyHighest, ninety, eighty)
	out := c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.True(t, out.BestPrice.Equal(dec("80")))
	require.EqualValues(t, 1, out.CampaignID)

	c, _ = calc(config.ApplyLowest, eighty, ninety)
	out = c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.True(t, out.BestPrice.Equal(dec("90")))
	require.EqualValues(t, 2, out.CampaignID)

	c, _ = calc(config.ApplyFirst, ninety, eighty)
	out = c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.True(t, out.BestPrice.Equal(dec("90")))
	require.EqualValues(t, 2, out.CampaignID)

	c, _ = calc(config.ApplyFirst, eighty, ninety)
	out = c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.EqualValues(t, 1, out.CampaignID)
}

func TestEqualPricesKeepFirstCampaign(t *testing.T) {
	a := flat(1, campaign.DiscountPercentage, "20")
	b := flat(2, campaign.DiscountFixed, "20")
	for _, method := range []config.PriorityMethod{config.ApplyHighest, config.ApplyLowest, config.ApplyFirst} {
		c, _ := calc(method, a, b)
		out := c.GetOrCalculateProductDiscount(context.Background(), product("100"))
		require.EqualValues(t, 1, out.CampaignID, string(method))
	}
}

func TestMemoisedWithinSession(t *testing.T) {
	c, src := calc(config.ApplyHighest, flat(1, campaign.DiscountPercentage, "10"))
	ctx := WithSession(context.Background())

	first := c.GetOrCalculateProductDiscount(ctx, product("100"))
	second := c.GetOrCalculateProductDiscount(ctx, product("100"))
	require.Same(t, first, second)
	require.Equal(t, 1, src.calls)

	c.GetOrCalculateProductDiscount(WithSession(context.Background()), product("100"))
	require.Equal(t, 2, src.calls)
}

func TestInvalidProductYieldsNoDiscount(t *testing.T) {
	c, src := calc(config.ApplyHighest, flat(1, campaign.DiscountPercentage, "10"))
	out := c.GetOrCalculateProductDiscount(context.Background(), nil)
	require.False(t, out.OnCampaign)
	out = c.GetOrCalculateProductDiscount(context.Background(), &catalog.Product{})
	require.False(t, out.OnCampaign)
	require.Zero(t, src.calls)
}

func TestSaleExclusionShortCircuits(t *testing.T) {
	c, src := calc(config.ApplyHighest,
		flat(1, campaign.DiscountPercentage, "10"),
		flat(2, campaign.DiscountFixed, "5"),
		flat(3, campaign.DiscountPercentage, "50"),
	)
	c.Settings.ExcludeSaleItems = true
	onSale := &catalog.Product{ID: 7, Price: dec("80"), RegularPrice: dec("100")}

	out := c.GetOrCalculateProductDiscount(context.Background(), onSale)
	require.False(t, out.OnCampaign)
	require.True(t, out.BestPrice.Equal(dec("80")))
	require.Zero(t, src.calls)
}

func TestFirstTierOnlyForTieredCampaigns(t *testing.T) {
	qty := &campaign.Campaign{ID: 5, Status: campaign.StatusActive, Type: campaign.TypeQuantity, TargetType: campaign.TargetEntireStore, Tiers: quantityTiers()}
	early := &campaign.Campaign{ID: 6, Status: campaign.StatusActive, Type: campaign.TypeEarlyBird, TargetType: campaign.TargetEntireStore,
		Tiers: campaign.Tiers{EarlyBird: []campaign.EarlyBirdTier{{Quantity: 10, Value: dec("15"), Type: campaign.DiscountFixed}}}}
	bogo := &campaign.Campaign{ID: 7, Status: campaign.StatusActive, Type: campaign.TypeBogo, TargetType: campaign.TargetEntireStore,
		Tiers: campaign.Tiers{Bogo: []campaign.BogoTier{{BuyQuantity: 1, GetQuantity: 1}}}}

	c, _ := calc(config.ApplyHighest, qty)
	out := c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.True(t, out.BestPrice.Equal(dec("90")))
	require.Equal(t, campaign.TypeQuantity, out.CampaignType)
	require.Len(t, out.Tiers.Quantity, 2)

	c, _ = calc(config.ApplyHighest, early)
	out = c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.True(t, out.BestPrice.Equal(dec("85")))

	c, _ = calc(config.ApplyHighest, bogo)
	out = c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.False(t, out.OnCampaign)
}

func TestIneligibleCampaignsAreSkipped(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	inactive := flat(1, campaign.DiscountPercentage, "50")
	inactive.Status = campaign.StatusInactive
	expiredWindow := flat(2, campaign.DiscountPercentage, "50")
	expiredWindow.ScheduleEnabled = true
	expiredWindow.StartAt, expiredWindow.EndAt = &past, &yesterday
	limit, used := 3, 3
	exhausted := flat(3, campaign.DiscountPercentage, "50")
	exhausted.UsageLimit, exhausted.UsageCount = &limit, &used
	otherProduct := flat(4, campaign.DiscountPercentage, "50")
	otherProduct.TargetType = campaign.TargetProduct
	otherProduct.TargetIDs = []int64{99}
	otherProduct.ApplicableProductIDs = []int64{99}

	c, _ := calc(config.ApplyHighest, inactive, expiredWindow, exhausted, otherProduct)
	c.Now = func() time.Time { return now }
	out := c.GetOrCalculateProductDiscount(context.Background(), product("100"))
	require.False(t, out.OnCampaign)
	require.True(t, out.BestPrice.Equal(dec("100")))
}

func TestNoCampaignsReturnsBasePrice(t *testing.T) {
	c, _ := calc(config.ApplyHighest)
	out := c.GetOrCalculateProductDiscount(context.Background(), product("59.99"))
	require.False(t, out.OnCampaign)
	require.True(t, out.BasePrice.Equal(dec("59.99")))
	require.True(t, out.BestPrice.Equal(dec("59.99")))
}

func TestPreferNilBestAlwaysLoses(t *testing.T) {
	for _, method := range []config.PriorityMethod{config.ApplyHighest, config.ApplyLowest, config.ApplyFirst} {
		require.True(t, Prefer(method, dec("1000"), nil))
	}
}
