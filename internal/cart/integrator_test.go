package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
	"github.com/dipta-sdd/campaignbay-sub002/internal/pricing"
)

type staticSource []*campaign.Campaign

func (s staticSource) GetActiveCampaigns(context.Context) []*campaign.Campaign { return s }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func quantityCampaign(id int64) *campaign.Campaign {
	return &campaign.Campaign{
		ID:         id,
		Title:      "Bulk",
		Status:     campaign.StatusActive,
		Type:       campaign.TypeQuantity,
		TargetType: campaign.TargetEntireStore,
		Tiers: campaign.Tiers{Quantity: []campaign.QuantityTier{
			{ID: 0, Min: 1, Max: 5, Value: dec("10"), Type: campaign.DiscountPercentage},
			{ID: 1, Min: 6, Max: 10, Value: dec("20"), Type: campaign.DiscountPercentage},
		}},
	}
}

func scheduledCampaign(id int64, pct string) *campaign.Campaign {
	return &campaign.Campaign{
		ID:            id,
		Title:         "Flat",
		Status:        campaign.StatusActive,
		Type:          campaign.TypeScheduled,
		DiscountType:  campaign.DiscountPercentage,
		DiscountValue: dec(pct),
		TargetType:    campaign.TargetEntireStore,
	}
}

func integrator(settings config.Settings, campaigns ...*campaign.Campaign) *Integrator {
	calc := &pricing.Calculator{Campaigns: staticSource(campaigns), Settings: settings}
	return &Integrator{Calc: calc, Settings: settings}
}

func cartOf(qty int, price string) *Cart {
	p := catalog.Product{ID: 42, Kind: catalog.KindSimple, Price: dec(price), RegularPrice: dec(price)}
	return &Cart{Lines: []*Line{{Key: "42", Product: p, Quantity: qty, Price: p.Price}}}
}

func TestQuantityTierBoundaries(t *testing.T) {
	cases := []struct {
		qty  int
		want string
	}{
		{5, "90"},
		{6, "80"},
		{10, "80"},
		{11, "90"},
	}
	for _, tc := range cases {
		in := integrator(config.DefaultSettings(), quantityCampaign(1))
		c := cartOf(tc.qty, "100")
		in.ApplyDiscountsAndPrepareNotices(pricing.WithSession(context.Background()), c)
		require.True(t, c.Lines[0].Price.Equal(dec(tc.want)), "qty %d: got %s", tc.qty, c.Lines[0].Price)
	}
}

func TestQuantityBelowFirstTierFallsBackToFirstTier(t *testing.T) {
	bulk := quantityCampaign(1)
	bulk.Tiers.Quantity = []campaign.QuantityTier{
		{ID: 0, Min: 3, Max: 5, Value: dec("10"), Type: campaign.DiscountPercentage},
		{ID: 1, Min: 6, Max: 10, Value: dec("20"), Type: campaign.DiscountPercentage},
	}
	in := integrator(config.DefaultSettings(), bulk)
	c := cartOf(1, "100")
	in.ApplyDiscountsAndPrepareNotices(context.Background(), c)

	require.True(t, c.Lines[0].Price.Equal(dec("90")), "got %s", c.Lines[0].Price)
	require.Len(t, c.Breakdown, 1)
	require.True(t, c.Breakdown[1].TotalOldPrice.Equal(dec("100")))
	require.True(t, c.Breakdown[1].TotalNewPrice.Equal(dec("90")))
	require.Len(t, c.Notices, 1)
	require.Equal(t, "Buy 2 more and get 10% off!", c.Notices[0].Message)
}

func TestNextTierNotice(t *testing.T) {
	in := integrator(config.DefaultSettings(), quantityCampaign(1))
	c := cartOf(4, "100")
	in.ApplyDiscountsAndPrepareNotices(context.Background(), c)
	require.Len(t, c.Notices, 1)
	require.Equal(t, "Buy 2 more and get 20% off!", c.Notices[0].Message)
	require.EqualValues(t, 1, c.Notices[0].CampaignID)

	c = cartOf(7, "100")
	in.ApplyDiscountsAndPrepareNotices(context.Background(), c)
	require.Empty(t, c.Notices)

	settings := config.DefaultSettings()
	settings.ShowNextDiscountBar = false
	c = cartOf(4, "100")
	integrator(settings, quantityCampaign(1)).ApplyDiscountsAndPrepareNotices(context.Background(), c)
	require.Empty(t, c.Notices)
}

func TestRenderNextTierMessageFixedAmount(t *testing.T) {
	next := campaign.QuantityTier{Min: 10, Value: dec("5"), Type: campaign.DiscountFixed}
	msg := RenderNextTierMessage("Add {remaining_amount} for {discount_percentage} off", next, 3)
	require.Equal(t, "Add 7 for 5.00 off", msg)
}

func TestApplyIsIdempotent(t *testing.T) {
	in := integrator(config.DefaultSettings(), quantityCampaign(1))
	c := cartOf(6, "100")
	ctx := pricing.WithSession(context.Background())

	in.ApplyDiscountsAndPrepareNotices(ctx, c)
	in.ApplyDiscountsAndPrepareNotices(ctx, c)
	in.ApplyDiscountsAndPrepareNotices(ctx, c)

	require.True(t, c.Lines[0].Price.Equal(dec("80")))
	require.Len(t, c.Breakdown, 1)
	require.True(t, c.Breakdown[1].TotalOldPrice.Equal(dec("600")))
	require.True(t, c.Breakdown[1].TotalNewPrice.Equal(dec("480")))
	require.Empty(t, c.Notices)

	c.Lines[0].Quantity = 4
	in.ApplyDiscountsAndPrepareNotices(ctx, c)
	in.ApplyDiscountsAndPrepareNotices(ctx, c)
	require.Len(t, c.Notices, 1)
	require.True(t, c.Lines[0].Price.Equal(dec("90")))
}

func TestAdminContextSkippedUnlessAJAX(t *testing.T) {
	in := integrator(config.DefaultSettings(), scheduledCampaign(1, "10"))

	c := cartOf(1, "100")
	in.ApplyDiscountsAndPrepareNotices(WithOrigin(context.Background(), Origin{Admin: true}), c)
	require.True(t, c.Lines[0].Price.Equal(dec("100")))
	require.Empty(t, c.Breakdown)

	in.ApplyDiscountsAndPrepareNotices(WithOrigin(context.Background(), Origin{Admin: true, AJAX: true}), c)
	require.True(t, c.Lines[0].Price.Equal(dec("90")))
}

func TestFeeModeLeavesPricesUntouched(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ShowDiscountBreakdown = true
	in := integrator(settings, scheduledCampaign(3, "25"))
	c := &Cart{Lines: []*Line{
		{Key: "1", Product: catalog.Product{ID: 1, Price: dec("100")}, Quantity: 2, Price: dec("100")},
		{Key: "2", Product: catalog.Product{ID: 2, Price: dec("40")}, Quantity: 1, Price: dec("40")},
	}}
	in.ApplyDiscountsAndPrepareNotices(context.Background(), c)

	require.True(t, c.Lines[0].Price.Equal(dec("100")))
	require.True(t, c.Lines[1].Price.Equal(dec("40")))
	require.Len(t, c.Fees, 1)
	require.Equal(t, "Flat", c.Fees[0].Name)
	require.True(t, c.Fees[0].Amount.Equal(dec("-60")), c.Fees[0].Amount.String())

	totals := Compute(c)
	require.True(t, totals.Subtotal.Equal(dec("240")))
	require.True(t, totals.Total.Equal(dec("180")))
	require.True(t, totals.Discount.Equal(dec("60")))
	require.True(t, c.Breakdown.Total().Equal(dec("60")))
}

func TestPriceModeTotals(t *testing.T) {
	in := integrator(config.DefaultSettings(), scheduledCampaign(3, "25"))
	c := cartOf(2, "100")
	in.ApplyDiscountsAndPrepareNotices(context.Background(), c)
	require.Empty(t, c.Fees)
	totals := Compute(c)
	require.True(t, totals.Total.Equal(dec("150")))
	require.True(t, totals.Discount.Equal(dec("50")))
}

func TestUndiscountedLinesStayOutOfBreakdown(t *testing.T) {
	zero := scheduledCampaign(1, "0")
	in := integrator(config.DefaultSettings(), zero)
	c := cartOf(3, "100")
	in.ApplyDiscountsAndPrepareNotices(context.Background(), c)
	require.Empty(t, c.Breakdown)
	require.True(t, c.Lines[0].Price.Equal(dec("100")))
}

func TestScheduledAndQuantityTieKeepsFirstCampaign(t *testing.T) {
	settings := config.DefaultSettings()
	settings.PriorityMethod = config.ApplyHighest
	in := integrator(settings, scheduledCampaign(1, "20"), quantityCampaign(2))
	c := cartOf(6, "100")
	in.ApplyDiscountsAndPrepareNotices(pricing.WithSession(context.Background()), c)

	require.True(t, c.Lines[0].Price.Equal(dec("80")))
	require.Len(t, c.Breakdown, 1)
	entry, ok := c.Breakdown[1]
	require.True(t, ok)
	require.Equal(t, "Flat", entry.Title)
	require.True(t, entry.TotalNewPrice.Equal(dec("480")))
}

func TestBreakdownEncodeDecode(t *testing.T) {
	b := Breakdown{}
	b.Add(7, "Summer", dec("100"), dec("80"), 2)
	data, err := b.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"7":{"title":"Summer","total_old_price":"200","total_new_price":"160"}}`, string(data))

	decoded, err := DecodeBreakdown(data)
	require.NoError(t, err)
	require.True(t, decoded[7].Discount().Equal(dec("40")))

	_, err = DecodeBreakdown([]byte(`{"abc":{}}`))
	require.ErrorIs(t, err, ErrMalformedBreakdown)
	_, err = DecodeBreakdown(nil)
	require.ErrorIs(t, err, ErrMalformedBreakdown)
}
