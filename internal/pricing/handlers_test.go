package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dipta-sdd/campaignbay-sub002/internal/campaign"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/config"
)

type mapCatalog map[int64]catalog.Product

func (m mapCatalog) GetProductByID(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := m[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m mapCatalog) QueryProductIDsByCategory(context.Context, []int64) ([]int64, error) {
	return nil, nil
}

func TestProductDiscountHandler(t *testing.T) {
	c, _ := calc(config.ApplyHighest, flat(1, campaign.DiscountPercentage, "25"))
	h := &Handler{Catalog: mapCatalog{42: *product("100")}, Calc: c}
	r := chi.NewRouter()
	r.Get("/products/{id}/discount", h.ProductDiscount)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/42/discount", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data struct {
			OnCampaign bool   `json:"on_campaign"`
			BestPrice  string `json:"best_price"`
			CampaignID int64  `json:"campaign_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Data.OnCampaign)
	require.Equal(t, "75", body.Data.BestPrice)
	require.EqualValues(t, 1, body.Data.CampaignID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/7/discount", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/abc/discount", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
