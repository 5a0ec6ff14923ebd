package pricing

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

// Handler exposes the storefront product discount endpoint.
type Handler struct {
	Catalog catalog.Lookup
	Calc    *Calculator
}

// ProductDiscount returns the discount outcome for a product.
func (h *Handler) ProductDiscount(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil || h.Calc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing not configured", nil)
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}
	p, err := h.Catalog.GetProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		h.Calc.Logger.Error().Err(err).Int64("product_id", id).Msg("product lookup failed")
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "product lookup failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Calc.GetOrCalculateProductDiscount(r.Context(), &p)})
}
