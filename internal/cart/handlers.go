package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
	"github.com/dipta-sdd/campaignbay-sub002/internal/pricing"
)

// Handler exposes the cart quote endpoint.
type Handler struct {
	Catalog    catalog.Lookup
	Integrator *Integrator
}

// QuoteRequest lists the lines to price.
type QuoteRequest struct {
	Items []LineRequest `json:"items"`
}

// Quote prices a cart without persisting anything.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil || h.Integrator == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart not configured", nil)
		return
	}
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	ctx := pricing.WithSession(WithOrigin(r.Context(), OriginFromRequest(r)))
	c, err := Build(ctx, h.Catalog, req.Items)
	if err != nil {
		WriteBuildError(w, err)
		return
	}
	h.Integrator.ApplyDiscountsAndPrepareNotices(ctx, c)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"cart":   c,
		"totals": Compute(c),
	}})
}

// OriginFromRequest treats /admin routes as admin context and the
// X-Requested-With header as AJAX.
func OriginFromRequest(r *http.Request) Origin {
	return Origin{
		Admin: strings.Contains(r.URL.Path, "/admin/"),
		AJAX:  strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest"),
	}
}

// WriteBuildError maps Build failures onto HTTP responses.
func WriteBuildError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, catalog.ErrProductNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_PRODUCT", "cart references an unknown product", nil)
	case errors.Is(err, catalog.ErrUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog temporarily unavailable", nil)
	default:
		common.WriteError(w, err)
	}
}
