package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/dipta-sdd/campaignbay-sub002/internal/cart"
	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

type Handler struct {
	Svc *Service
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	var userID *string
	if uid, ok := common.UserID(r.Context()); ok && uid != "" {
		userID = &uid
	}
	ctx := cart.WithOrigin(r.Context(), cart.OriginFromRequest(r))
	out, err := h.Svc.PlaceOrder(ctx, userID, payload)
	if err != nil {
		cart.WriteBuildError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
