package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
)

// Store is the order persistence used by the admin endpoints.
type Store interface {
	Get(ctx context.Context, id int64) (Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Status, error)
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (events.Event, error)
}

// AdminHandler provides administrative order endpoints.
type AdminHandler struct {
	Store  Store
	Events Emitter
	Logger zerolog.Logger
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// Get returns an order together with its discount breakdown.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// PatchStatus moves an order to any known status and announces the
// transition. No transition is rejected.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	target, valid := ParseStatus(req.Status)
	if !valid {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	prev, err := h.Store.UpdateStatus(r.Context(), id, target)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	if h.Events != nil && prev != target {
		payload := events.OrderStatusPayload{OrderID: id, OldStatus: string(prev), NewStatus: string(target)}
		if _, err := h.Events.Emit(r.Context(), events.TopicOrderStatusChanged, strconv.FormatInt(id, 10), payload); err != nil {
			h.Logger.Error().Err(err).Int64("order_id", id).Msg("order status event dispatch failed")
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"id":         id,
		"old_status": prev,
		"status":     target,
	}})
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return 0, false
	}
	return id, true
}
