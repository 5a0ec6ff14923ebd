package campaign

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

// Handler exposes administrative campaign endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts the campaign endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/usage", h.Usage)
}

// List returns one page of campaigns.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page := common.ParsePagination(r, 20, 100)
	all, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	status := Status(sanitizeKey(r.URL.Query().Get("status")))
	filtered := make([]*Campaign, 0, len(all))
	for _, c := range all {
		if status == "" || c.Status == status {
			filtered = append(filtered, c)
		}
	}
	page.TotalItems = len(filtered)
	start := min(page.Offset(), len(filtered))
	end := min(start+page.PerPage, len(filtered))
	common.JSON(w, http.StatusOK, map[string]any{"data": filtered[start:end], "pagination": page})
}

// Create validates and stores a new campaign.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// Get returns a single campaign with its resolved product ids.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Update applies a partial update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Delete removes a campaign. ?force=true skips the soft delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := h.Svc.Delete(r.Context(), id, force); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Usage returns the distinct order count for a campaign.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, n, err := h.Svc.LoadUsage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"campaign_id": id,
		"usage_count": n,
		"usage_limit": c.UsageLimit,
	}})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "campaign service not configured", nil)
		return false
	}
	return true
}

func campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid campaign id", nil)
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verr.Message, map[string]string{"field": verr.Field})
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "campaign not found", nil)
	default:
		common.WriteError(w, err)
	}
}
