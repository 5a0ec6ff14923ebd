package usage

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dipta-sdd/campaignbay-sub002/internal/common"
)

// Handler serves the usage log listing.
type Handler struct {
	Store *PostgresStore
}

// List returns campaign log rows, optionally filtered by campaign_id and log_type.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "usage store not configured", nil)
		return
	}
	var f Filter
	if raw := strings.TrimSpace(r.URL.Query().Get("campaign_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid campaign_id", nil)
			return
		}
		f.CampaignID = id
	}
	switch lt := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("log_type"))); lt {
	case "", LogTypeSale, LogTypeActivity:
		f.LogType = lt
	default:
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported log_type", nil)
		return
	}

	page := common.ParsePagination(r, 20, 100)
	logs, total, err := h.Store.ListLogs(r.Context(), f, page.PerPage, page.Offset())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list usage logs", nil)
		return
	}
	if logs == nil {
		logs = []Log{}
	}
	page.TotalItems = total
	common.JSON(w, http.StatusOK, map[string]any{"data": logs, "pagination": page})
}
