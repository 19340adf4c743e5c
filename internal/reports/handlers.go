package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes report read endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts GET /reports.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/reports", h.Report)
}

// Report handles GET /api/v1/reports?period=.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_NOT_CONFIGURED", "reports service not configured", nil)
		return
	}
	ownerID, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), map[string]any{"field": "period"})
		return
	}
	rep, err := h.Svc.Report(r.Context(), ownerID, period)
	if err != nil {
		h.Svc.Log.Error().Err(err).Str("owner_id", ownerID).Msg("report failed")
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rep})
}
