package checkout

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/reports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Handler struct {
	Svc *Service
	// Idem guards POST /checkout against replays. Nil disables it.
	Idem func(http.Handler) http.Handler
}

// Routes mounts /checkout and /transactions.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.Idem != nil {
			r.Use(h.Idem)
		}
		r.Post("/checkout", h.Checkout)
	})
	r.Get("/transactions", h.List)
	r.Get("/transactions/{id}", h.Get)
	r.Get("/transactions/{id}/receipt", h.Receipt)
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return "", false
	}
	ownerID, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	}
	return ownerID, ok
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Checkout(r.Context(), ownerID, payload)
	if err != nil {
		if !common.IsAppError(err) {
			h.Svc.Log.Error().Err(err).Msg("checkout failed")
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	period, err := reports.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), map[string]any{"field": "period"})
		return
	}
	page, limit := common.ParsePagination(r, defaultPageSize, maxPageSize)
	out, err := h.Svc.List(r.Context(), ownerID, period, limit, common.Offset(page, limit))
	if err != nil {
		h.Svc.Log.Error().Err(err).Msg("list transactions failed")
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(out.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out.Items,
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: int(out.Total)},
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	tx, err := h.Svc.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toTransaction(tx)})
}

// Receipt renders the sale as plain text.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	tx, err := h.Svc.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	company, err := h.Svc.Company(r.Context(), ownerID)
	if err != nil {
		h.Svc.Log.Error().Err(err).Msg("load company settings failed")
		common.WriteError(w, err)
		return
	}
	text := receipt.Render(company, tx, receipt.Options{Currency: h.Svc.Currency, Location: h.Svc.location()})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
