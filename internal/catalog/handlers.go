package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the authenticated catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Routes mounts the catalog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.Categories)
		r.Post("/", h.CreateCategory)
		r.Get("/{id}", h.Category)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.Items)
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.Item)
		r.Put("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
	})
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return "", false
	}
	owner, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return owner, true
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	rows, err := h.service.ListCategories(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// Category handles GET /api/v1/categories/{id}.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	cat, err := h.service.GetCategory(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cat})
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var in CategoryInput
	if err := common.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), owner, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": cat})
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var in CategoryInput
	if err := common.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	cat, err := h.service.UpdateCategory(r.Context(), owner, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cat})
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Items handles GET /api/v1/items. With ?barcode= it returns the single match.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	if barcode := strings.TrimSpace(query.Get("barcode")); barcode != "" {
		item, err := h.service.ItemByBarcode(r.Context(), owner, barcode)
		if err != nil {
			writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": item})
		return
	}
	page, limit := common.ParsePagination(r, h.service.defaultLimit, h.service.maxLimit)
	result, err := h.service.ListItems(r.Context(), owner, query.Get("q"), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// Item handles GET /api/v1/items/{id}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// CreateItem handles POST /api/v1/items.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var in ItemInput
	if err := common.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), owner, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// UpdateItem handles PUT /api/v1/items/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var in ItemInput
	if err := common.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), owner, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// DeleteItem handles DELETE /api/v1/items/{id}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteItem(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
