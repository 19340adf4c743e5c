package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes cart endpoints.
type Handler struct {
	Service *Service
}

// Routes mounts /carts on r.
func (h Handler) Routes(r chi.Router) {
	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.clear)
		r.Post("/{id}/items", h.addItem)
		r.Patch("/{id}/items/{itemId}", h.setQuantity)
		r.Delete("/{id}/items/{itemId}", h.removeItem)
		r.Put("/{id}/tax", h.setTax)
		r.Put("/{id}/discount", h.setDiscount)
	})
}

type addItemReq struct {
	ItemID   string `json:"itemId" validate:"omitempty,uuid"`
	Barcode  string `json:"barcode" validate:"omitempty,max=100"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

type taxReq struct {
	RatePercent *decimal.Decimal `json:"ratePercent" validate:"required"`
}

type discountReq struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	}
	return id, ok
}

func respond(w http.ResponseWriter, status int, snap Snapshot, err error) {
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": ViewOf(snap)})
}

func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.Create(r.Context(), ownerID)
	respond(w, http.StatusCreated, snap, err)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	respond(w, http.StatusOK, snap, err)
}

func (h Handler) clear(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.Clear(r.Context(), ownerID, chi.URLParam(r, "id"))
	respond(w, http.StatusOK, snap, err)
}

func (h Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	snap, err := h.Service.AddItem(r.Context(), ownerID, chi.URLParam(r, "id"), req.ItemID, strings.TrimSpace(req.Barcode), req.Quantity)
	respond(w, http.StatusOK, snap, err)
}

func (h Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req quantityReq
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	snap, err := h.Service.SetQuantity(r.Context(), ownerID, chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), req.Quantity)
	respond(w, http.StatusOK, snap, err)
}

func (h Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	snap, err := h.Service.RemoveItem(r.Context(), ownerID, chi.URLParam(r, "id"), chi.URLParam(r, "itemId"))
	respond(w, http.StatusOK, snap, err)
}

func (h Handler) setTax(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req taxReq
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	snap, err := h.Service.SetTaxRate(r.Context(), ownerID, chi.URLParam(r, "id"), *req.RatePercent)
	respond(w, http.StatusOK, snap, err)
}

func (h Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}
	var req discountReq
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	snap, err := h.Service.SetDiscount(r.Context(), ownerID, chi.URLParam(r, "id"), *req.Amount)
	respond(w, http.StatusOK, snap, err)
}
