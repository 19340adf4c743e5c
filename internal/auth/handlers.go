package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the owner account endpoints.
type Handler struct {
	Service *Service
	// SigninLimit throttles POST /auth/signin. Nil disables it.
	SigninLimit func(http.Handler) http.Handler
	// Auth guards GET /auth/me.
	Auth func(http.Handler) http.Handler
}

type credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Routes mounts /auth.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Group(func(r chi.Router) {
			if h.SigninLimit != nil {
				r.Use(h.SigninLimit)
			}
			r.Post("/signin", h.Signin)
		})
		r.Group(func(r chi.Router) {
			if h.Auth != nil {
				r.Use(h.Auth)
			}
			r.Get("/me", h.Me)
		})
	})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return false
	}
	return true
}

// Signup handles POST /api/v1/auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	owner, err := h.Service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": owner})
}

// Signin handles POST /api/v1/auth/signin.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	session, err := h.Service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": session})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	ownerID, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	owner, err := h.Service.Me(r.Context(), ownerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": owner})
}
