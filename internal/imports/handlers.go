package imports

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/importer"
	"github.com/noah-isme/backend-pos/internal/security"
)

// Handler exposes the import endpoints.
type Handler struct {
	Svc      *Service
	MaxBytes int64
	// Limit throttles import submissions. Nil disables it.
	Limit func(http.Handler) http.Handler
}

// Routes mounts /imports on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.Get("/templates/{kind}", h.Template)
		r.Get("/{id}", h.Status)
		r.Group(func(r chi.Router) {
			if h.Limit != nil {
				r.Use(h.Limit)
			}
			r.Use(security.BodyLimit{Max: h.MaxBytes}.Middleware)
			r.Post("/{kind}", h.Create)
		})
	})
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
	}
	return ownerID, ok
}

// Create handles POST /api/v1/imports/{kind}.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	kind, err := importer.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown import kind", map[string]any{"kind": chi.URLParam(r, "kind")})
		return
	}
	text, err := h.readCSV(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	async := common.ParseBoolDefault(r.URL.Query().Get("async"), false)
	st, err := h.Svc.Start(r.Context(), ownerID, kind, text, async)
	if err != nil {
		if !common.IsAppError(err) {
			h.Svc.Log.Error().Err(err).Str("owner_id", ownerID).Msg("import failed")
		}
		common.WriteError(w, err)
		return
	}
	if async {
		w.Header().Set("Location", "/api/v1/imports/"+st.ID)
		common.JSON(w, http.StatusAccepted, map[string]any{"data": st})
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": st})
}

func (h *Handler) readCSV(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		maxMemory := h.MaxBytes
		if maxMemory <= 0 {
			maxMemory = 32 << 20
		}
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			if security.IsTooLarge(err) {
				return "", security.ErrPayloadTooLarge
			}
			return "", common.BadRequest("file", "invalid multipart body", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", common.BadRequest("file", "file is required", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", common.BadRequest("file", "file could not be read", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		if security.IsTooLarge(err) {
			return "", security.ErrPayloadTooLarge
		}
		return "", common.BadRequest("file", "body could not be read", err)
	}
	return string(data), nil
}

// Status handles GET /api/v1/imports/{id}.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	st, err := h.Svc.Status(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": st})
}

// Template handles GET /api/v1/imports/templates/{kind}.
func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	kind, err := importer.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown import kind", nil)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ToLower(string(kind))+`_template.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, importer.Template(kind))
}
