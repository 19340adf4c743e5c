package company

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

// DefaultName is used until the owner saves settings.
const DefaultName = "My Store"

type queryProvider interface {
	GetCompanySettings(ctx context.Context, ownerID string) (store.CompanySettings, error)
	UpsertCompanySettings(ctx context.Context, s store.CompanySettings) (store.CompanySettings, error)
}

// Settings is the API shape of company settings.
type Settings struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	Pincode string `json:"pincode" validate:"max=16"`
	Phone   string `json:"phone" validate:"max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	GSTIN   string `json:"gstin" validate:"omitempty,len=15,alphanum"`
	Website string `json:"website" validate:"omitempty,url"`
	LogoURL string `json:"logoUrl" validate:"omitempty,url"`
}

// Service reads and writes company settings.
type Service struct {
	Q queryProvider
}

// Get returns the saved settings or the defaults.
func (s Service) Get(ctx context.Context, ownerID string) (Settings, error) {
	row, err := s.Q.GetCompanySettings(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return Settings{Name: DefaultName}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get company settings: %w", err)
	}
	return fromRow(row), nil
}

// Save validates and stores in.
func (s Service) Save(ctx context.Context, ownerID string, in Settings) (Settings, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.GSTIN = strings.ToUpper(strings.TrimSpace(in.GSTIN))
	if err := common.ValidateStruct(in); err != nil {
		return Settings{}, err
	}
	row, err := s.Q.UpsertCompanySettings(ctx, store.CompanySettings{
		OwnerID: ownerID,
		Name:    in.Name,
		Address: in.Address,
		City:    in.City,
		State:   in.State,
		Pincode: in.Pincode,
		Phone:   in.Phone,
		Email:   in.Email,
		GSTIN:   in.GSTIN,
		Website: in.Website,
		LogoURL: in.LogoURL,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("save company settings: %w", err)
	}
	return fromRow(row), nil
}

func fromRow(row store.CompanySettings) Settings {
	return Settings{
		Name:    row.Name,
		Address: row.Address,
		City:    row.City,
		State:   row.State,
		Pincode: row.Pincode,
		Phone:   row.Phone,
		Email:   row.Email,
		GSTIN:   row.GSTIN,
		Website: row.Website,
		LogoURL: row.LogoURL,
	}
}

// Handler exposes GET and PUT /api/v1/company.
type Handler struct {
	Service Service
}

// Routes mounts the company endpoints on r.
func (h Handler) Routes(r chi.Router) {
	r.Get("/company", h.get)
	r.Put("/company", h.put)
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	settings, err := h.Service.Get(r.Context(), ownerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": settings})
}

func (h Handler) put(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := common.OwnerID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var in Settings
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	settings, err := h.Service.Save(r.Context(), ownerID, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": settings})
}
