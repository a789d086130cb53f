package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mowquote/internal/core"
	"mowquote/internal/types"
)

// AddressResolver looks up coordinates for a service address.
type AddressResolver interface {
	Lookup(ctx context.Context, address string) (*types.GeoResult, error)
}

// GeocodeRequest is the body for POST /v1/geocode.
type GeocodeRequest struct {
	Address string `json:"address" validate:"required,min=3"`
}

// GeocodeHandler resolves typed addresses so the map can recenter on the
// property before drawing starts.
type GeocodeHandler struct {
	resolver  AddressResolver
	validator *core.Validator
	logger    *slog.Logger
}

func NewGeocodeHandler(resolver AddressResolver, v *core.Validator, l *slog.Logger) *GeocodeHandler {
	if l == nil {
		l = slog.Default()
	}
	return &GeocodeHandler{resolver: resolver, validator: v, logger: l}
}

// RegisterRoutes mounts geocode routes on the provided router.
func (h *GeocodeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/geocode", h.Resolve)
}

// Resolve handles POST /v1/geocode.
func (h *GeocodeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req GeocodeRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.resolver.Lookup(r.Context(), req.Address)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: result})
}
