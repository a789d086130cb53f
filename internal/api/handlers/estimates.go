// Package handlers contains the HTTP handler implementations for the
// mowquote API: measurements, estimates, and geocoding.
package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"mowquote/internal/core"
	"mowquote/internal/db"
	"mowquote/internal/estimates"
	"mowquote/internal/external"
	"mowquote/internal/geo"
	"mowquote/internal/pdfgen"
	"mowquote/internal/pricing"
	"mowquote/internal/types"
)

// --- Service interfaces ---
//
// Defined locally so handlers depend on abstractions and tests can inject
// function-backed fakes.

// EstimateService is the quoting and persistence surface.
type EstimateService interface {
	Quote(d estimates.Draft) pricing.Quote
	Save(ctx context.Context, d estimates.Draft) (*types.EstimateRecord, error)
	Get(ctx context.Context, id string) (*types.EstimateRecord, error)
	List(ctx context.Context, params db.ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error)
	Document(rec *types.EstimateRecord) pdfgen.EstimateDoc
}

// EstimateRenderer produces PDF bytes for an estimate document.
type EstimateRenderer interface {
	Render(doc pdfgen.EstimateDoc, variant pdfgen.Variant) ([]byte, error)
}

// EstimateMailer delivers an estimate email with the PDF attached.
type EstimateMailer interface {
	SendEstimate(ctx context.Context, in external.EstimateEmail) ([]byte, error)
}

// --- Request/response models ---

// PointDTO is one polygon vertex in request payloads.
type PointDTO struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// ShapeDTO is one measured parcel outline.
type ShapeDTO struct {
	Points []PointDTO `json:"points" validate:"min=3,dive"`
}

// CustomerDTO mirrors the estimate form fields.
type CustomerDTO struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Notes   string `json:"notes,omitempty"`
}

// ServicesDTO mirrors the service toggles and extra prices.
type ServicesDTO struct {
	Mowing       bool    `json:"mowing"`
	Shrubs       bool    `json:"shrubs"`
	Cleanup      bool    `json:"cleanup"`
	ShrubPrice   float64 `json:"shrub_price,omitempty"`
	CleanupPrice float64 `json:"cleanup_price,omitempty"`
}

// EstimateDraftRequest is the body for preview and save. The measured area
// is always recomputed server-side from the shapes; clients never submit a
// total. Name and address requirements are enforced at save time only, so
// previews work on a half-filled form.
type EstimateDraftRequest struct {
	Customer    CustomerDTO `json:"customer"`
	Services    ServicesDTO `json:"services"`
	RatePerSqFt float64     `json:"rate_per_sq_ft,omitempty" validate:"omitempty,gt=0"`
	Shapes      []ShapeDTO  `json:"shapes,omitempty" validate:"dive"`
}

// SendEstimateRequest optionally overrides the recipient stored on the
// record.
type SendEstimateRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// previewResponse is the quote breakdown returned by preview.
type previewResponse struct {
	AreaSqFt int64         `json:"area_sq_ft"`
	Quote    pricing.Quote `json:"quote"`
}

type listEstimatesResponse struct {
	Estimates []*types.EstimateRecord `json:"estimates"`
	PageInfo  types.PageInfo          `json:"page_info"`
}

// --- Handler ---

// EstimateHandler manages estimate quoting, persistence, rendering, and
// delivery.
type EstimateHandler struct {
	svc       EstimateService
	renderer  EstimateRenderer
	mailer    EstimateMailer
	validator *core.Validator
	logger    *slog.Logger
}

func NewEstimateHandler(
	svc EstimateService,
	renderer EstimateRenderer,
	mailer EstimateMailer,
	v *core.Validator,
	l *slog.Logger,
) *EstimateHandler {
	if l == nil {
		l = slog.Default()
	}
	return &EstimateHandler{
		svc:       svc,
		renderer:  renderer,
		mailer:    mailer,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts estimate routes on the provided router.
func (h *EstimateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/estimates", func(r chi.Router) {
		r.Post("/", h.Save)
		r.Get("/", h.List)
		r.Post("/preview", h.Preview)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Get("/pdf", h.DownloadPDF)
			r.Post("/send", h.Send)
		})
	})
}

// draftFromRequest converts a request body into a service draft, computing
// the measured area from the submitted shapes.
func draftFromRequest(req EstimateDraftRequest) estimates.Draft {
	rings := lo.Map(req.Shapes, func(s ShapeDTO, _ int) orb.Ring {
		return lo.Map(s.Points, func(p PointDTO, _ int) orb.Point {
			return orb.Point{p.Lng, p.Lat}
		})
	})

	return estimates.Draft{
		Customer: types.Customer{
			Name:    req.Customer.Name,
			Address: req.Customer.Address,
			Phone:   req.Customer.Phone,
			Email:   req.Customer.Email,
			Notes:   req.Customer.Notes,
		},
		Services: types.ServiceSelection{
			Mowing:       req.Services.Mowing,
			Shrubs:       req.Services.Shrubs,
			Cleanup:      req.Services.Cleanup,
			ShrubPrice:   req.Services.ShrubPrice,
			CleanupPrice: req.Services.CleanupPrice,
		},
		AreaSqFt: geo.TotalArea(rings),
		Rate:     req.RatePerSqFt,
		Rings:    rings,
	}
}

// Preview handles POST /v1/estimates/preview. Prices the draft without
// persisting anything.
func (h *EstimateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req EstimateDraftRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	draft := draftFromRequest(req)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: previewResponse{
		AreaSqFt: draft.AreaSqFt,
		Quote:    h.svc.Quote(draft),
	}})
}

// Save handles POST /v1/estimates.
func (h *EstimateHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req EstimateDraftRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := h.svc.Save(r.Context(), draftFromRequest(req))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: rec})
}

// Get handles GET /v1/estimates/{id}.
func (h *EstimateHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: rec})
}

// List handles GET /v1/estimates with limit/cursor query params.
func (h *EstimateHandler) List(w http.ResponseWriter, r *http.Request) {
	params := db.ListEstimatesParams{
		Cursor: r.URL.Query().Get("cursor"),
	}
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			core.Error(w, r, types.NewAppError(
				types.ErrCodeValidationFailed, "limit must be an integer", err))
			return
		}
		params.Limit = limit
	}

	records, pageInfo, err := h.svc.List(r.Context(), params)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if records == nil {
		records = []*types.EstimateRecord{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: listEstimatesResponse{
		Estimates: records,
		PageInfo:  pageInfo,
	}})
}

// DownloadPDF handles GET /v1/estimates/{id}/pdf?variant=internal|customer.
func (h *EstimateHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	variant, err := pdfgen.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	pdfBytes, err := h.renderer.Render(h.svc.Document(rec), variant)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+pdfgen.FileName(rec.Customer.Name, variant)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
}

// Send handles POST /v1/estimates/{id}/send. Renders the customer PDF and
// emails it to the recipient: the request override if given, otherwise the
// email stored on the record.
func (h *EstimateHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendEstimateRequest
	if r.ContentLength > 0 {
		if err := core.DecodeJSON(w, r, &req); err != nil {
			core.Error(w, r, err)
			return
		}
		if err := h.validator.ValidateStruct(req); err != nil {
			core.Error(w, r, err)
			return
		}
	}

	rec, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}

	recipient := req.Email
	if recipient == "" {
		recipient = rec.Customer.Email
	}
	if recipient == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationInvalidEmail,
			"no recipient email on the estimate; provide one in the request",
			nil,
		))
		return
	}

	pdfBytes, err := h.renderer.Render(h.svc.Document(rec), pdfgen.VariantCustomer)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	providerResp, err := h.mailer.SendEstimate(r.Context(), external.EstimateEmail{
		To:           recipient,
		CustomerName: rec.Customer.Name,
		Address:      rec.Customer.Address,
		PDFBase64:    base64.StdEncoding.EncodeToString(pdfBytes),
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	h.logger.Info("estimate emailed",
		slog.String("estimate_id", rec.ID),
		slog.String("to", recipient),
	)

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]any{
		"sent_to":  recipient,
		"provider": string(providerResp),
	}})
}
