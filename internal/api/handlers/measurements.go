package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"mowquote/internal/core"
	"mowquote/internal/geo"
)

// MeasureAreaRequest is the body for POST /v1/measurements/area.
type MeasureAreaRequest struct {
	Shapes []ShapeDTO `json:"shapes" validate:"required,min=1,dive"`
}

// measureAreaResponse reports the per-shape and combined totals. The total
// is the sum of the independently rounded shape areas, matching what the
// estimate itself will bill.
type measureAreaResponse struct {
	ShapeSqFt []int64 `json:"shape_sq_ft"`
	TotalSqFt int64   `json:"total_sq_ft"`
}

// MeasurementHandler computes geodesic areas for drawn shapes.
type MeasurementHandler struct {
	validator *core.Validator
	logger    *slog.Logger
}

func NewMeasurementHandler(v *core.Validator, l *slog.Logger) *MeasurementHandler {
	if l == nil {
		l = slog.Default()
	}
	return &MeasurementHandler{validator: v, logger: l}
}

// RegisterRoutes mounts measurement routes on the provided router.
func (h *MeasurementHandler) RegisterRoutes(r chi.Router) {
	r.Post("/measurements/area", h.MeasureArea)
}

// MeasureArea handles POST /v1/measurements/area.
func (h *MeasurementHandler) MeasureArea(w http.ResponseWriter, r *http.Request) {
	var req MeasureAreaRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	shapeAreas := lo.Map(req.Shapes, func(s ShapeDTO, _ int) int64 {
		ring := lo.Map(s.Points, func(p PointDTO, _ int) orb.Point {
			return orb.Point{p.Lng, p.Lat}
		})
		return geo.RingArea(ring)
	})

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: measureAreaResponse{
		ShapeSqFt: shapeAreas,
		TotalSqFt: lo.Sum(shapeAreas),
	}})
}
