// Package estimates implements the estimate lifecycle: quoting a draft,
// saving it to the append-only store, and reconstructing saved records into
// renderable documents.
package estimates

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"mowquote/internal/db"
	"mowquote/internal/pdfgen"
	"mowquote/internal/pricing"
	"mowquote/internal/types"
)

// Repository is the persistence surface the service needs. Implemented by
// db.EstimateRepository.
type Repository interface {
	Insert(ctx context.Context, rec *types.EstimateRecord) error
	GetByID(ctx context.Context, id string) (*types.EstimateRecord, error)
	List(ctx context.Context, params db.ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error)
}

// Service coordinates quoting and persistence.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Draft is an estimate as it stands on the operator's screen: measured area,
// selected services, and the customer form.
type Draft struct {
	Customer types.Customer
	Services types.ServiceSelection
	AreaSqFt int64
	Rate     float64
	Rings    []orb.Ring
}

func (d Draft) rate() float64 {
	if d.Rate <= 0 {
		return pricing.DefaultRate
	}
	return d.Rate
}

func (d Draft) pricingInputs() pricing.Inputs {
	var items []pricing.LineItem
	if d.Services.Shrubs {
		items = append(items, pricing.LineItem{Label: "Shrub Trimming", Price: d.Services.ShrubPrice})
	}
	if d.Services.Cleanup {
		items = append(items, pricing.LineItem{Label: "Lawn Clean-up", Price: d.Services.CleanupPrice})
	}
	return pricing.Inputs{
		AreaSqFt:          d.AreaSqFt,
		RatePerSqFt:       d.rate(),
		AreaServiceActive: d.Services.Mowing,
		Items:             items,
	}
}

// Quote prices a draft without persisting anything.
func (s *Service) Quote(d Draft) pricing.Quote {
	return pricing.Compute(d.pricingInputs())
}

// Save validates a draft and inserts it as a new estimate record. Extras are
// persisted only while toggled on; a toggled-off price is dropped, not
// stored. A mowing estimate with nothing measured is rejected.
func (s *Service) Save(ctx context.Context, d Draft) (*types.EstimateRecord, error) {
	if d.Customer.Name == "" {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "customer name is required", nil)
	}
	if d.Customer.Address == "" {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "service address is required", nil)
	}
	if d.Services.Mowing && d.AreaSqFt == 0 {
		return nil, types.NewAppError(types.ErrCodeValidationZeroArea, "please measure an area first", nil)
	}

	quote := s.Quote(d)

	rec := &types.EstimateRecord{
		ID:         "est_" + uuid.NewString(),
		Customer:   d.Customer,
		LawnArea:   d.AreaSqFt,
		RateUsed:   d.rate(),
		FinalPrice: pricing.RoundCurrency(quote.Total),
		Geometry:   ringsToMultiPolygon(d.Rings),
		CreatedAt:  time.Now().UTC(),
	}
	if d.Services.Shrubs {
		rec.ShrubPrice = d.Services.ShrubPrice
	}
	if d.Services.Cleanup {
		rec.CleanupPrice = d.Services.CleanupPrice
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("estimate saved",
		slog.String("estimate_id", rec.ID),
		slog.Int64("lawn_area", rec.LawnArea),
		slog.Float64("final_price", rec.FinalPrice),
	)
	return rec, nil
}

// Get retrieves a saved estimate by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.EstimateRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// List pages through saved estimates, newest first.
func (s *Service) List(ctx context.Context, params db.ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error) {
	return s.repo.List(ctx, params)
}

// Document reconstructs a saved record into a renderable estimate document.
//
// The record stores prices, not service toggles, so the selection is
// inferred: extras were on iff their price is non-zero, and mowing was on
// iff the final price exceeds the extras total. The second holds because an
// active mowing line always contributes at least the minimum charge.
func (s *Service) Document(rec *types.EstimateRecord) pdfgen.EstimateDoc {
	extras := rec.ShrubPrice + rec.CleanupPrice
	services := types.ServiceSelection{
		Mowing:       rec.FinalPrice-extras >= pricing.MinimumAreaCharge-0.005,
		Shrubs:       rec.ShrubPrice != 0,
		Cleanup:      rec.CleanupPrice != 0,
		ShrubPrice:   rec.ShrubPrice,
		CleanupPrice: rec.CleanupPrice,
	}

	draft := Draft{
		Customer: rec.Customer,
		Services: services,
		AreaSqFt: rec.LawnArea,
		Rate:     rec.RateUsed,
	}

	return pdfgen.EstimateDoc{
		Customer: rec.Customer,
		Services: services,
		AreaSqFt: rec.LawnArea,
		Rate:     rec.RateUsed,
		Quote:    pricing.Compute(draft.pricingInputs()),
		Date:     rec.CreatedAt,
	}
}

// ringsToMultiPolygon converts measured rings into a GeoJSON-ready
// MultiPolygon, one single-ring polygon per shape. Rings are closed if the
// drawing left them open.
func ringsToMultiPolygon(rings []orb.Ring) orb.MultiPolygon {
	if len(rings) == 0 {
		return nil
	}
	mp := make(orb.MultiPolygon, 0, len(rings))
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		closed := make(orb.Ring, len(ring), len(ring)+1)
		copy(closed, ring)
		if !closed.Closed() {
			closed = append(closed, closed[0])
		}
		mp = append(mp, orb.Polygon{closed})
	}
	if len(mp) == 0 {
		return nil
	}
	return mp
}
