// Package types defines the shared domain model for the mowquote service:
// customers, service selections, estimate records, and the error and context
// primitives used across packages.
package types

import (
	"time"

	"github.com/paulmach/orb"
)

// Customer holds the identity fields captured on the estimate form.
// Name and Address are required at save time; the rest are optional.
type Customer struct {
	Name    string `json:"name" db:"name"`
	Address string `json:"address" db:"address"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Email   string `json:"email,omitempty" db:"email"`
	Notes   string `json:"notes,omitempty" db:"notes"`
}

// ServiceSelection mirrors the three services offered on an estimate.
// Mowing is the area-based line; the other two are flat fees that are only
// billed (and persisted) while toggled on.
type ServiceSelection struct {
	Mowing  bool `json:"mowing"`
	Shrubs  bool `json:"shrubs"`
	Cleanup bool `json:"cleanup"`

	ShrubPrice   float64 `json:"shrub_price"`
	CleanupPrice float64 `json:"cleanup_price"`
}

// DefaultServices returns the selection a fresh estimate starts with:
// mowing on, extras off.
func DefaultServices() ServiceSelection {
	return ServiceSelection{Mowing: true}
}

// EstimateRecord is the durable estimate entity. Records are created once at
// explicit save and never updated or deleted (append-only store).
//
// Column names match the historical estimates table: extras are stored as
// dedicated shrub_price/cleanup_price columns rather than a generic line-item
// table, and lawn_area is whole square feet.
type EstimateRecord struct {
	ID string `json:"id" db:"id"`

	Customer Customer `json:"customer" db:"-"`

	LawnArea     int64   `json:"lawn_area" db:"lawn_area"`
	RateUsed     float64 `json:"rate_used" db:"rate_used"`
	ShrubPrice   float64 `json:"shrub_price" db:"shrub_price"`
	CleanupPrice float64 `json:"cleanup_price" db:"cleanup_price"`
	FinalPrice   float64 `json:"final_price" db:"final_price"`

	// Geometry preserves the measured parcels as drawn, one single-ring
	// polygon per finished shape. Stored as GeoJSON in a jsonb column.
	Geometry orb.MultiPolygon `json:"geometry,omitempty" db:"geometry"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PageInfo describes cursor pagination state for list responses.
type PageInfo struct {
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// GeoResult is a resolved address lookup from the geocoding provider.
type GeoResult struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Formatted string  `json:"formatted_address"`
}
