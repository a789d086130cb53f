// Package geo computes geodesic ground areas for operator-drawn parcels.
//
// Rings are sequences of orb.Point vertices (lng, lat order, matching orb and
// GeoJSON). A ring is implicitly closed: the last vertex connects back to the
// first. Area is computed on a sphere of the mean Earth radius via
// spherical-excess accumulation, matching the spherical geometry primitive
// the original estimator front-end relied on.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// EarthRadiusMeters is the mean Earth radius used for spherical area.
	EarthRadiusMeters = 6371009.0

	// SquareFeetPerSquareMeter converts m² to ft².
	SquareFeetPerSquareMeter = 10.7639
)

// RingArea returns the geodesic area of the ring in whole square feet,
// rounded to the nearest integer. Rings with fewer than three vertices are
// incomplete and measure zero. Self-intersecting rings are accepted as-is.
func RingArea(ring orb.Ring) int64 {
	m2 := ringAreaMeters(ring)
	return int64(math.Round(m2 * SquareFeetPerSquareMeter))
}

// TotalArea sums the independently rounded area of each ring. Rounding per
// ring before summation is a deliberate contract: estimates for adjoining
// parcels must reproduce the same last digit regardless of how the total is
// recomputed.
func TotalArea(rings []orb.Ring) int64 {
	var total int64
	for _, r := range rings {
		total += RingArea(r)
	}
	return total
}

// ringAreaMeters returns the unsigned spherical area of the ring in m².
//
// The accumulation walks the ring edge by edge, summing the signed excess of
// the polar triangle each edge forms with the pole. The magnitude of the sum,
// scaled by R², is the enclosed area; the sign only encodes winding order.
func ringAreaMeters(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}

	prev := ring[len(ring)-1]
	prevTanLat := math.Tan((math.Pi/2 - radians(prev.Lat())) / 2)
	prevLng := radians(prev.Lon())

	var total float64
	for _, p := range ring {
		tanLat := math.Tan((math.Pi/2 - radians(p.Lat())) / 2)
		lng := radians(p.Lon())

		total += polarTriangleArea(tanLat, lng, prevTanLat, prevLng)

		prevTanLat = tanLat
		prevLng = lng
	}

	return math.Abs(total) * EarthRadiusMeters * EarthRadiusMeters
}

// polarTriangleArea returns the signed spherical excess of the triangle
// formed by the pole and an edge between two vertices, each given by the
// tangent of half its colatitude and its longitude in radians.
func polarTriangleArea(tan1, lng1, tan2, lng2 float64) float64 {
	deltaLng := lng1 - lng2
	t := tan1 * tan2
	return 2 * math.Atan2(t*math.Sin(deltaLng), 1+t*math.Cos(deltaLng))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
