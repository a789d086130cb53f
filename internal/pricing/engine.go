// Package pricing computes estimate totals from measured area and the
// selected services. Everything here is pure: no clock, no randomness, no
// I/O, so identical inputs always produce byte-identical quotes.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultRate is the starting rate per square foot in dollars.
	DefaultRate = 0.02

	// MinimumAreaCharge is the floor applied to the area-based line. A visit
	// has a fixed cost regardless of lawn size, so the floor applies whenever
	// the area service is active, even alongside flat-fee extras.
	MinimumAreaCharge = 50.0
)

// LineItem is a flat-fee add-on, independent of measured area. Negative
// prices are accepted and act as discounts.
type LineItem struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// Inputs are the parameters of a single quote computation.
type Inputs struct {
	// AreaSqFt is the measured total in whole square feet.
	AreaSqFt int64
	// RatePerSqFt is the dollar rate applied to AreaSqFt.
	RatePerSqFt float64
	// AreaServiceActive bills the area line at all. When false the quote is
	// flat fees only and no minimum applies.
	AreaServiceActive bool
	// Items are the active flat-fee lines.
	Items []LineItem
}

// Quote is the full breakdown of a computed total. Amounts carry full float
// precision; rounding to cents happens only at display or persist time via
// RoundCurrency.
type Quote struct {
	RawAreaCost    float64    `json:"raw_area_cost"`
	AreaCost       float64    `json:"area_cost"`
	MinimumApplied bool       `json:"minimum_applied"`
	Items          []LineItem `json:"items,omitempty"`
	ItemTotal      float64    `json:"item_total"`
	Total          float64    `json:"total"`
}

// Compute derives the quote for the given inputs.
func Compute(in Inputs) Quote {
	q := Quote{Items: in.Items}

	if in.AreaServiceActive {
		q.RawAreaCost = float64(in.AreaSqFt) * in.RatePerSqFt
		q.AreaCost = q.RawAreaCost
		if q.RawAreaCost < MinimumAreaCharge {
			q.AreaCost = MinimumAreaCharge
			q.MinimumApplied = true
		}
	}

	for _, item := range in.Items {
		q.ItemTotal += item.Price
	}

	q.Total = q.AreaCost + q.ItemTotal
	return q
}

// ParsePrice converts operator-entered price text to a float. Empty or
// unparseable input defaults to zero; a leading dollar sign is tolerated.
func ParsePrice(s string) float64 {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// RoundCurrency rounds a dollar amount to cents. Applied only at the output
// boundary so repeated recomputation never accumulates rounding error.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
