// Package main implements the measure CLI tool for computing lawn areas from
// a GeoJSON file without running the API server.
//
// Usage:
//
//	go run ./cmd/tools/measure lawn.geojson
//	go run ./cmd/tools/measure --rate 0.009 lawn.geojson
//
// The input is a GeoJSON Feature, FeatureCollection, or bare geometry holding
// Polygon or MultiPolygon shapes. Each outer ring is measured independently
// and the per-ring areas are summed, matching how the API prices a drawn
// estimate. With --rate set, the tool also prints the mowing quote.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"mowquote/internal/geo"
	"mowquote/internal/pricing"
)

var cli struct {
	Rate    float64 `help:"Price the measured area at this $/sq ft rate using the standard minimum charge." default:"0"`
	Shrub   float64 `help:"Add a shrub trimming flat fee to the quote." default:"0"`
	Cleanup float64 `help:"Add a lawn clean-up flat fee to the quote." default:"0"`

	File string `arg:"" help:"GeoJSON file with the shapes to measure." type:"existingfile"`
}

func main() {
	ctx := kong.Parse(&cli, kong.ShortUsageOnError())

	raw, err := os.ReadFile(cli.File)
	ctx.FatalIfErrorf(err)

	rings, err := extractRings(raw)
	ctx.FatalIfErrorf(err)
	if len(rings) == 0 {
		ctx.Fatalf("no polygon shapes found in %s", cli.File)
	}

	var total int64
	for i, ring := range rings {
		area := geo.RingArea(ring)
		total += area
		fmt.Printf("shape %d: %s sq ft\n", i+1, humanize.Comma(area))
	}
	fmt.Printf("total: %s sq ft\n", humanize.Comma(total))

	if cli.Rate > 0 {
		var items []pricing.LineItem
		if cli.Shrub != 0 {
			items = append(items, pricing.LineItem{Label: "Shrub Trimming", Price: cli.Shrub})
		}
		if cli.Cleanup != 0 {
			items = append(items, pricing.LineItem{Label: "Lawn Clean-up", Price: cli.Cleanup})
		}

		quote := pricing.Compute(pricing.Inputs{
			AreaSqFt:          total,
			RatePerSqFt:       cli.Rate,
			AreaServiceActive: true,
			Items:             items,
		})
		fmt.Printf("mowing at $%g/sq ft: $%.2f", cli.Rate, quote.AreaCost)
		if quote.MinimumApplied {
			fmt.Print(" (minimum charge)")
		}
		fmt.Println()
		for _, item := range quote.Items {
			fmt.Printf("%s: $%.2f\n", item.Label, item.Price)
		}
		fmt.Printf("total: $%.2f\n", quote.Total)
	}
}

// extractRings pulls the outer ring of every polygon in the document. Holes
// are ignored, matching the drawing surface which only supports simple
// outlines.
func extractRings(raw []byte) ([]orb.Ring, error) {
	var geoms []orb.Geometry

	if fc, err := geojson.UnmarshalFeatureCollection(raw); err == nil {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(raw); err == nil {
		geoms = append(geoms, f.Geometry)
	} else if g, err := geojson.UnmarshalGeometry(raw); err == nil {
		geoms = append(geoms, g.Geometry())
	} else {
		return nil, fmt.Errorf("parsing GeoJSON: %w", err)
	}

	var rings []orb.Ring
	for _, g := range geoms {
		switch shape := g.(type) {
		case orb.Polygon:
			if len(shape) > 0 {
				rings = append(rings, shape[0])
			}
		case orb.MultiPolygon:
			for _, poly := range shape {
				if len(poly) > 0 {
					rings = append(rings, poly[0])
				}
			}
		}
	}
	return rings, nil
}
