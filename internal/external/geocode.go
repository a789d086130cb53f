package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mowquote/internal/config"
	"mowquote/internal/types"
)

// errCodeNotFoundAddress maps to 404 via the not_found_ prefix.
const errCodeNotFoundAddress types.ErrorCode = "not_found_address"

// GeocodeClientConfig configures a GeocodeClient.
type GeocodeClientConfig struct {
	Geocode config.GeocodeConfig
	Logger  *slog.Logger
}

// GeocodeClient resolves service addresses to coordinates using the Google
// Geocoding API. Lookups are idempotent, so the default retry policy applies.
type GeocodeClient struct {
	base   *BaseClient
	cfg    config.GeocodeConfig
	logger *slog.Logger
}

func NewGeocodeClient(httpClient *http.Client, cfg GeocodeClientConfig) *GeocodeClient {
	base := NewBaseClient(httpClient, "geocoder", DefaultRetryPolicy(), "MowQuote/1.0")
	return newGeocodeClient(base, cfg)
}

// NewGeocodeClientWithBase injects a pre-built BaseClient for tests.
func NewGeocodeClientWithBase(base *BaseClient, cfg GeocodeClientConfig) *GeocodeClient {
	return newGeocodeClient(base, cfg)
}

func newGeocodeClient(base *BaseClient, cfg GeocodeClientConfig) *GeocodeClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GeocodeClient{base: base, cfg: cfg.Geocode, logger: logger}
}

// geocodeResponse is the subset of the Google Geocoding API response we use.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Lookup resolves an address to coordinates. Ambiguous addresses are biased
// toward the configured service area via a bounds box around the bias point.
func (c *GeocodeClient) Lookup(ctx context.Context, address string) (*types.GeoResult, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.cfg.APIKey.Unmask())
	q.Set("bounds", fmt.Sprintf("%f,%f|%f,%f",
		c.cfg.BiasLat-0.5, c.cfg.BiasLng-0.5,
		c.cfg.BiasLat+0.5, c.cfg.BiasLng+0.5,
	))

	reqURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/maps/api/geocode/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create geocode request", err)
	}

	start := time.Now()
	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamGeocoder,
			fmt.Sprintf("geocoder returned %d", resp.StatusCode),
			nil,
		)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamGeocoder, "geocoder response unreadable", err)
	}

	switch decoded.Status {
	case "OK":
		// Fall through to result extraction.
	case "ZERO_RESULTS":
		return nil, types.NewAppError(errCodeNotFoundAddress, "no results for address", nil)
	case "OVER_QUERY_LIMIT":
		return nil, types.NewAppError(types.ErrCodeUpstreamRateLimited, "geocoder quota exceeded", nil)
	default:
		return nil, types.NewAppError(
			types.ErrCodeUpstreamGeocoder,
			"geocoder returned status "+decoded.Status,
			nil,
		)
	}

	if len(decoded.Results) == 0 {
		return nil, types.NewAppError(errCodeNotFoundAddress, "no results for address", nil)
	}

	best := decoded.Results[0]
	c.logger.Debug("address geocoded",
		slog.String("address", address),
		slog.Duration("duration", time.Since(start)),
	)

	return &types.GeoResult{
		Lat:       best.Geometry.Location.Lat,
		Lng:       best.Geometry.Location.Lng,
		Formatted: best.FormattedAddress,
	}, nil
}
