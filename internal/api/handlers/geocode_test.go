package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mowquote/internal/core"
	"mowquote/internal/types"
)

type fakeResolver struct {
	lookupFn func(ctx context.Context, address string) (*types.GeoResult, error)
}

func (f *fakeResolver) Lookup(ctx context.Context, address string) (*types.GeoResult, error) {
	return f.lookupFn(ctx, address)
}

func newGeocodeRouter(resolver AddressResolver) *chi.Mux {
	h := NewGeocodeHandler(resolver, core.NewValidator(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestResolveReturnsCoordinates(t *testing.T) {
	resolver := &fakeResolver{
		lookupFn: func(_ context.Context, address string) (*types.GeoResult, error) {
			assert.Equal(t, "123 Palm Ave", address)
			return &types.GeoResult{Lat: 26.12, Lng: -80.14, Formatted: "123 Palm Ave, FL"}, nil
		},
	}
	router := newGeocodeRouter(resolver)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/geocode",
		strings.NewReader(`{"address":"123 Palm Ave"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lat":26.12`)
}

func TestResolveRequiresAddress(t *testing.T) {
	router := newGeocodeRouter(&fakeResolver{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"address":""}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveUpstreamFailureIs502(t *testing.T) {
	resolver := &fakeResolver{
		lookupFn: func(context.Context, string) (*types.GeoResult, error) {
			return nil, types.NewAppError(types.ErrCodeUpstreamGeocoder, "geocoder returned 503", nil)
		},
	}
	router := newGeocodeRouter(resolver)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/geocode",
		strings.NewReader(`{"address":"123 Palm Ave"}`)))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
