package handlers

import (
	"context"
	"encoding/json"
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
	"mowquote/internal/db"
	"mowquote/internal/estimates"
	"mowquote/internal/external"
	"mowquote/internal/pdfgen"
	"mowquote/internal/pricing"
	"mowquote/internal/types"
)

// --- Function-backed fakes ---

type fakeEstimateService struct {
	quoteFn    func(d estimates.Draft) pricing.Quote
	saveFn     func(ctx context.Context, d estimates.Draft) (*types.EstimateRecord, error)
	getFn      func(ctx context.Context, id string) (*types.EstimateRecord, error)
	listFn     func(ctx context.Context, params db.ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error)
	documentFn func(rec *types.EstimateRecord) pdfgen.EstimateDoc
}

func (f *fakeEstimateService) Quote(d estimates.Draft) pricing.Quote {
	return f.quoteFn(d)
}

func (f *fakeEstimateService) Save(ctx context.Context, d estimates.Draft) (*types.EstimateRecord, error) {
	return f.saveFn(ctx, d)
}

func (f *fakeEstimateService) Get(ctx context.Context, id string) (*types.EstimateRecord, error) {
	return f.getFn(ctx, id)
}

func (f *fakeEstimateService) List(ctx context.Context, params db.ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error) {
	return f.listFn(ctx, params)
}

func (f *fakeEstimateService) Document(rec *types.EstimateRecord) pdfgen.EstimateDoc {
	if f.documentFn != nil {
		return f.documentFn(rec)
	}
	return pdfgen.EstimateDoc{Customer: rec.Customer}
}

type fakeRenderer struct {
	renderFn func(doc pdfgen.EstimateDoc, variant pdfgen.Variant) ([]byte, error)
}

func (f *fakeRenderer) Render(doc pdfgen.EstimateDoc, variant pdfgen.Variant) ([]byte, error) {
	return f.renderFn(doc, variant)
}

type fakeMailer struct {
	sendFn func(ctx context.Context, in external.EstimateEmail) ([]byte, error)
}

func (f *fakeMailer) SendEstimate(ctx context.Context, in external.EstimateEmail) ([]byte, error) {
	return f.sendFn(ctx, in)
}

func newEstimateRouter(svc EstimateService, renderer EstimateRenderer, mailer EstimateMailer) *chi.Mux {
	h := NewEstimateHandler(svc, renderer, mailer, core.NewValidator(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// squareShape is roughly a 30 m square near the default map center.
const squareShape = `{
	"points": [
		{"lat": 26.1224, "lng": -80.1373},
		{"lat": 26.12267, "lng": -80.1373},
		{"lat": 26.12267, "lng": -80.13703},
		{"lat": 26.1224, "lng": -80.13703}
	]
}`

func TestPreviewComputesAreaServerSide(t *testing.T) {
	var gotDraft estimates.Draft
	svc := &fakeEstimateService{
		quoteFn: func(d estimates.Draft) pricing.Quote {
			gotDraft = d
			return pricing.Quote{Total: 50, AreaCost: 50, MinimumApplied: true}
		},
	}
	router := newEstimateRouter(svc, nil, nil)

	body := `{"customer":{},"services":{"mowing":true},"shapes":[` + squareShape + `]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates/preview", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Greater(t, gotDraft.AreaSqFt, int64(0))
	assert.Len(t, gotDraft.Rings, 1)

	var resp struct {
		Data previewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, gotDraft.AreaSqFt, resp.Data.AreaSqFt)
	assert.True(t, resp.Data.Quote.MinimumApplied)
}

func TestPreviewRejectsBadCoordinates(t *testing.T) {
	router := newEstimateRouter(&fakeEstimateService{}, nil, nil)

	body := `{"customer":{},"services":{},"shapes":[{"points":[
		{"lat": 99, "lng": 0}, {"lat": 0, "lng": 0}, {"lat": 1, "lng": 1}
	]}]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates/preview", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")
}

func TestSaveCreated(t *testing.T) {
	svc := &fakeEstimateService{
		saveFn: func(_ context.Context, d estimates.Draft) (*types.EstimateRecord, error) {
			return &types.EstimateRecord{ID: "est_1", Customer: d.Customer, FinalPrice: 150}, nil
		},
	}
	router := newEstimateRouter(svc, nil, nil)

	body := `{"customer":{"name":"Pat","address":"123 Palm Ave"},"services":{"mowing":true},"shapes":[` + squareShape + `]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"est_1"`)
}

func TestSaveZeroAreaReturns400(t *testing.T) {
	svc := &fakeEstimateService{
		saveFn: func(context.Context, estimates.Draft) (*types.EstimateRecord, error) {
			return nil, types.NewAppError(types.ErrCodeValidationZeroArea, "please measure an area first", nil)
		},
	}
	router := newEstimateRouter(svc, nil, nil)

	body := `{"customer":{"name":"Pat","address":"123 Palm Ave"},"services":{"mowing":true}}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_zero_measured_area")
}

func TestGetNotFound(t *testing.T) {
	svc := &fakeEstimateService{
		getFn: func(context.Context, string) (*types.EstimateRecord, error) {
			return nil, types.NewAppError(types.ErrCodeNotFoundEstimate, "estimate not found", nil)
		},
	}
	router := newEstimateRouter(svc, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/estimates/est_missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found_estimate")
}

func TestListPassesPaginationParams(t *testing.T) {
	var gotParams db.ListEstimatesParams
	svc := &fakeEstimateService{
		listFn: func(_ context.Context, params db.ListEstimatesParams) ([]*types.EstimateRecord, types.PageInfo, error) {
			gotParams = params
			return nil, types.PageInfo{}, nil
		},
	}
	router := newEstimateRouter(svc, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/estimates?limit=5&cursor=abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotParams.Limit)
	assert.Equal(t, "abc", gotParams.Cursor)
	// Empty result serializes as an array, not null.
	assert.Contains(t, w.Body.String(), `"estimates":[]`)
}

func TestDownloadPDFHeaders(t *testing.T) {
	svc := &fakeEstimateService{
		getFn: func(context.Context, string) (*types.EstimateRecord, error) {
			return &types.EstimateRecord{ID: "est_1", Customer: types.Customer{Name: "Pat Jones"}}, nil
		},
	}
	renderer := &fakeRenderer{
		renderFn: func(_ pdfgen.EstimateDoc, variant pdfgen.Variant) ([]byte, error) {
			assert.Equal(t, pdfgen.VariantInternal, variant)
			return []byte("%PDF-1.7 fake"), nil
		},
	}
	router := newEstimateRouter(svc, renderer, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/estimates/est_1/pdf?variant=internal", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Sharp_Internal_Pat_Jones.pdf")
	assert.Equal(t, "%PDF-1.7 fake", w.Body.String())
}

func TestDownloadPDFUnknownVariant(t *testing.T) {
	router := newEstimateRouter(&fakeEstimateService{}, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/estimates/est_1/pdf?variant=draft", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendUsesStoredRecipient(t *testing.T) {
	svc := &fakeEstimateService{
		getFn: func(context.Context, string) (*types.EstimateRecord, error) {
			return &types.EstimateRecord{
				ID:       "est_1",
				Customer: types.Customer{Name: "Pat", Address: "123 Palm Ave", Email: "pat@example.com"},
			}, nil
		},
	}
	renderer := &fakeRenderer{
		renderFn: func(_ pdfgen.EstimateDoc, variant pdfgen.Variant) ([]byte, error) {
			assert.Equal(t, pdfgen.VariantCustomer, variant)
			return []byte("%PDF"), nil
		},
	}
	var sent external.EstimateEmail
	mailer := &fakeMailer{
		sendFn: func(_ context.Context, in external.EstimateEmail) ([]byte, error) {
			sent = in
			return []byte(`{"id":"email_1"}`), nil
		},
	}
	router := newEstimateRouter(svc, renderer, mailer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates/est_1/send", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pat@example.com", sent.To)
	assert.NotEmpty(t, sent.PDFBase64)
	assert.Contains(t, w.Body.String(), "pat@example.com")
}

func TestSendOverrideRecipient(t *testing.T) {
	svc := &fakeEstimateService{
		getFn: func(context.Context, string) (*types.EstimateRecord, error) {
			return &types.EstimateRecord{ID: "est_1", Customer: types.Customer{Name: "Pat"}}, nil
		},
	}
	renderer := &fakeRenderer{
		renderFn: func(pdfgen.EstimateDoc, pdfgen.Variant) ([]byte, error) {
			return []byte("%PDF"), nil
		},
	}
	var sent external.EstimateEmail
	mailer := &fakeMailer{
		sendFn: func(_ context.Context, in external.EstimateEmail) ([]byte, error) {
			sent = in
			return []byte(`{}`), nil
		},
	}
	router := newEstimateRouter(svc, renderer, mailer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates/est_1/send",
		strings.NewReader(`{"email":"other@example.com"}`)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "other@example.com", sent.To)
}

func TestSendNoRecipientIs400(t *testing.T) {
	svc := &fakeEstimateService{
		getFn: func(context.Context, string) (*types.EstimateRecord, error) {
			return &types.EstimateRecord{ID: "est_1"}, nil
		},
	}
	router := newEstimateRouter(svc, &fakeRenderer{}, &fakeMailer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates/est_1/send", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_invalid_email")
}

func TestSendMailerFailureIs502(t *testing.T) {
	svc := &fakeEstimateService{
		getFn: func(context.Context, string) (*types.EstimateRecord, error) {
			return &types.EstimateRecord{ID: "est_1", Customer: types.Customer{Email: "pat@example.com"}}, nil
		},
	}
	renderer := &fakeRenderer{
		renderFn: func(pdfgen.EstimateDoc, pdfgen.Variant) ([]byte, error) {
			return []byte("%PDF"), nil
		},
	}
	mailer := &fakeMailer{
		sendFn: func(context.Context, external.EstimateEmail) ([]byte, error) {
			return nil, types.NewAppError(types.ErrCodeUpstreamEmailProvider, "email provider returned 500", nil)
		},
	}
	router := newEstimateRouter(svc, renderer, mailer)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/estimates/est_1/send", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream_email_provider_unavailable")
}
