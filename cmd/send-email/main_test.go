package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mowquote/internal/external"
)

type fakeMailer struct {
	sendFn func(ctx context.Context, in external.EstimateEmail) ([]byte, error)
}

func (f *fakeMailer) SendEstimate(ctx context.Context, in external.EstimateEmail) ([]byte, error) {
	return f.sendFn(ctx, in)
}

func newHandler(mailer estimateMailer) *Handler {
	return &Handler{
		mailer: mailer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleSendsEmail(t *testing.T) {
	var got external.EstimateEmail
	h := newHandler(&fakeMailer{
		sendFn: func(_ context.Context, in external.EstimateEmail) ([]byte, error) {
			got = in
			return []byte(`{"id":"email_123"}`), nil
		},
	})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"email":"pat@example.com","customerName":"Pat","address":"123 Palm Ave","pdfBase64":"JVBERi0="}`,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"id":"email_123"}`, resp.Body)
	assert.Equal(t, "pat@example.com", got.To)
	assert.Equal(t, "Pat", got.CustomerName)
	assert.Equal(t, "123 Palm Ave", got.Address)
	assert.Equal(t, "JVBERi0=", got.PDFBase64)
}

func TestHandleRejectsNonPost(t *testing.T) {
	h := newHandler(&fakeMailer{
		sendFn: func(context.Context, external.EstimateEmail) ([]byte, error) {
			t.Fatal("mailer must not be called for non-POST requests")
			return nil, nil
		},
	})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})

	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method Not Allowed", resp.Body)
}

func TestHandleMailerFailureIs500(t *testing.T) {
	h := newHandler(&fakeMailer{
		sendFn: func(context.Context, external.EstimateEmail) ([]byte, error) {
			return nil, errors.New("provider rejected the message")
		},
	})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{"email":"pat@example.com"}`,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "failed to send email")
}

func TestHandleBadBodyIs500(t *testing.T) {
	h := newHandler(&fakeMailer{
		sendFn: func(context.Context, external.EstimateEmail) ([]byte, error) {
			t.Fatal("mailer must not be called for unparseable bodies")
			return nil, nil
		},
	})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Body:       `{not json`,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "invalid request body")
}
