package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mowquote/internal/config"
	"mowquote/internal/types"
)

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		ResendAPIKey: types.SecretString("re_test_key"),
		FromAddress:  "onboarding@resend.dev",
		FromName:     "Sharp Lawn Mowing",
	}
}

func TestSendEstimatePayload(t *testing.T) {
	var captured resendPayload
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	client := NewResendClient(srv.Client(), ResendClientConfig{
		Email:   testEmailConfig(),
		BaseURL: srv.URL,
	})

	body, err := client.SendEstimate(context.Background(), EstimateEmail{
		To:           "pat@example.com",
		CustomerName: "Pat O'Neil",
		Address:      "123 Palm Ave",
		PDFBase64:    "JVBERi0xLjc=",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"email_123"}`, string(body))

	assert.Equal(t, "Bearer re_test_key", auth)
	assert.Equal(t, "Sharp Lawn Mowing <onboarding@resend.dev>", captured.From)
	assert.Equal(t, []string{"pat@example.com"}, captured.To)
	assert.Equal(t, "Estimate for Lawn Services at 123 Palm Ave", captured.Subject)
	assert.Contains(t, captured.HTML, "Hello Pat O'Neil,")
	require.Len(t, captured.Attachments, 1)
	assert.Equal(t, "Lawn_Estimate_Pat_O'Neil.pdf", captured.Attachments[0].Filename)
	assert.Equal(t, "JVBERi0xLjc=", captured.Attachments[0].Content)
}

func TestSendEstimateSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewResendClient(srv.Client(), ResendClientConfig{
		Email:   testEmailConfig(),
		BaseURL: srv.URL,
	})

	_, err := client.SendEstimate(context.Background(), EstimateEmail{
		To: "pat@example.com", CustomerName: "Pat", Address: "123 Palm Ave", PDFBase64: "AA==",
	})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, int32(1), calls.Load(), "email sends must never retry")
}

func TestSendEstimateProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	client := NewResendClient(srv.Client(), ResendClientConfig{
		Email:   testEmailConfig(),
		BaseURL: srv.URL,
	})

	_, err := client.SendEstimate(context.Background(), EstimateEmail{
		To: "not-an-email", CustomerName: "Pat", Address: "123 Palm Ave", PDFBase64: "AA==",
	})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamEmailProvider, appErr.Code)
	assert.Contains(t, appErr.Message, "422")
}

func TestAttachmentFileName(t *testing.T) {
	assert.Equal(t, "Lawn_Estimate_Pat_O_Brien.pdf", attachmentFileName("Pat  O_Brien"))
	assert.Equal(t, "Lawn_Estimate_Jo.pdf", attachmentFileName(" Jo "))
}
