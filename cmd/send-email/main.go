// Package main is the entrypoint for the send-email Lambda function.
//
// It exposes the estimate email endpoint behind API Gateway: a POST with the
// recipient, customer name, service address, and base64 PDF is forwarded to
// the email provider, and the provider's raw response body is returned to the
// caller on success.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/kelseyhightower/envconfig"

	"mowquote/internal/config"
	"mowquote/internal/external"
)

// estimateMailer is the slice of the Resend client this function uses.
type estimateMailer interface {
	SendEstimate(ctx context.Context, in external.EstimateEmail) ([]byte, error)
}

// sendRequest mirrors the JSON body posted by the estimate UI.
type sendRequest struct {
	Email        string `json:"email"`
	CustomerName string `json:"customerName"`
	Address      string `json:"address"`
	PDFBase64    string `json:"pdfBase64"`
}

// Handler holds the dependencies for the Lambda handler.
type Handler struct {
	mailer estimateMailer
	logger *slog.Logger
}

// Handle processes one API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Body:       "Method Not Allowed",
		}, nil
	}

	var body sendRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		h.logger.Error("failed to parse request body", "error", err)
		return errorResponse("invalid request body"), nil
	}

	providerBody, err := h.mailer.SendEstimate(ctx, external.EstimateEmail{
		To:           body.Email,
		CustomerName: body.CustomerName,
		Address:      body.Address,
		PDFBase64:    body.PDFBase64,
	})
	if err != nil {
		h.logger.Error("failed to send estimate email", "error", err, "address", body.Address)
		return errorResponse("failed to send email"), nil
	}

	h.logger.Info("estimate email sent", "address", body.Address)
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(providerBody),
	}, nil
}

func errorResponse(msg string) events.APIGatewayProxyResponse {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusInternalServerError,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(payload),
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Only the email settings are needed here; the full Config would demand
	// database and geocoder credentials this function never uses.
	var emailCfg config.EmailConfig
	if err := envconfig.Process("", &emailCfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if emailCfg.ResendAPIKey.Unmask() == "" {
		logger.Error("RESEND_API_KEY is not set")
		os.Exit(1)
	}

	mailer := external.NewResendClient(&http.Client{Timeout: 15 * time.Second}, external.ResendClientConfig{
		Email:  emailCfg,
		Logger: logger,
	})

	h := &Handler{mailer: mailer, logger: logger}
	lambda.Start(h.Handle)
}
