package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mowquote/internal/config"
	"mowquote/internal/types"
)

// resendAPIBase is the default Resend API base URL. Overridable in tests.
const resendAPIBase = "https://api.resend.com"

// EstimateEmail is one outgoing estimate delivery.
type EstimateEmail struct {
	To           string
	CustomerName string
	Address      string
	PDFBase64    string
}

// ResendClientConfig configures a ResendClient.
type ResendClientConfig struct {
	Email   config.EmailConfig
	BaseURL string // test override; defaults to resendAPIBase
	Logger  *slog.Logger
}

// ResendClient sends estimate emails through the Resend /emails API.
// Sends are single-attempt: BaseClient runs with NoRetryPolicy because a
// duplicate email to a customer cannot be taken back.
type ResendClient struct {
	base    *BaseClient
	cfg     config.EmailConfig
	baseURL string
	logger  *slog.Logger
}

// NewResendClient creates a client with the standard resilience settings.
func NewResendClient(httpClient *http.Client, cfg ResendClientConfig) *ResendClient {
	base := NewBaseClient(httpClient, "resend", NoRetryPolicy(), "MowQuote/1.0")
	return newResendClient(base, cfg)
}

// NewResendClientWithBase injects a pre-built BaseClient for tests.
func NewResendClientWithBase(base *BaseClient, cfg ResendClientConfig) *ResendClient {
	return newResendClient(base, cfg)
}

func newResendClient(base *BaseClient, cfg ResendClientConfig) *ResendClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = resendAPIBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResendClient{
		base:    base,
		cfg:     cfg.Email,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// resendPayload is the Resend POST /emails request body.
type resendPayload struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// SendEstimate delivers the estimate PDF to the customer. On success it
// returns the raw provider response body, which callers pass through to
// their own clients.
func (c *ResendClient) SendEstimate(ctx context.Context, in EstimateEmail) ([]byte, error) {
	payload := resendPayload{
		From:    fmt.Sprintf("%s <%s>", c.cfg.FromName, c.cfg.FromAddress),
		To:      []string{in.To},
		Subject: "Estimate for Lawn Services at " + in.Address,
		HTML:    estimateEmailHTML(in.CustomerName, in.Address, c.cfg.FromName),
		Attachments: []resendAttachment{{
			Filename: attachmentFileName(in.CustomerName),
			Content:  in.PDFBase64,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to marshal email payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create email request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ResendAPIKey.Unmask())

	start := time.Now()
	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamEmailProvider, "email provider response unreadable", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamEmailProvider,
			fmt.Sprintf("email provider returned %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
			nil,
		)
	}

	c.logger.Info("estimate email sent",
		slog.String("to", in.To),
		slog.Duration("duration", time.Since(start)),
	)
	return respBody, nil
}

// estimateEmailHTML builds the message body shown above the attachment.
func estimateEmailHTML(customerName, address, companyName string) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; line-height: 1.5; color: #333;">
  <h2>Hello %s,</h2>
  <p>Thank you for requesting an estimate from <strong>%s</strong>.</p>
  <p>We have attached the estimate for your property at <strong>%s</strong>.</p>
  <p>If you have any questions or would like to get on our schedule, simply reply to this email or give us a call.</p>
  <br />
  <p>Best regards,</p>
  <p><strong>The %s Team</strong></p>
</div>`, customerName, companyName, address, companyName)
}

// attachmentFileName replaces whitespace runs in the customer name with
// underscores, matching the filenames customers already receive.
func attachmentFileName(customerName string) string {
	return "Lawn_Estimate_" + strings.Join(strings.Fields(customerName), "_") + ".pdf"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
