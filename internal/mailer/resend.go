package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const defaultEndpoint = "https://api.resend.com/emails"

// ResendConfig configures the Resend transactional email client.
type ResendConfig struct {
	APIKey   string
	Endpoint string
	From     string
	Timeout  time.Duration
}

// ResendMailer sends one-time codes through the Resend HTTP API.
type ResendMailer struct {
	cfg        ResendConfig
	httpClient *http.Client
	logger     *zap.Logger
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// NewResendMailer builds a mailer. It fails without an API key.
func NewResendMailer(cfg ResendConfig, logger *zap.Logger) (*ResendMailer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendMailer{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}, nil
}

// SendCode emails code to the recipient.
func (m *ResendMailer) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	body, err := json.Marshal(resendRequest{
		From:    m.cfg.From,
		To:      []string{to},
		Subject: "Your PharmaT verification code",
		Text:    fmt.Sprintf("Your verification code is: %s. It expires in %d minutes.", code, int(ttl.Minutes())),
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		m.logger.Warn("resend rejected email",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", detail))
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
