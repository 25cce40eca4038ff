// internal/app/system/mailer/mailer.go

// Package mailer sends transactional email through the Brevo REST API.
//
// The platform never talks SMTP directly; every message goes through
// Brevo's /v3/smtp/email endpoint with both a plain-text and an HTML body.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultAPIBase is Brevo's transactional email endpoint prefix.
const DefaultAPIBase = "https://api.brevo.com/v3"

// Mailer sends emails via the Brevo HTTP API.
type Mailer struct {
	apiKey   string
	apiBase  string
	from     string
	fromName string
	client   *http.Client
	log      *zap.Logger
}

// Config holds the configuration for creating a Mailer.
type Config struct {
	APIKey   string
	APIBase  string // override for tests; empty means DefaultAPIBase
	From     string
	FromName string
}

// New creates a new Mailer with the given configuration.
func New(cfg Config, log *zap.Logger) *Mailer {
	base := cfg.APIBase
	if base == "" {
		base = DefaultAPIBase
	}
	return &Mailer{
		apiKey:   cfg.APIKey,
		apiBase:  base,
		from:     cfg.From,
		fromName: cfg.FromName,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// SendContext returns a context suitable for sending mail outside a
// request, e.g. from a goroutine after the response has been written.
func SendContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// FromName returns the configured sender display name.
// This doubles as the application name in email templates.
func (m *Mailer) FromName() string {
	return m.fromName
}

// Email represents an email to be sent.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// brevoPayload mirrors Brevo's smtp/email request body.
type brevoPayload struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent"`
}

type brevoAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Send delivers one email. A non-2xx response from Brevo is returned as an
// error with the response body included for the server log; callers decide
// whether delivery failure is fatal for their flow.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	payload := brevoPayload{
		Sender:      brevoAddress{Name: m.fromName, Email: m.from},
		To:          []brevoAddress{{Name: email.ToName, Email: email.To}},
		Subject:     email.Subject,
		HTMLContent: email.HTMLBody,
		TextContent: email.TextBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiBase+"/smtp/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Error("email request failed",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		m.log.Error("email rejected by provider",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", detail))
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	m.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}
