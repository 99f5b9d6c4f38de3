package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fbn1986/gerenciador-de-contratos/internal/platform/config"
	"github.com/fbn1986/gerenciador-de-contratos/pkg/email"
)

// Message is one outbound notification.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers a message through some transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// APIMailer talks to a Brevo-compatible transactional e-mail HTTP API.
type APIMailer struct {
	cfg        config.MailerConfig
	httpClient *http.Client
}

func NewAPIMailer(cfg config.MailerConfig) *APIMailer {
	return &APIMailer{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type emailAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendEmailRequest struct {
	Sender      emailAddress   `json:"sender"`
	To          []emailAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type sendEmailResponse struct {
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send posts the message to the delivery API. One shot, no retries.
func (m *APIMailer) Send(ctx context.Context, msg Message) error {
	payload := sendEmailRequest{
		Sender: emailAddress{
			Name:  email.DisplayName(m.cfg.SenderEmail),
			Email: m.cfg.SenderEmail,
		},
		To:          []emailAddress{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/smtp/email", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", m.cfg.APIKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr sendEmailResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("email API returned %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("email API returned %d", resp.StatusCode)
	}
	return nil
}
