package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultGatewayTimeout = 10 * time.Second

// GatewayConfig configures the HTTP notification gateway client.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Gateway sends notifications through the municipal notification provider's
// HTTP API. It implements EmailSender, SMSSender and WhatsAppSender.
type Gateway struct {
	client *resty.Client
	logger *slog.Logger
}

// NewGateway creates a gateway client for the given provider endpoint.
func NewGateway(config GatewayConfig, logger *slog.Logger) *Gateway {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultGatewayTimeout
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+config.APIKey)

	return &Gateway{
		client: client,
		logger: logger.With("module", "notify_gateway"),
	}
}

// SendEmail posts an email dispatch request to the provider.
func (g *Gateway) SendEmail(ctx context.Context, recipient, subject, body string) error {
	return g.post(ctx, "/v1/email", map[string]string{
		"to":      recipient,
		"subject": subject,
		"body":    body,
	})
}

// SendSMS posts an SMS dispatch request to the provider.
func (g *Gateway) SendSMS(ctx context.Context, to, message string) error {
	return g.post(ctx, "/v1/sms", map[string]string{
		"to":      to,
		"message": message,
	})
}

// SendWhatsApp posts a WhatsApp dispatch request to the provider.
func (g *Gateway) SendWhatsApp(ctx context.Context, to, message string) error {
	return g.post(ctx, "/v1/whatsapp", map[string]string{
		"to":      to,
		"message": message,
	})
}

func (g *Gateway) post(ctx context.Context, path string, payload map[string]string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(path)
	if err != nil {
		return fmt.Errorf("notification gateway request to %s failed: %w", path, err)
	}

	if resp.IsError() {
		g.logger.WarnContext(ctx, "Notification gateway rejected dispatch",
			"path", path, "status", resp.StatusCode())

		return fmt.Errorf("notification gateway returned status %d for %s", resp.StatusCode(), path)
	}

	return nil
}
