package registry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/civicops/complaintflow/pkg/notify"
)

// GatewayEmailFactory builds email senders backed by the notification gateway.
type GatewayEmailFactory struct{}

func (GatewayEmailFactory) ID() string { return "email" }

func (GatewayEmailFactory) Create(config map[string]any, logger *slog.Logger) (any, error) {
	cfg, err := gatewayConfig(config)
	if err != nil {
		return nil, err
	}

	return notify.NewGateway(cfg, logger), nil
}

// GatewaySMSFactory builds SMS senders backed by the notification gateway.
type GatewaySMSFactory struct{}

func (GatewaySMSFactory) ID() string { return "sms" }

func (GatewaySMSFactory) Create(config map[string]any, logger *slog.Logger) (any, error) {
	cfg, err := gatewayConfig(config)
	if err != nil {
		return nil, err
	}

	return notify.NewGateway(cfg, logger), nil
}

// GatewayWhatsAppFactory builds WhatsApp senders backed by the notification gateway.
type GatewayWhatsAppFactory struct{}

func (GatewayWhatsAppFactory) ID() string { return "whatsapp" }

func (GatewayWhatsAppFactory) Create(config map[string]any, logger *slog.Logger) (any, error) {
	cfg, err := gatewayConfig(config)
	if err != nil {
		return nil, err
	}

	return notify.NewGateway(cfg, logger), nil
}

func gatewayConfig(config map[string]any) (notify.GatewayConfig, error) {
	baseURL, ok := config["base_url"].(string)
	if !ok || baseURL == "" {
		return notify.GatewayConfig{}, fmt.Errorf("gateway sender requires a 'base_url' config value")
	}

	cfg := notify.GatewayConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}

	if apiKey, ok := config["api_key"].(string); ok {
		cfg.APIKey = apiKey
	}

	if timeout, ok := config["timeout_seconds"].(float64); ok && timeout > 0 {
		cfg.Timeout = time.Duration(timeout) * time.Second
	}

	return cfg, nil
}
