package cmd

import (
	"log/slog"

	"github.com/civicops/complaintflow/pkg/registry"
)

// NewRegistry builds the notification channel registry with the native
// gateway-backed factories registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterSender(registry.GatewayEmailFactory{})
	reg.RegisterSender(registry.GatewaySMSFactory{})
	reg.RegisterSender(registry.GatewayWhatsAppFactory{})

	return reg
}
