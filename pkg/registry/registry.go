// Package registry wires notification channel factories and validates
// designer-authored workflow definitions.
package registry

import (
	"fmt"
	"log/slog"
)

// SenderFactory builds a channel sender from provider configuration. The
// returned value implements the notify interface for its channel.
type SenderFactory interface {
	ID() string
	Create(config map[string]any, logger *slog.Logger) (any, error)
}

// Registry holds the known notification channel factories.
type Registry struct {
	logger    *slog.Logger
	factories map[string]SenderFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[string]SenderFactory),
	}
}

// RegisterSender adds a channel factory, keyed by its ID.
func (r *Registry) RegisterSender(factory SenderFactory) {
	r.factories[factory.ID()] = factory
}

// CreateSender builds a sender for the given channel id.
func (r *Registry) CreateSender(channel string, config map[string]any) (any, error) {
	factory, ok := r.factories[channel]
	if !ok {
		return nil, fmt.Errorf("notification channel '%s' not registered", channel)
	}

	return factory.Create(config, r.logger)
}

// Channels lists the registered channel ids.
func (r *Registry) Channels() []string {
	channels := make([]string, 0, len(r.factories))
	for id := range r.factories {
		channels = append(channels, id)
	}

	return channels
}
