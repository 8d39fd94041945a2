// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/civicops/complaintflow/pkg/channels/gochannel"
	"github.com/civicops/complaintflow/pkg/channels/kafka"
	"github.com/civicops/complaintflow/pkg/eventbus"
)

func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		cfg, err := kafka.ConfigFromEnv("complaintflow")
		if err != nil {
			panic(fmt.Errorf("failed to configure Kafka brokers: %w", err))
		}

		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), cfg)
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create gochannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
