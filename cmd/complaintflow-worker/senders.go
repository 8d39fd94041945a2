package main

import (
	"log/slog"

	"github.com/civicops/complaintflow/pkg/cmd"
	"github.com/civicops/complaintflow/pkg/notify"
)

// Senders holds the per-channel notification adapters available to a worker.
// Channels without a configured gateway stay nil and their nodes report
// delivery failure without aborting runs.
type Senders struct {
	Email    notify.EmailSender
	SMS      notify.SMSSender
	WhatsApp notify.WhatsAppSender
}

// NewSenders builds the channel senders from the registry. An empty gateway
// URL leaves every channel unconfigured.
func NewSenders(logger *slog.Logger, gatewayURL, apiKey string) Senders {
	if gatewayURL == "" {
		logger.Warn("No notification gateway configured, notification nodes will report failure")

		return Senders{}
	}

	reg := cmd.NewRegistry(logger)
	config := map[string]any{
		"base_url": gatewayURL,
		"api_key":  apiKey,
	}

	senders := Senders{}

	if sender, err := reg.CreateSender("email", config); err == nil {
		senders.Email = sender.(notify.EmailSender)
	} else {
		logger.Error("Failed to create email sender", "error", err)
	}

	if sender, err := reg.CreateSender("sms", config); err == nil {
		senders.SMS = sender.(notify.SMSSender)
	} else {
		logger.Error("Failed to create sms sender", "error", err)
	}

	if sender, err := reg.CreateSender("whatsapp", config); err == nil {
		senders.WhatsApp = sender.(notify.WhatsAppSender)
	} else {
		logger.Error("Failed to create whatsapp sender", "error", err)
	}

	return senders
}
