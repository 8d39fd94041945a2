// Package notify defines the outbound notification adapters and an HTTP
// gateway implementation for each channel.
package notify

import "context"

// EmailSender delivers an email notification.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) error
}

// SMSSender delivers an SMS notification.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// WhatsAppSender delivers a WhatsApp notification.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, message string) error
}
