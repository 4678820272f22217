// Package notify delivers scheduled summaries to the farm manager.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/pkg/clients/whatsapp"
)

// Notifier sends a text message to the configured recipient.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Nop drops every message. It is used when WhatsApp is not configured.
type Nop struct {
	Logger *zap.Logger
}

// Notify logs the message at debug level.
func (n Nop) Notify(_ context.Context, message string) error {
	if n.Logger != nil {
		n.Logger.Debug("notification skipped, no channel configured", zap.Int("length", len(message)))
	}
	return nil
}

// WhatsApp sends messages through the WhatsApp Cloud API.
type WhatsApp struct {
	client    whatsapp.Client
	recipient string
	logger    *zap.Logger
}

// NewWhatsApp creates a notifier writing to recipient.
func NewWhatsApp(client whatsapp.Client, recipient string, logger *zap.Logger) *WhatsApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsApp{client: client, recipient: recipient, logger: logger}
}

// Notify sends message as a single text.
func (w *WhatsApp) Notify(ctx context.Context, message string) error {
	resp, err := w.client.SendTextMessage(ctx, whatsapp.SendTextMessageRequest{To: w.recipient, Body: message})
	if err != nil {
		return fmt.Errorf("notify %s: %w", w.recipient, err)
	}
	w.logger.Info("notification sent", zap.String("to", w.recipient), zap.String("message_id", resp.MessageID()))
	return nil
}
