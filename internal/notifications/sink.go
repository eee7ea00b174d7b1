package notifications

import (
	"context"

	"github.com/angelmondragon/workshop-backend/pkg/config"
	"github.com/angelmondragon/workshop-backend/pkg/telegram"
)

// Sink delivers a rendered message to an external channel.
type Sink interface {
	Send(ctx context.Context, message string) error
}

// NopSink drops every message.
type NopSink struct{}

func (NopSink) Send(context.Context, string) error { return nil }

// NewSink returns the Telegram sink when credentials are configured and a
// no-op sink otherwise.
func NewSink(cfg config.TelegramConfig) (Sink, error) {
	if !cfg.Enabled() {
		return NopSink{}, nil
	}
	return telegram.NewClient(cfg.BotToken, cfg.ChatID,
		telegram.WithBaseURL(cfg.BaseURL),
		telegram.WithTimeout(cfg.Timeout),
	)
}
