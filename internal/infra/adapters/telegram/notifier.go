// File: internal/infra/adapters/telegram/notifier.go
package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/config"
	"ai-creative-suite/internal/domain/ports/adapter"
)

var _ adapter.AdminNotifier = (*Notifier)(nil)

// Notifier pushes operational alerts (grant failures, reconciler findings) to
// the configured admin chats. Delivery is best effort; a dead bot must never
// block settlement.
type Notifier struct {
	bot      *tgbotapi.BotAPI
	adminIDs []int64
	log      *zerolog.Logger
}

func NewNotifier(cfg *config.TelegramConfig, logger *zerolog.Logger) (*Notifier, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("telegram token empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	compLog := logger.With().Str("component", "TelegramNotifier").Logger()
	return &Notifier{bot: bot, adminIDs: cfg.AdminIDs, log: &compLog}, nil
}

func (n *Notifier) NotifyAdmins(ctx context.Context, message string) error {
	var lastErr error
	for _, id := range n.adminIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg := tgbotapi.NewMessage(id, message)
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn().Err(err).Int64("admin_id", id).Msg("admin notification failed")
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier is used when no bot token is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAdmins(context.Context, string) error { return nil }
