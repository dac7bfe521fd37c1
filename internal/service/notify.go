package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/screenwatch/internal/config"
)

const maxNotificationLen = 3500

// Notifier delivers user-facing notifications over Telegram. A nil Notifier
// is valid and silently discards everything, so callers never have to check
// whether notifications are configured.
type Notifier struct {
	bot    *bot.Bot
	chatID int64
}

func NewNotifier(cfg *config.Config) (*Notifier, error) {
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return nil, nil
	}
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Notifier{bot: b, chatID: cfg.TelegramChatID}, nil
}

func (n *Notifier) Notify(title, message string) {
	if n == nil {
		return
	}

	if len([]rune(message)) > maxNotificationLen {
		message = string([]rune(message)[:maxNotificationLen-20]) + "\n\n... (truncated)"
	}
	text := fmt.Sprintf("*%s*\n\n%s", title, message)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		slog.Error("failed to send notification", "title", title, "error", err)
	}
}
