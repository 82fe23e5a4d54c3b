// Package telegram is a concrete notify.Notifier backed by
// go-telegram-bot-api/v5, one of the retrieved pack's domain dependencies
// (SPEC_FULL.md §B).
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/inetpeople/instabot-trader/pkg/utils"
)

// Sink sends notify(message)/alert-extractor text to a single Telegram
// chat. It is a demonstration collaborator (SPEC_FULL.md §C): the notifier
// interface itself is core, this is one concrete sink.
type Sink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *utils.Logger
}

// New builds a Sink from a bot token and destination chat id.
func New(token string, chatID int64) (*Sink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}
	return &Sink{bot: bot, chatID: chatID, log: utils.L().WithComponent("notify.telegram")}, nil
}

func (s *Sink) Send(ctx context.Context, message string) error {
	if message == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(s.chatID, message)
	if _, err := s.bot.Send(msg); err != nil {
		s.log.Warn("telegram send failed", utils.Err(err))
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
