package notify

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crm-call-insights/internal/domain/ports/adapter"
	"crm-call-insights/internal/infra/metrics"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier delivers pipeline summaries to an ops chat. Sends are
// retried briefly; a send that still fails is the caller's to swallow.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat id empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second

	err := backoff.Retry(func() error {
		msg := tgbotapi.NewMessage(n.chatID, text)
		_, err := n.bot.Send(msg)
		return err
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		metrics.IncNotification("error")
		return err
	}
	metrics.IncNotification("ok")
	return nil
}
