package notification

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramTransport struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramTransport wraps a bot API client as a Transport.
func NewTelegramTransport(bot *tgbotapi.BotAPI) Transport {
	return &telegramTransport{bot: bot}
}

func (t *telegramTransport) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
