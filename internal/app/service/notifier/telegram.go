package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender sends through the Bot API. The user id is the Telegram
// chat id the order bot recorded when creating the payment.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramSender builds the client without the getMe round trip that
// tgbotapi.NewBotAPI performs, so startup does not depend on Telegram.
func NewTelegramSender(token string, timeout time.Duration) *TelegramSender {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
		Buffer: 100,
	}
	bot.SetAPIEndpoint(tgbotapi.APIEndpoint)
	return &TelegramSender{bot: bot}
}

func (s *TelegramSender) Send(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("user id %q is not a telegram chat id: %w", userID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
