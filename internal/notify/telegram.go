package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Alias1177/Rebalancer/models"
)

// Telegram caps message text at 4096 characters
const maxMessageRunes = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers alerts to a Telegram chat. The recipient is the chat ID.
type Telegram struct {
	bot    sender
	logger zerolog.Logger
}

// NewTelegram authorizes the bot token and returns a notifier
func NewTelegram(token string, logger zerolog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}

	t := newTelegram(bot, logger)
	t.logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
	return t, nil
}

func newTelegram(bot sender, logger zerolog.Logger) *Telegram {
	return &Telegram{
		bot:    bot,
		logger: logger.With().Str("component", "telegram_notifier").Logger(),
	}
}

// Send posts subject and body as one plain-text message
func (t *Telegram) Send(ctx context.Context, subject, body, recipient string) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(recipient), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid telegram chat id %q", models.ErrNotify, recipient)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrNotify, err)
	}

	msg := tgbotapi.NewMessage(chatID, truncate(subject+"\n\n"+body, maxMessageRunes))
	msg.DisableWebPagePreview = true

	sent, err := t.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("%w: telegram send to %d: %w", models.ErrNotify, chatID, err)
	}

	t.logger.Info().Int64("chat_id", chatID).Int("message_id", sent.MessageID).Str("subject", subject).Msg("Alert sent")
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
