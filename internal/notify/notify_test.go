package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Rebalancer/models"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	n := newTelegram(bot, zerolog.Nop())

	err := n.Send(context.Background(), "Rebalance Alert: Create Position", "details", "-100123")
	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	assert.EqualValues(t, -100123, bot.sent[0].ChatID)
	assert.Equal(t, "Rebalance Alert: Create Position\n\ndetails", bot.sent[0].Text)
	assert.Empty(t, bot.sent[0].ParseMode)
}

func TestTelegramSendErrors(t *testing.T) {
	n := newTelegram(&fakeBot{}, zerolog.Nop())
	assert.ErrorIs(t, n.Send(context.Background(), "s", "b", "not-a-chat"), models.ErrNotify)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := n.Send(ctx, "s", "b", "1")
	assert.ErrorIs(t, err, models.ErrNotify)
	assert.ErrorIs(t, err, context.Canceled)

	failing := newTelegram(&fakeBot{err: errors.New("Forbidden: bot was blocked by the user")}, zerolog.Nop())
	err = failing.Send(context.Background(), "s", "b", "1")
	assert.ErrorIs(t, err, models.ErrNotify)
	assert.Contains(t, err.Error(), "blocked")
}

func TestTelegramTruncatesLongMessages(t *testing.T) {
	bot := &fakeBot{}
	n := newTelegram(bot, zerolog.Nop())

	require.NoError(t, n.Send(context.Background(), "s", strings.Repeat("ж", 5000), "1"))
	assert.Len(t, []rune(bot.sent[0].Text), maxMessageRunes)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(zerolog.New(&buf))

	require.NoError(t, n.Send(context.Background(), "subject line", "body text", "ops"))
	assert.Contains(t, buf.String(), "subject line")
	assert.Contains(t, buf.String(), "body text")
}

type funcNotifier func(ctx context.Context, subject, body, recipient string) error

func (f funcNotifier) Send(ctx context.Context, subject, body, recipient string) error {
	return f(ctx, subject, body, recipient)
}

func TestMulti(t *testing.T) {
	calls := 0
	ok := funcNotifier(func(context.Context, string, string, string) error { calls++; return nil })
	bad := funcNotifier(func(context.Context, string, string, string) error { calls++; return errors.New("smtp down") })

	require.NoError(t, Multi{ok, ok}.Send(context.Background(), "s", "b", "r"))
	assert.Equal(t, 2, calls)

	err := Multi{bad, ok}.Send(context.Background(), "s", "b", "r")
	assert.ErrorIs(t, err, models.ErrNotify)
	assert.Equal(t, 4, calls, "one failure does not stop the others")
}
