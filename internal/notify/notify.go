package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Rebalancer/models"
)

// Log writes alerts to the logger instead of delivering them
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a notifier that only logs alerts
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "log_notifier").Logger()}
}

// Send logs the alert at warn level and never fails
func (l *Log) Send(ctx context.Context, subject, body, recipient string) error {
	l.logger.Warn().Str("recipient", recipient).Str("subject", subject).Msg(body)
	return nil
}

// Multi fans an alert out to several notifiers and fails if any of them fails
type Multi []models.Notifier

// Send delivers to every notifier and joins their errors
func (m Multi) Send(ctx context.Context, subject, body, recipient string) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, subject, body, recipient); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	if errors.Is(err, models.ErrNotify) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrNotify, err)
}
