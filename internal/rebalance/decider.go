package rebalance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Rebalancer/models"
)

// anchor is the position the decider believes is live
type anchor struct {
	narrow models.Bucket
	wide   models.Bucket
}

// Decider tracks the active bucket of one pool and classifies each new
// bucket computation into a rebalance action.
type Decider struct {
	mu        sync.Mutex
	active    *anchor
	reanchor  bool
	notifier  models.Notifier
	recipient string
	logger    zerolog.Logger
}

// Option configures a Decider
type Option func(*Decider)

// WithReanchor switches the decider to compare ticks against the anchored
// position and to move the anchor whenever a rebalance fires. Without it the
// active bucket is set once and the fresh buckets drive every comparison.
func WithReanchor(enabled bool) Option {
	return func(d *Decider) {
		d.reanchor = enabled
	}
}

// NewDecider creates a decider. A nil notifier disables alerts.
func NewDecider(notifier models.Notifier, recipient string, logger zerolog.Logger, opts ...Option) *Decider {
	d := &Decider{
		notifier:  notifier,
		recipient: recipient,
		logger:    logger.With().Str("component", "rebalance_decider").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ActiveBucket returns the tracked narrow bucket, if any
func (d *Decider) ActiveBucket() (models.Bucket, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return models.Bucket{}, false
	}
	return d.active.narrow, true
}

// Reset forgets the active bucket; the next check creates a position again
func (d *Decider) Reset() {
	d.mu.Lock()
	d.active = nil
	d.mu.Unlock()
}

// Classify places tick relative to a narrow/wide pair. Order matters: the wide
// check assumes the tick already fell outside the narrow bucket.
func Classify(tick int, narrow, wide models.Bucket) models.Action {
	if narrow.Contains(tick) {
		return models.ActionNone
	}
	if !wide.Contains(tick) {
		return models.ActionUrgentRebalance
	}
	return models.ActionModerateRebalance
}

// Check classifies currentTick against the allocation and the held state, then
// sends an alert for every action other than ActionNone. A failed alert is
// reported in the outcome and never changes the decision.
func (d *Decider) Check(ctx context.Context, currentTick int, allocation models.BucketAllocation) models.Outcome {
	decision, message := d.decide(currentTick, allocation)

	outcome := models.Outcome{Decision: decision}
	if decision.Action == models.ActionNone {
		d.logger.Info().Int("tick", currentTick).Msg(message)
		return outcome
	}

	event := d.logger.Info()
	if decision.Action != models.ActionCreatePosition {
		event = d.logger.Warn()
	}
	event.Int("tick", currentTick).Str("action", decision.Action.String()).Msg(message)

	outcome.Notification = d.notify(ctx, decision.Action.Subject(), message)
	return outcome
}

func (d *Decider) decide(tick int, allocation models.BucketAllocation) (models.Decision, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	decision := models.Decision{
		Details: models.DecisionDetails{CurrentTick: tick, Allocation: allocation},
	}
	details := formatDetails(tick, allocation)

	if d.active == nil {
		d.active = &anchor{narrow: allocation.NarrowBucket, wide: allocation.WideBucket}
		decision.RebalanceNeeded = true
		decision.Action = models.ActionCreatePosition
		return decision, fmt.Sprintf("No active bucket. New position would be created with narrow bucket: %s\nWide bucket: %s\nDetails: %s",
			allocation.NarrowBucket, allocation.WideBucket, details)
	}

	narrow, wide := allocation.NarrowBucket, allocation.WideBucket
	if d.reanchor {
		narrow, wide = d.active.narrow, d.active.wide
	}

	decision.Action = Classify(tick, narrow, wide)
	decision.RebalanceNeeded = decision.Action != models.ActionNone

	if d.reanchor && decision.RebalanceNeeded {
		d.active = &anchor{narrow: allocation.NarrowBucket, wide: allocation.WideBucket}
	}

	switch decision.Action {
	case models.ActionNone:
		return decision, fmt.Sprintf("No rebalance needed. Current tick %d is within narrow bucket %s.", tick, narrow)
	case models.ActionUrgentRebalance:
		return decision, fmt.Sprintf("URGENT: Current tick %d is outside the wide bucket %s.\nDetails: %s", tick, wide, details)
	default:
		return decision, fmt.Sprintf("Warning: Current tick %d is outside the narrow bucket %s but within the wide bucket %s.\nDetails: %s",
			tick, narrow, wide, details)
	}
}

func (d *Decider) notify(ctx context.Context, subject, body string) models.NotificationResult {
	if d.notifier == nil {
		d.logger.Debug().Str("subject", subject).Msg("No notifier configured, skipping alert")
		return models.NotificationResult{}
	}

	result := models.NotificationResult{Attempted: true}
	if err := d.notifier.Send(ctx, subject, body, d.recipient); err != nil {
		if !errors.Is(err, models.ErrNotify) {
			err = fmt.Errorf("%w: %w", models.ErrNotify, err)
		}
		d.logger.Error().Err(err).Str("subject", subject).Msg("Failed to deliver rebalance alert")
		result.Err = err
		return result
	}
	result.Delivered = true
	return result
}

func formatDetails(tick int, a models.BucketAllocation) string {
	return fmt.Sprintf("current_tick=%d narrow_bucket=%s narrow_allocation=%.2f wide_bucket=%s wide_allocation=%.2f",
		tick, a.NarrowBucket, a.NarrowWeight, a.WideBucket, a.WideWeight)
}
