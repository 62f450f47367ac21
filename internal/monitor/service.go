package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Rebalancer/internal/allocation"
	"github.com/Alias1177/Rebalancer/internal/rebalance"
	"github.com/Alias1177/Rebalancer/internal/telemetry"
	"github.com/Alias1177/Rebalancer/models"
)

// Service runs monitoring cycles for a single pool
type Service struct {
	provider models.MetricsProvider
	allocCfg models.AllocationConfig
	decider  *rebalance.Decider
	journal  models.DecisionJournal
	recorder *telemetry.Recorder
	poolID   string
	logger   zerolog.Logger
	now      func() time.Time
}

// Options holds the optional collaborators of a Service
type Options struct {
	Journal  models.DecisionJournal
	Recorder *telemetry.Recorder
}

// NewService creates a monitor for poolID
func NewService(
	poolID string,
	provider models.MetricsProvider,
	allocCfg models.AllocationConfig,
	decider *rebalance.Decider,
	opts Options,
	logger zerolog.Logger,
) *Service {
	return &Service{
		provider: provider,
		allocCfg: allocCfg,
		decider:  decider,
		journal:  opts.Journal,
		recorder: opts.Recorder,
		poolID:   poolID,
		logger:   logger.With().Str("component", "monitor").Str("pool", poolID).Logger(),
		now:      time.Now,
	}
}

// Check performs one cycle: fetch metrics, compute buckets, decide and record.
// Fetch and bucket errors abort the cycle before the decider is touched.
func (s *Service) Check(ctx context.Context) (models.CheckResult, error) {
	metrics, err := s.provider.GetCurrentMetrics(ctx, s.poolID)
	if err != nil {
		s.recorder.ObserveError(s.poolID)
		return models.CheckResult{}, fmt.Errorf("fetch metrics: %w", err)
	}

	alloc, err := allocation.CalculateBuckets(metrics.Tick, metrics.Volatility, s.allocCfg)
	if err != nil {
		s.recorder.ObserveError(s.poolID)
		return models.CheckResult{}, fmt.Errorf("calculate buckets: %w", err)
	}

	outcome := s.decider.Check(ctx, metrics.Tick, alloc)
	result := models.CheckResult{
		PoolID:    s.poolID,
		Metrics:   metrics,
		Outcome:   outcome,
		CheckedAt: s.now().UTC(),
	}

	s.logger.Info().
		Int("tick", metrics.Tick).
		Float64("volatility", metrics.Volatility).
		Float64("price", metrics.Price).
		Str("narrow", alloc.NarrowBucket.String()).
		Str("wide", alloc.WideBucket.String()).
		Str("action", outcome.Decision.Action.String()).
		Bool("rebalance_needed", outcome.Decision.RebalanceNeeded).
		Msg("Check completed")

	s.recorder.ObserveCheck(result)

	if s.journal != nil {
		if err := s.journal.RecordDecision(ctx, result); err != nil {
			s.logger.Error().Err(err).Msg("Failed to record decision")
		}
	}

	return result, nil
}

// Name identifies the service as a scheduler job
func (s *Service) Name() string {
	return "rebalance-check:" + s.poolID
}

// Run adapts Check to the scheduler job signature
func (s *Service) Run(ctx context.Context) error {
	_, err := s.Check(ctx)
	return err
}
