package poolmetrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/Rebalancer/internal/analysis/technical"
	"github.com/Alias1177/Rebalancer/internal/api/thegraph"
	"github.com/Alias1177/Rebalancer/models"
)

// DefaultLookbackDays is the volatility window
const DefaultLookbackDays = 7

// Source is the subgraph surface the collector reads from
type Source interface {
	Pool(ctx context.Context, poolID string) (*thegraph.Pool, error)
	PoolDayData(ctx context.Context, poolID string, days int) ([]thegraph.PoolDayData, error)
}

// Collector implements models.MetricsProvider on top of a pool subgraph
type Collector struct {
	source       Source
	lookbackDays int
	lenient      bool
	logger       zerolog.Logger
	now          func() time.Time
}

// Options tunes the collector
type Options struct {
	LookbackDays int
	// Lenient replaces a missing pool, tick or sqrtPrice with zero instead of failing
	Lenient bool
}

// NewCollector creates a metrics collector
func NewCollector(source Source, opts Options, logger zerolog.Logger) *Collector {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}
	return &Collector{
		source:       source,
		lookbackDays: opts.LookbackDays,
		lenient:      opts.Lenient,
		logger:       logger.With().Str("component", "pool_metrics").Logger(),
		now:          time.Now,
	}
}

// GetCurrentMetrics returns tick, price, daily volatility and 24h volume of a pool
func (c *Collector) GetCurrentMetrics(ctx context.Context, poolID string) (models.PoolMetrics, error) {
	metrics := models.PoolMetrics{PoolID: strings.ToLower(poolID)}

	pool, err := c.source.Pool(ctx, poolID)
	if err != nil {
		return metrics, fmt.Errorf("fetching pool: %w", err)
	}
	if err := c.applyPool(&metrics, pool); err != nil {
		return metrics, err
	}

	days, err := c.source.PoolDayData(ctx, poolID, c.lookbackDays)
	if err != nil {
		return metrics, fmt.Errorf("fetching pool day data: %w", err)
	}

	prices := make([]float64, 0, len(days))
	for _, day := range days {
		price, err := technical.SqrtPriceX96ToPrice(day.SqrtPrice)
		if err != nil {
			return metrics, fmt.Errorf("day %d: %w", day.Date, err)
		}
		prices = append(prices, price)
	}

	metrics.Volatility, err = technical.DailyVolatility(prices)
	if err != nil {
		return metrics, err
	}

	if len(days) > 0 {
		metrics.Volume24h = &models.DayVolume{
			Date:         days[0].Date,
			VolumeToken0: days[0].VolumeToken0,
			VolumeToken1: days[0].VolumeToken1,
		}
	}
	metrics.FetchedAt = c.now().UTC()

	c.logger.Debug().
		Str("pool", metrics.PoolID).
		Int("tick", metrics.Tick).
		Float64("price", metrics.Price).
		Float64("volatility", metrics.Volatility).
		Int("days", len(days)).
		Msg("Collected pool metrics")

	return metrics, nil
}

func (c *Collector) applyPool(metrics *models.PoolMetrics, pool *thegraph.Pool) error {
	if pool == nil {
		if !c.lenient {
			return fmt.Errorf("%w: pool %s not found", models.ErrMalformedData, metrics.PoolID)
		}
		c.logger.Warn().Str("pool", metrics.PoolID).Msg("Pool not found, defaulting tick and price to 0")
		return nil
	}

	metrics.SqrtPrice = pool.SqrtPrice
	metrics.Liquidity = pool.Liquidity
	metrics.VolumeUSD = pool.VolumeUSD

	switch {
	case pool.Tick != nil && *pool.Tick != "":
		tick, err := strconv.Atoi(*pool.Tick)
		if err != nil {
			return fmt.Errorf("%w: tick %q: %w", models.ErrMalformedData, *pool.Tick, err)
		}
		metrics.Tick = tick
	case c.lenient:
		c.logger.Warn().Str("pool", metrics.PoolID).Msg("Pool has no tick, defaulting to 0")
	default:
		return fmt.Errorf("%w: pool %s has no tick", models.ErrMalformedData, metrics.PoolID)
	}

	switch {
	case pool.SqrtPrice != "":
		price, err := technical.SqrtPriceX96ToPrice(pool.SqrtPrice)
		if err != nil {
			return err
		}
		metrics.Price = price
	case c.lenient:
		c.logger.Warn().Str("pool", metrics.PoolID).Msg("Pool has no sqrtPrice, defaulting price to 0")
	default:
		return fmt.Errorf("%w: pool %s has no sqrtPrice", models.ErrMalformedData, metrics.PoolID)
	}

	return nil
}
