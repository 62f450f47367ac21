package models

import (
	"fmt"
	"math"
	"time"
)

// Default allocation parameters
const (
	DefaultVolatilityThreshold = 0.01
	DefaultNarrowRangePct      = 0.001 // ±0.1%
	DefaultWideRangePct        = 0.002 // ±0.2%
)

// Bucket is a closed tick interval backing a liquidity range
type Bucket struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Contains reports whether tick lies inside [Low, High]
func (b Bucket) Contains(tick int) bool {
	return b.Low <= tick && tick <= b.High
}

// Covers reports whether other lies entirely inside b
func (b Bucket) Covers(other Bucket) bool {
	return b.Low <= other.Low && other.High <= b.High
}

func (b Bucket) String() string {
	return fmt.Sprintf("(%d, %d)", b.Low, b.High)
}

// AllocationConfig holds the immutable bucket parameters
type AllocationConfig struct {
	VolatilityThreshold float64 `json:"volatility_threshold" yaml:"volatility_threshold"`
	NarrowRangePct      float64 `json:"narrow_range_pct" yaml:"narrow_range_pct"`
	WideRangePct        float64 `json:"wide_range_pct" yaml:"wide_range_pct"`
}

// DefaultAllocationConfig returns the stock 0.01 / ±0.1% / ±0.2% parameters
func DefaultAllocationConfig() AllocationConfig {
	return AllocationConfig{
		VolatilityThreshold: DefaultVolatilityThreshold,
		NarrowRangePct:      DefaultNarrowRangePct,
		WideRangePct:        DefaultWideRangePct,
	}
}

// Validate rejects non-finite or negative values and configurations where the
// narrow range is not strictly tighter than the wide one.
func (c AllocationConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"volatility threshold", c.VolatilityThreshold},
		{"narrow range pct", c.NarrowRangePct},
		{"wide range pct", c.WideRangePct},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", ErrInvalidInput, f.name, f.value)
		}
	}
	if c.NarrowRangePct >= c.WideRangePct {
		return fmt.Errorf("%w: narrow range pct %v must be below wide range pct %v",
			ErrInvalidInput, c.NarrowRangePct, c.WideRangePct)
	}
	return nil
}

// BucketAllocation is the narrow/wide bucket pair with capital weights
type BucketAllocation struct {
	NarrowBucket Bucket  `json:"narrow_bucket"`
	WideBucket   Bucket  `json:"wide_bucket"`
	NarrowWeight float64 `json:"narrow_allocation"`
	WideWeight   float64 `json:"wide_allocation"`
}

// Action classifies a rebalance decision
type Action int

const (
	ActionNone Action = iota
	ActionCreatePosition
	ActionUrgentRebalance
	ActionModerateRebalance
)

func (a Action) String() string {
	switch a {
	case ActionCreatePosition:
		return "create_position"
	case ActionUrgentRebalance:
		return "urgent_rebalance"
	case ActionModerateRebalance:
		return "moderate_rebalance"
	default:
		return "none"
	}
}

// Subject is the alert subject line; empty for ActionNone
func (a Action) Subject() string {
	switch a {
	case ActionCreatePosition:
		return "Rebalance Alert: Create Position"
	case ActionUrgentRebalance:
		return "Rebalance Alert: Urgent Rebalance Needed"
	case ActionModerateRebalance:
		return "Rebalance Alert: Moderate Rebalance Recommended"
	default:
		return ""
	}
}

// MarshalText lets actions serialize as their string names
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// DecisionDetails carries the inputs a decision was made on
type DecisionDetails struct {
	CurrentTick int              `json:"current_tick"`
	Allocation  BucketAllocation `json:"allocation"`
}

// Decision is the classified outcome of one rebalance check
type Decision struct {
	RebalanceNeeded bool            `json:"rebalance_needed"`
	Action          Action          `json:"action"`
	Details         DecisionDetails `json:"details"`
}

// NotificationResult reports what happened to the alert for a decision
type NotificationResult struct {
	Attempted bool  `json:"attempted"`
	Delivered bool  `json:"delivered"`
	Err       error `json:"-"`
}

// Outcome keeps the computed decision apart from its notification delivery
type Outcome struct {
	Decision     Decision           `json:"decision"`
	Notification NotificationResult `json:"notification"`
}

// DayVolume is the most recent daily traded volume of a pool
type DayVolume struct {
	Date         int64  `json:"date"`
	VolumeToken0 string `json:"volume_token0"`
	VolumeToken1 string `json:"volume_token1"`
}

// PoolMetrics is the snapshot a metrics provider returns for one pool
type PoolMetrics struct {
	PoolID     string     `json:"pool_id"`
	Tick       int        `json:"tick"`
	Volatility float64    `json:"daily_volatility"`
	Price      float64    `json:"price"`
	SqrtPrice  string     `json:"sqrt_price,omitempty"`
	Liquidity  string     `json:"liquidity,omitempty"`
	VolumeUSD  string     `json:"volume_usd,omitempty"`
	Volume24h  *DayVolume `json:"volume_24h,omitempty"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// CheckResult is everything produced by one fetch → compute → decide cycle
type CheckResult struct {
	PoolID    string      `json:"pool_id"`
	Metrics   PoolMetrics `json:"metrics"`
	Outcome   Outcome     `json:"outcome"`
	CheckedAt time.Time   `json:"checked_at"`
}
