package allocation

import (
	"fmt"
	"math"

	"github.com/Alias1177/Rebalancer/models"
)

// TickBase is the price ratio between adjacent ticks: price = 1.0001^tick
const TickBase = 1.0001

// Weight presets
const (
	CalmNarrowWeight     = 0.9
	CalmWideWeight       = 0.1
	VolatileNarrowWeight = 0.6
	VolatileWideWeight   = 0.4
)

// OffsetInTicks converts a fractional half-width into a tick count,
// floor(ln(1+pct) / ln(1.0001)).
func OffsetInTicks(pct float64) (int, error) {
	if err := checkNonNegative("range pct", pct); err != nil {
		return 0, err
	}
	return int(math.Floor(math.Log(1+pct) / math.Log(TickBase))), nil
}

// CalculateBuckets derives the narrow and wide buckets around tick and picks
// the weight preset for the given volatility.
func CalculateBuckets(tick int, volatility float64, cfg models.AllocationConfig) (models.BucketAllocation, error) {
	if err := checkNonNegative("volatility", volatility); err != nil {
		return models.BucketAllocation{}, err
	}
	if err := cfg.Validate(); err != nil {
		return models.BucketAllocation{}, err
	}

	narrowWeight, wideWeight := Weights(volatility, cfg.VolatilityThreshold)

	narrowOffset, err := OffsetInTicks(cfg.NarrowRangePct)
	if err != nil {
		return models.BucketAllocation{}, err
	}
	wideOffset, err := OffsetInTicks(cfg.WideRangePct)
	if err != nil {
		return models.BucketAllocation{}, err
	}

	return models.BucketAllocation{
		NarrowBucket: models.Bucket{Low: tick - narrowOffset, High: tick + narrowOffset},
		WideBucket:   models.Bucket{Low: tick - wideOffset, High: tick + wideOffset},
		NarrowWeight: narrowWeight,
		WideWeight:   wideWeight,
	}, nil
}

// Weights returns (narrow, wide). Volatility equal to the threshold counts as volatile.
func Weights(volatility, threshold float64) (float64, float64) {
	if volatility < threshold {
		return CalmNarrowWeight, CalmWideWeight
	}
	return VolatileNarrowWeight, VolatileWideWeight
}

func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", models.ErrInvalidInput, name, v)
	}
	return nil
}
