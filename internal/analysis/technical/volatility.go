package technical

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/Alias1177/Rebalancer/models"
)

// q192 is 2^192, the square of the Q64.96 fixed-point scale
var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// SqrtPriceX96ToPrice converts a Q64.96 sqrtPrice into a token1/token0 price,
// (sqrtPrice / 2^96)^2.
func SqrtPriceX96ToPrice(sqrtPrice string) (float64, error) {
	s, err := decimal.NewFromString(sqrtPrice)
	if err != nil {
		return 0, fmt.Errorf("%w: sqrtPrice %q: %w", models.ErrMalformedData, sqrtPrice, err)
	}
	if s.IsNegative() {
		return 0, fmt.Errorf("%w: negative sqrtPrice %q", models.ErrMalformedData, sqrtPrice)
	}

	price, _ := s.Mul(s).DivRound(q192, 60).Float64()
	return price, nil
}

// LogReturns computes ln(p[i]/p[i+1]) for a newest-first price series
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, nil
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		if prices[i] <= 0 || prices[i+1] <= 0 {
			return nil, fmt.Errorf("%w: non-positive price in history at index %d", models.ErrMalformedData, i)
		}
		returns = append(returns, math.Log(prices[i]/prices[i+1]))
	}
	return returns, nil
}

// DailyVolatility is the sample standard deviation of daily log returns.
// Fewer than two returns is not enough history and yields 0.
func DailyVolatility(prices []float64) (float64, error) {
	returns, err := LogReturns(prices)
	if err != nil {
		return 0, err
	}
	if len(returns) < 2 {
		return 0, nil
	}
	return stat.StdDev(returns, nil), nil
}
