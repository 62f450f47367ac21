package technical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/Rebalancer/models"
)

func TestSqrtPriceX96ToPrice(t *testing.T) {
	tests := []struct {
		name      string
		sqrtPrice string
		want      float64
	}{
		{name: "parity", sqrtPrice: "79228162514264337593543950336", want: 1},
		{name: "double sqrt", sqrtPrice: "158456325028528675187087900672", want: 4},
		{name: "zero", sqrtPrice: "0", want: 0},
		{name: "usdc weth scale", sqrtPrice: "1771595571142957166518320255467520", want: 500000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SqrtPriceX96ToPrice(tt.sqrtPrice)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.want*1e-9+1e-12)
		})
	}
}

func TestSqrtPriceX96ToPriceInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1"} {
		_, err := SqrtPriceX96ToPrice(in)
		assert.ErrorIs(t, err, models.ErrMalformedData, "input=%q", in)
	}
}

func TestLogReturns(t *testing.T) {
	returns, err := LogReturns([]float64{110, 100, 100})
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.InDelta(t, math.Log(1.1), returns[0], 1e-12)
	assert.InDelta(t, 0, returns[1], 1e-12)

	returns, err = LogReturns([]float64{100})
	require.NoError(t, err)
	assert.Empty(t, returns)

	_, err = LogReturns([]float64{100, 0})
	assert.ErrorIs(t, err, models.ErrMalformedData)
}

func TestDailyVolatility(t *testing.T) {
	vol, err := DailyVolatility(nil)
	require.NoError(t, err)
	assert.Zero(t, vol)

	vol, err = DailyVolatility([]float64{101, 100})
	require.NoError(t, err)
	assert.Zero(t, vol, "a single return has no sample deviation")

	vol, err = DailyVolatility([]float64{100, 100, 100, 100})
	require.NoError(t, err)
	assert.Zero(t, vol)

	// Returns ln(2) and -ln(2): mean 0, sample variance 2*ln(2)^2
	vol, err = DailyVolatility([]float64{200, 100, 200})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2)*math.Ln2, vol, 1e-12)
}
