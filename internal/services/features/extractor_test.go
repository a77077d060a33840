package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLogReturns(t *testing.T) {
	assert.Nil(t, ComputeLogReturns([]float64{100}))

	r := ComputeLogReturns([]float64{100, 110, 0, 121})
	assert.Len(t, r, 3)
	assert.InDelta(t, math.Log(1.1), r[0], 1e-12)
	assert.Zero(t, r[1])
	assert.Zero(t, r[2])
}

func TestMeanStd(t *testing.T) {
	mean, sd := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sd, 1e-12)

	mean, sd = MeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, sd)
}

func TestLastReturnZScore(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01, 0.01, -0.01, 0.2}
	z, ok := LastReturnZScore(returns, 6)
	assert.True(t, ok)
	assert.Greater(t, z, 2.5)

	_, ok = LastReturnZScore(returns, 10)
	assert.False(t, ok)

	_, ok = LastReturnZScore([]float64{0, 0, 0, 1}, 3)
	assert.False(t, ok, "flat baseline has no spread")
}

func TestRealizedVolatility(t *testing.T) {
	assert.Zero(t, RealizedVolatility([]float64{0.1}, 5))
	assert.Greater(t, RealizedVolatility([]float64{0.01, -0.02, 0.03, -0.01}, 4), 0.0)
}
