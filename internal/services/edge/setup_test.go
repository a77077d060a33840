package edge

import (
	"testing"

	"SignalFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTradeSetup_Long(t *testing.T) {
	c := NewCalculator(nil)
	e := Evaluate(0.6, 20, 8)
	e.ConvictionScore = 8
	e.HalfLife = 24

	s := c.BuildTradeSetup(e, &models.SensorData{
		MarketType: models.MarketStock,
		Price:      &models.PriceData{Current: 100},
	})

	assert.Equal(t, models.Long, s.Direction)
	assert.InDelta(t, 98, s.Entry.Min, 1e-9)
	assert.InDelta(t, 102, s.Entry.Max, 1e-9)
	assert.Equal(t, 100.0, s.Entry.Optimal)
	assert.Equal(t, models.UrgencyImmediate, s.Entry.Urgency)
	assert.InDelta(t, 92, s.StopLoss, 1e-9)

	require.Len(t, s.Targets, 3)
	wantPrices := []float64{116, 132, 148}
	wantProbs := []float64{0.54, 0.36, 0.18}
	wantExits := []float64{50, 30, 20}
	for i, tg := range s.Targets {
		assert.InDelta(t, wantPrices[i], tg.Price, 1e-9)
		assert.InDelta(t, wantProbs[i], tg.Probability, 1e-9)
		assert.Equal(t, wantExits[i], tg.Percentage)
	}

	assert.InDelta(t, 0.22, s.Sizing.KellyFraction, 1e-9)
	assert.InDelta(t, 22, s.Sizing.PortfolioPercent, 1e-9)
	assert.Equal(t, 2.0, s.Sizing.MaxRiskPercent)
	assert.InDelta(t, 0.8, s.Sizing.Confidence, 1e-9)

	assert.InDelta(t, 0.24, s.Scenarios.Bull.Probability, 1e-9)
	assert.InDelta(t, 0.6, s.Scenarios.Base.Probability, 1e-9)
	assert.InDelta(t, 0.4, s.Scenarios.Bear.Probability, 1e-9)
	assert.InDelta(t, 24, s.Scenarios.Bull.Timeline, 1e-9)
	assert.InDelta(t, 16.8, s.Scenarios.Base.Timeline, 1e-9)
	assert.InDelta(t, 12, s.Scenarios.Bear.Timeline, 1e-9)
	assert.Equal(t, 48.0, s.MaxHoldTime)
	assert.Empty(t, s.Warnings)
}

func TestBuildTradeSetup_ShortMirrorsLevels(t *testing.T) {
	c := NewCalculator(nil)
	e := Evaluate(0.3, 20, 10)
	e.ConvictionScore = 3
	e.HalfLife = 10

	s := c.BuildTradeSetup(e, &models.SensorData{
		MarketType: models.MarketMeme,
		Price:      &models.PriceData{Current: 10},
	})

	assert.Equal(t, models.Short, s.Direction)
	assert.Equal(t, models.UrgencyPatient, s.Entry.Urgency)
	assert.InDelta(t, 11, s.StopLoss, 1e-9)
	assert.InDelta(t, 8, s.Targets[0].Price, 1e-9)
	assert.InDelta(t, 6, s.Targets[1].Price, 1e-9)
	assert.InDelta(t, 4, s.Targets[2].Price, 1e-9)
	wantProbs := []float64{0.27, 0.18, 0.09}
	for i, tg := range s.Targets {
		assert.InDelta(t, wantProbs[i], tg.Probability, 1e-9)
	}

	// b=2, p=0.3: (2*0.3-0.7)/2 < 0, so nothing is staked on a negative edge
	assert.Zero(t, s.Sizing.KellyFraction)
	assert.Zero(t, s.Sizing.PortfolioPercent)
	assert.InDelta(t, 0.12, s.Scenarios.Bull.Probability, 1e-9)
	assert.InDelta(t, 0.3, s.Scenarios.Base.Probability, 1e-9)
	assert.InDelta(t, 0.7, s.Scenarios.Bear.Probability, 1e-9)
	assert.Len(t, s.Warnings, 4)
}

func TestBuildTradeSetup_Warnings(t *testing.T) {
	c := NewCalculator(nil)
	e := Evaluate(0.45, 3, 2)
	e.ConvictionScore = 5
	e.HalfLife = 8

	s := c.BuildTradeSetup(e, &models.SensorData{MarketType: models.MarketCrypto})
	assert.Equal(t, models.UrgencySoon, s.Entry.Urgency)
	assert.Zero(t, s.StopLoss)
	assert.Zero(t, s.Targets[0].Price)
	// win rate, thin EV, crypto, short half-life, missing price
	assert.Len(t, s.Warnings, 5)
}

func TestBuildTradeSetup_KellyAlwaysBounded(t *testing.T) {
	c := NewCalculator(nil)
	data := &models.SensorData{Price: &models.PriceData{Current: 1}}
	for wr := 0.0; wr <= 1.0; wr += 0.1 {
		s := c.BuildTradeSetup(Evaluate(wr, 50, 2), data)
		assert.GreaterOrEqual(t, s.Sizing.KellyFraction, 0.0)
		assert.LessOrEqual(t, s.Sizing.KellyFraction, 0.25)
	}
}
