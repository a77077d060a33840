package council

import (
	"context"
	"testing"

	"SignalFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(market models.MarketType, ev float64) models.CouncilInput {
	return models.CouncilInput{
		Data: &models.SensorData{
			Asset:      "TEST",
			MarketType: market,
			Price:      &models.PriceData{Current: 100, Change24h: 8, Change7d: 12, Volume24h: 2_000_000, VolumeChange: 120},
		},
		Edge: models.EdgeCalculation{
			WinRate:         0.65,
			AvgWin:          20,
			AvgLoss:         8,
			RiskReward:      2.5,
			ExpectedValue:   ev,
			EdgeExists:      ev > 0,
			ConvictionScore: 8,
			HalfLife:        24,
		},
		Setup: models.TradeSetup{
			Sizing: models.PositionSizing{KellyFraction: 0.2, PortfolioPercent: 20, MaxRiskPercent: 2},
		},
	}
}

func TestMarketSpecialistFor(t *testing.T) {
	for _, m := range []models.MarketType{
		models.MarketCrypto, models.MarketSolana, models.MarketMeme, models.MarketStock,
		models.MarketPenny, models.MarketCommodity, models.MarketForex,
	} {
		s, ok := MarketSpecialistFor(m)
		require.True(t, ok, m)
		assert.Equal(t, models.SpecialistID(m), s.ID)
		assert.Equal(t, models.RoleMarket, s.Role)
	}

	_, ok := MarketSpecialistFor("bonds")
	assert.False(t, ok)
}

func TestMarketStanceHurdles(t *testing.T) {
	tests := []struct {
		market models.MarketType
		ev     float64
		want   models.Direction
	}{
		{models.MarketCrypto, 3.5, models.Bullish},
		{models.MarketCrypto, 2.5, models.Neutral},
		{models.MarketMeme, 4.9, models.Neutral},
		{models.MarketMeme, 5.1, models.Bullish},
		{models.MarketStock, 1.6, models.Bullish},
		{models.MarketPenny, 5.9, models.Neutral},
		{models.MarketCommodity, 1.1, models.Bullish},
		{models.MarketForex, 0.6, models.Bullish},
		{models.MarketForex, -0.1, models.Bearish},
		{models.MarketSolana, -4, models.Bearish},
	}
	for _, tt := range tests {
		s, _ := MarketSpecialistFor(tt.market)
		op := s.Opine(fixture(tt.market, tt.ev))
		assert.Equal(t, tt.want, op.Stance, "%s ev=%v", tt.market, tt.ev)
		assert.NotEmpty(t, op.Reasoning)
		assert.LessOrEqual(t, op.Confidence, 0.8)
	}
}

func TestSkillSpecialistsFor(t *testing.T) {
	ids := func(specs []Specialist) []models.SpecialistID {
		out := make([]models.SpecialistID, 0, len(specs))
		for _, s := range specs {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t,
		[]models.SpecialistID{models.SpecialistChart, models.SpecialistRisk, models.SpecialistVolume},
		ids(SkillSpecialistsFor(&models.SensorData{})))

	full := &models.SensorData{
		Social:  &models.SocialData{},
		Whale:   &models.WhaleData{},
		News:    &models.NewsData{},
		Macro:   &models.MacroData{},
		OnChain: &models.OnChainData{},
	}
	assert.Len(t, SkillSpecialistsFor(full), 8)
	assert.Len(t, SkillSpecialistsFor(nil), 3)
}

func TestConvene_RoundsAndOrder(t *testing.T) {
	c := New(nil, WithWorkers(2))
	in := fixture(models.MarketCrypto, 8.8)
	in.Data.Whale = &models.WhaleData{NetFlow24h: 80_000}
	in.Data.Social = &models.SocialData{SentimentScore: 0.4}

	rounds := c.Convene(context.Background(), in)
	require.Len(t, rounds, 2)

	require.Len(t, rounds[0].Opinions, 1)
	assert.Equal(t, 1, rounds[0].Round)
	assert.Equal(t, models.SpecialistCrypto, rounds[0].Opinions[0].Specialist)
	assert.Equal(t, models.Bullish, rounds[0].Opinions[0].Stance)

	got := make([]models.SpecialistID, 0)
	for _, op := range rounds[1].Opinions {
		assert.Equal(t, 2, op.Round)
		assert.Equal(t, models.RoleSkill, op.Role)
		got = append(got, op.Specialist)
	}
	assert.Equal(t, []models.SpecialistID{
		models.SpecialistChart, models.SpecialistRisk, models.SpecialistVolume,
		models.SpecialistSentiment, models.SpecialistWhale,
	}, got)

	again := c.Convene(context.Background(), in)
	assert.Equal(t, rounds, again)
}

func TestConvene_UnknownMarketSkipsRound(t *testing.T) {
	in := fixture("bonds", 1)
	rounds := New(nil).Convene(context.Background(), in)
	require.Len(t, rounds, 1)
	assert.Equal(t, 2, rounds[0].Round)
}

func TestSafetyOpinion(t *testing.T) {
	rug := safetyOpinion(models.CouncilInput{Data: &models.SensorData{
		OnChain: &models.OnChainData{HolderConcentration: 0.75, LiquidityLocked: true, ContractVerified: true},
	}})
	assert.Equal(t, models.Bearish, rug.Stance)
	assert.NotEmpty(t, rug.Concerns)

	clean := safetyOpinion(models.CouncilInput{Data: &models.SensorData{
		OnChain: &models.OnChainData{HolderConcentration: 0.1, LiquidityLocked: true, ContractVerified: true},
	}})
	assert.Equal(t, models.Bullish, clean.Stance)
	assert.Empty(t, clean.Concerns)
}

func TestRiskOpinion(t *testing.T) {
	in := fixture(models.MarketStock, -2)
	assert.Equal(t, models.Bearish, riskOpinion(in).Stance)

	in = fixture(models.MarketStock, 5)
	assert.Equal(t, models.Bullish, riskOpinion(in).Stance)

	in.Setup.Sizing.KellyFraction = 0
	op := riskOpinion(in)
	assert.Equal(t, models.Neutral, op.Stance)
	assert.Contains(t, op.Concerns, "Kelly says no position")
}

func TestChartOpinionWithoutPrice(t *testing.T) {
	op := chartOpinion(models.CouncilInput{Data: &models.SensorData{}})
	assert.Equal(t, models.Neutral, op.Stance)
	assert.InDelta(t, 0.2, op.Confidence, 1e-9)
}
