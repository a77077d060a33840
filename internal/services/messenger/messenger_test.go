package messenger

import (
	"testing"
	"time"

	"SignalFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(stance models.Direction, conf float64) models.CouncilOpinion {
	return models.CouncilOpinion{Stance: stance, Confidence: conf}
}

func TestBuildConsensus(t *testing.T) {
	tests := []struct {
		name     string
		opinions []models.CouncilOpinion
		majority models.Direction
		minority models.Direction
		score    float64
	}{
		{"empty", nil, models.Neutral, "", 0},
		{"zero confidence", []models.CouncilOpinion{op(models.Bullish, 0)}, models.Neutral, "", 0},
		{"bullish with dissent",
			[]models.CouncilOpinion{op(models.Bullish, 0.6), op(models.Bullish, 0.1), op(models.Bearish, 0.3)},
			models.Bullish, models.Bearish, 0.7},
		{"bullish without dissent",
			[]models.CouncilOpinion{op(models.Bullish, 0.8), op(models.Bearish, 0.2), op(models.Neutral, 0.1)},
			models.Bullish, "", 0.8 / 1.1},
		{"bearish with bullish minority",
			[]models.CouncilOpinion{op(models.Bearish, 0.5), op(models.Bullish, 0.3), op(models.Neutral, 0.2)},
			models.Bearish, models.Bullish, 0.5},
		{"bull bear tie goes bearish",
			[]models.CouncilOpinion{op(models.Bearish, 0.4), op(models.Bullish, 0.4), op(models.Neutral, 0.2)},
			models.Bearish, models.Bullish, 0.4},
		{"neutral wins ties",
			[]models.CouncilOpinion{op(models.Neutral, 0.5), op(models.Bullish, 0.5)},
			models.Neutral, models.Bullish, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := BuildConsensus(tt.opinions)
			assert.Equal(t, tt.majority, c.Majority)
			assert.Equal(t, tt.minority, c.Minority)
			assert.InDelta(t, tt.score, c.Score, 1e-9)
			if c.Score > 0 {
				assert.InDelta(t, 1, c.Bullish+c.Bearish+c.Neutral, 1e-9)
			}
		})
	}
}

func TestBuildVerdict(t *testing.T) {
	bull := models.Consensus{Majority: models.Bullish, Score: 0.8}
	bear := models.Consensus{Majority: models.Bearish, Score: 0.7}
	split := models.Consensus{Majority: models.Neutral, Score: 0.35}

	edge := func(ev, conviction, halfLife float64) models.EdgeCalculation {
		return models.EdgeCalculation{ExpectedValue: ev, ConvictionScore: conviction, HalfLife: halfLife}
	}

	tests := []struct {
		name    string
		edge    models.EdgeCalculation
		cons    models.Consensus
		rec     models.Recommendation
		urgency models.Urgency
	}{
		{"buy immediate", edge(8.8, 9, 4), bull, models.RecommendBuy, models.UrgencyImmediate},
		{"buy soon", edge(2.1, 6, 12), bull, models.RecommendBuy, models.UrgencySoon},
		{"buy patient", edge(5, 6, 72), bull, models.RecommendBuy, models.UrgencyPatient},
		{"sell", edge(-3, 6, 4), bear, models.RecommendSell, models.UrgencyPatient},
		{"thin ev bullish holds", edge(1.5, 6, 24), bull, models.RecommendHold, models.UrgencyPatient},
		{"low conviction avoids", edge(1, 2, 24), bull, models.RecommendAvoid, models.UrgencyPatient},
		{"split council avoids", edge(5, 8, 24), split, models.RecommendAvoid, models.UrgencyPatient},
		{"bearish positive ev holds", edge(1, 6, 24), bear, models.RecommendHold, models.UrgencyPatient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := BuildVerdict(tt.edge, tt.cons)
			assert.Equal(t, tt.rec, v.Recommendation)
			assert.Equal(t, tt.urgency, v.Urgency)
			assert.LessOrEqual(t, v.Conviction, 100.0)
		})
	}

	v := BuildVerdict(edge(8.8, 9, 24), bull)
	assert.InDelta(t, 72, v.Conviction, 1e-9)
}

func TestDeliver(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := New(nil, "1.2.3", WithClock(func() time.Time { return start.Add(42 * time.Millisecond) }))

	rounds := []models.CouncilRound{
		{Round: 1, Opinions: []models.CouncilOpinion{{
			Stance: models.Bullish, Confidence: 0.8,
			KeyPoints: []string{"a", "b"}, Concerns: []string{"x"},
		}}},
		{Round: 2, Opinions: []models.CouncilOpinion{
			{Stance: models.Bullish, Confidence: 0.6, KeyPoints: []string{"b", "c", "d"}, Concerns: []string{"x", "y"}},
			{Stance: models.Neutral, Confidence: 0.2, Concerns: []string{"z", "w"}},
		}},
	}
	out := m.Deliver(Input{
		Query: "should I buy SOL",
		Data:  &models.SensorData{Asset: "SOL", MarketType: models.MarketSolana},
		Analysis: models.FusionAnalysis{
			Edge: models.EdgeCalculation{WinRate: 0.7, ExpectedValue: 8, ConvictionScore: 8, HalfLife: 20, RiskReward: 3},
			Signals: []models.Signal{
				{Metadata: models.SignalMetadata{Source: "price-detector"}},
				{Metadata: models.SignalMetadata{Source: "pattern-matcher"}},
				{Metadata: models.SignalMetadata{Source: "price-detector"}},
			},
		},
		Rounds:    rounds,
		StartedAt: start,
	})

	assert.Equal(t, "should I buy SOL", out.Query)
	assert.Equal(t, "SOL", out.Asset)
	assert.Equal(t, models.RecommendBuy, out.FinalVerdict.Recommendation)
	assert.Equal(t, models.UrgencySoon, out.FinalVerdict.Urgency)
	assert.Equal(t, []string{"a", "b", "c"}, out.FinalVerdict.KeyOpportunities)
	assert.Equal(t, []string{"x", "y", "z"}, out.FinalVerdict.KeyRisks)
	assert.Equal(t, []string{"price-detector", "pattern-matcher"}, out.Metadata.Sources)
	assert.Equal(t, "1.2.3", out.Metadata.Version)
	assert.Equal(t, int64(42), out.Metadata.ProcessingTimeMs)
	require.Len(t, out.Council.Rounds, 2)
	assert.Equal(t, models.Bullish, out.Council.Consensus.Majority)
	assert.Contains(t, out.FinalVerdict.Summary, "BUY SOL (solana)")
}
