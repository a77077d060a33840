package ledger

import (
	"context"
	"math"
	"testing"
	"time"

	"SignalFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStats_Empty(t *testing.T) {
	l, _, _, _ := newLedger(t)
	assert.Equal(t, models.PerformanceStats{}, l.GetStats(models.EntryFilter{}))

	record(t, l, "SOL", 100, models.Long, "")
	assert.Equal(t, models.PerformanceStats{OpenTrades: 1}, l.GetStats(models.EntryFilter{}))
}

func TestGetStats(t *testing.T) {
	l, _, _, clk := newLedger(t)
	ctx := context.Background()

	// closes in order: +10, -5, +20, -15, 0
	exits := []struct {
		outcome models.Outcome
		exit    float64
	}{
		{models.OutcomeWin, 110},
		{models.OutcomeLoss, 95},
		{models.OutcomeWin, 120},
		{models.OutcomeLoss, 85},
		{models.OutcomeBreakeven, 100},
	}
	for _, x := range exits {
		e := record(t, l, "SOL", 100, models.Long, "")
		clk.advance(time.Minute)
		_, err := l.UpdateOutcome(ctx, e.ID, x.outcome, x.exit, "")
		require.NoError(t, err)
	}
	record(t, l, "SOL", 100, models.Long, "")
	record(t, l, "ETH", 100, models.Long, "")

	s := l.GetStats(models.EntryFilter{Asset: "SOL"})
	assert.Equal(t, 5, s.TotalTrades)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 1, s.Breakevens)
	assert.Equal(t, 1, s.OpenTrades)
	assert.InDelta(t, 0.4, s.WinRate, 1e-9)
	assert.InDelta(t, 2, s.AvgReturn, 1e-9)
	assert.InDelta(t, 15, s.AvgWin, 1e-9)
	assert.InDelta(t, -10, s.AvgLoss, 1e-9)
	assert.InDelta(t, 1.5, s.ProfitFactor, 1e-9)
	// equity 10, 5, 25, 10, 10 -> peak 25, trough 10
	assert.InDelta(t, 15, s.MaxDrawdown, 1e-9)

	sd := math.Sqrt((64 + 49 + 324 + 289 + 4) / 4.0)
	assert.InDelta(t, 2/sd, s.SharpeRatio, 1e-9)

	assert.Equal(t, 0, l.GetStats(models.EntryFilter{Asset: "ETH"}).TotalTrades)
	assert.Equal(t, 5, l.GetStats(models.EntryFilter{MarketType: models.MarketCrypto}).TotalTrades)
}

func TestGetSignalTypeStats(t *testing.T) {
	l, _, _, _ := newLedger(t)
	ctx := context.Background()

	p1 := record(t, l, "SOL", 100, models.Long, "p")
	p2 := record(t, l, "SOL", 100, models.Long, "p")
	pa := record(t, l, "ETH", 100, models.Long, "")
	record(t, l, "BTC", 100, models.Long, "")

	for id, exit := range map[string]float64{p1.ID: 110, p2.ID: 90, pa.ID: 130} {
		outcome := models.OutcomeWin
		if exit < 100 {
			outcome = models.OutcomeLoss
		}
		_, err := l.UpdateOutcome(ctx, id, outcome, exit, "")
		require.NoError(t, err)
	}

	stats := l.GetSignalTypeStats(models.EntryFilter{})
	require.Len(t, stats, 2)

	assert.Equal(t, models.SignalPatternMatch, stats[0].Type)
	assert.Equal(t, 2, stats[0].Trades)
	assert.InDelta(t, 0.5, stats[0].WinRate, 1e-9)
	assert.InDelta(t, 0, stats[0].AvgReturn, 1e-9)

	assert.Equal(t, models.SignalPriceAction, stats[1].Type)
	assert.Equal(t, 1, stats[1].Trades)
	assert.InDelta(t, 1, stats[1].WinRate, 1e-9)
	assert.InDelta(t, 30, stats[1].AvgReturn, 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	assert.Zero(t, MaxDrawdown(nil))
	assert.Zero(t, MaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 8, MaxDrawdown([]float64{-5, -3, 4}), 1e-9)
}
