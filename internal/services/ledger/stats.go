package ledger

import (
	"math"
	"sort"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/services/features"
)

// GetStats aggregates closed entries matching the asset and market type of
// f. With nothing closed every figure is zero.
func (l *Ledger) GetStats(f models.EntryFilter) models.PerformanceStats {
	f.Outcome, f.Limit = "", 0

	l.mu.RLock()
	closed := closedChronological(l.entries, f)
	open := 0
	for _, e := range l.entries {
		if !e.Closed() && f.Match(e) {
			open++
		}
	}
	l.mu.RUnlock()

	stats := models.PerformanceStats{TotalTrades: len(closed), OpenTrades: open}
	if len(closed) == 0 {
		return stats
	}

	returns := make([]float64, 0, len(closed))
	var winSum, lossSum float64
	for _, e := range closed {
		r := entryReturn(e)
		returns = append(returns, r)
		switch e.Outcome {
		case models.OutcomeWin:
			stats.Wins++
			winSum += r
		case models.OutcomeLoss:
			stats.Losses++
			lossSum += r
		default:
			stats.Breakevens++
		}
	}

	n := float64(len(closed))
	stats.WinRate = float64(stats.Wins) / n
	mean, sd := features.MeanStd(returns)
	stats.AvgReturn = mean
	if stats.Wins > 0 {
		stats.AvgWin = winSum / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLoss = lossSum / float64(stats.Losses)
	}
	if stats.AvgLoss != 0 {
		stats.ProfitFactor = stats.AvgWin / math.Abs(stats.AvgLoss)
	}
	stats.MaxDrawdown = MaxDrawdown(returns)
	if sd > 0 {
		stats.SharpeRatio = mean / sd
	}
	return stats
}

// GetSignalTypeStats breaks closed-trade performance down by the type of the
// originating signal, ordered by type name.
func (l *Ledger) GetSignalTypeStats(f models.EntryFilter) []models.SignalTypeStats {
	f.Outcome, f.Limit = "", 0

	l.mu.RLock()
	closed := closedChronological(l.entries, f)
	l.mu.RUnlock()

	byType := make(map[models.SignalType]*models.SignalTypeStats)
	for _, e := range closed {
		st, ok := byType[e.Signal.Type]
		if !ok {
			st = &models.SignalTypeStats{Type: e.Signal.Type}
			byType[e.Signal.Type] = st
		}
		st.Trades++
		st.AvgReturn += entryReturn(e)
		switch e.Outcome {
		case models.OutcomeWin:
			st.Wins++
		case models.OutcomeLoss:
			st.Losses++
		}
	}

	out := make([]models.SignalTypeStats, 0, len(byType))
	for _, st := range byType {
		st.WinRate = float64(st.Wins) / float64(st.Trades)
		st.AvgReturn /= float64(st.Trades)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// MaxDrawdown walks the cumulative return curve and returns the largest
// peak-to-trough drop in percentage points.
func MaxDrawdown(returns []float64) float64 {
	var equity, peak, maxDD float64
	for _, r := range returns {
		equity += r
		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func entryReturn(e models.LedgerEntry) float64 {
	if e.Return == nil {
		return 0
	}
	return *e.Return
}
