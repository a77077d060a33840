package service

import (
	"context"
	"time"

	"SignalFusion/internal/domain/models"
)

// SignalDetector emits ad-hoc signals from outliers in a snapshot.
type SignalDetector interface {
	Detect(data *models.SensorData, now time.Time) []models.Signal
}

// PatternMatcher scores a snapshot against the pattern library.
type PatternMatcher interface {
	Match(data *models.SensorData) []models.PatternMatch
}

// PatternLibrary is the read side of the pattern store plus a listing of
// every pattern with its live counters.
type PatternLibrary interface {
	PatternMatcher
	Snapshot() []models.Pattern
}

// PatternRecorder is the write side of the pattern library.
type PatternRecorder interface {
	RecordOutcome(id string, won bool, ret float64) error
}

// SignalValidator partitions candidate signals into trusted and rejected.
type SignalValidator interface {
	ValidateSignals(signals []models.Signal, data *models.SensorData) (valid, invalid []models.Signal)
}

// EdgeEstimator turns validated signals into an edge and a trade plan.
type EdgeEstimator interface {
	Calculate(signals []models.Signal, top *models.PatternMatch, market models.MarketType) models.EdgeCalculation
	BuildTradeSetup(edge models.EdgeCalculation, data *models.SensorData) models.TradeSetup
}

// Council gathers specialist opinions, grouped by round.
type Council interface {
	Convene(ctx context.Context, in models.CouncilInput) []models.CouncilRound
}

// DecisionRecorder stores a decision and returns its ledger entry.
type DecisionRecorder interface {
	RecordSignal(ctx context.Context, sig models.Signal, setup models.TradeSetup, edge models.EdgeCalculation, data *models.SensorData) (models.LedgerEntry, error)
}

// DecisionLedger is the full read/write surface of the trade ledger.
type DecisionLedger interface {
	DecisionRecorder
	UpdateOutcome(ctx context.Context, id string, outcome models.Outcome, exitPrice float64, notes string) (models.LedgerEntry, error)
	Restore(ctx context.Context) error
	GetEntries(f models.EntryFilter) []models.LedgerEntry
	GetStats(f models.EntryFilter) models.PerformanceStats
	GetSignalTypeStats(f models.EntryFilter) []models.SignalTypeStats
}

// EdgeTracker follows how much of a recorded edge is left.
type EdgeTracker interface {
	Track(e models.LedgerEntry)
	Untrack(id string)
	Active() []models.ActiveEdge
}
