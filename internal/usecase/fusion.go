package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
	domsvc "SignalFusion/internal/domain/service"
	"SignalFusion/internal/services/messenger"
	"SignalFusion/internal/services/patterns"
	xlogger "SignalFusion/pkg/logger"
	xmetrics "SignalFusion/pkg/metrics"
)

var ErrInvalidSnapshot = errors.New("snapshot must name an asset")

// FusionOption configures FusionUseCase.
type FusionOption func(*FusionUseCase)

// WithPublisher ships every completed analysis downstream.
func WithPublisher(p domrepo.Publisher) FusionOption {
	return func(u *FusionUseCase) { u.pub = p }
}

func WithMetrics(m domrepo.Metrics) FusionOption {
	return func(u *FusionUseCase) { u.metrics = m }
}

// WithRecordAll records every analysis whether or not the caller asked.
func WithRecordAll(on bool) FusionOption {
	return func(u *FusionUseCase) { u.recordAll = on }
}

func WithClock(now func() time.Time) FusionOption {
	return func(u *FusionUseCase) { u.now = now }
}

// FusionUseCase runs a snapshot through the whole pipeline: detection,
// pattern matching, validation, edge, council and verdict. Recorded
// decisions go to the ledger and the decay tracker.
type FusionUseCase struct {
	detector  domsvc.SignalDetector
	patterns  domsvc.PatternLibrary
	validator domsvc.SignalValidator
	edge      domsvc.EdgeEstimator
	council   domsvc.Council
	messenger *messenger.Messenger
	ledger    domsvc.DecisionLedger
	decay     domsvc.EdgeTracker

	pub       domrepo.Publisher
	metrics   domrepo.Metrics
	logger    *xlogger.Logger
	recordAll bool
	now       func() time.Time
}

func NewFusionUseCase(
	detector domsvc.SignalDetector,
	library domsvc.PatternLibrary,
	validator domsvc.SignalValidator,
	edge domsvc.EdgeEstimator,
	council domsvc.Council,
	msg *messenger.Messenger,
	ledger domsvc.DecisionLedger,
	decay domsvc.EdgeTracker,
	logger *xlogger.Logger,
	opts ...FusionOption,
) *FusionUseCase {
	if logger == nil {
		logger = xlogger.Nop()
	}
	u := &FusionUseCase{
		detector:  detector,
		patterns:  library,
		validator: validator,
		edge:      edge,
		council:   council,
		messenger: msg,
		ledger:    ledger,
		decay:     decay,
		pub:       nopPublisher{},
		metrics:   xmetrics.Nop{},
		logger:    logger.With(xlogger.String("component", "fusion")),
		now:       time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Start restores the ledger and resumes decay tracking for open entries.
func (u *FusionUseCase) Start(ctx context.Context) error {
	if err := u.ledger.Restore(ctx); err != nil {
		return err
	}
	open := u.ledger.GetEntries(models.EntryFilter{Outcome: models.OutcomeOpen})
	for _, e := range open {
		u.decay.Track(e)
	}
	u.logger.Info("fusion engine ready", xlogger.Int("open_entries", len(open)))
	return nil
}

// Analyze produces the full output for one snapshot. When record is set (or
// recording is always on) the chosen signal is written to the ledger.
func (u *FusionUseCase) Analyze(ctx context.Context, query string, data *models.SensorData, record bool) (models.SignalFusionOutput, error) {
	if data == nil || data.Asset == "" {
		return models.SignalFusionOutput{}, ErrInvalidSnapshot
	}
	started := u.now()
	snap := *data
	if snap.Timestamp.IsZero() {
		snap.Timestamp = started
	}
	if !snap.MarketType.Valid() {
		u.logger.Warn("unknown market type, using crypto profile",
			xlogger.String("asset", snap.Asset),
			xlogger.String("market", string(snap.MarketType)),
		)
	}

	candidates := u.detector.Detect(&snap, started)
	matches := u.patterns.Match(&snap)
	var top *models.PatternMatch
	if len(matches) > 0 {
		top = &matches[0]
		candidates = append(candidates, patterns.ToSignal(*top, snap.Asset, started))
	}

	valid, rejected := u.validator.ValidateSignals(candidates, &snap)
	u.metrics.RecordSignals("valid", len(valid))
	u.metrics.RecordSignals("rejected", len(rejected))

	edge := u.edge.Calculate(valid, top, snap.MarketType)
	setup := u.edge.BuildTradeSetup(edge, &snap)
	rounds := u.council.Convene(ctx, models.CouncilInput{
		Data:    &snap,
		Edge:    edge,
		Setup:   setup,
		Signals: valid,
	})

	out := u.messenger.Deliver(messenger.Input{
		Query: query,
		Data:  &snap,
		Analysis: models.FusionAnalysis{
			Edge:       edge,
			Signals:    valid,
			Rejected:   rejected,
			Patterns:   matches,
			TradeSetup: setup,
		},
		Rounds:    rounds,
		StartedAt: started,
	})

	if record || u.recordAll {
		entry, ok, err := u.record(ctx, valid, setup, edge, &snap)
		if err != nil {
			u.metrics.RecordError("ledger_record")
			return out, fmt.Errorf("record decision: %w", err)
		}
		if ok {
			out.Metadata.LedgerEntryID = entry.ID
		}
	}

	if err := u.pub.Publish(ctx, out.Asset, &out); err != nil {
		u.metrics.RecordError("publish_decision")
		u.logger.Warn("decision publish failed", xlogger.String("asset", out.Asset), xlogger.Error(err))
	}

	u.metrics.RecordAnalysis(string(snap.MarketType), string(out.FinalVerdict.Recommendation))
	u.metrics.RecordLatency("analyze", u.now().Sub(started).Seconds())
	u.logger.Info("analysis complete",
		xlogger.String("asset", out.Asset),
		xlogger.Int("signals", len(valid)),
		xlogger.Int("rejected", len(rejected)),
		xlogger.Int("patterns", len(matches)),
		xlogger.String("recommendation", string(out.FinalVerdict.Recommendation)),
	)
	return out, nil
}

// record writes the decision's lead signal. A validated pattern signal leads;
// otherwise the heaviest validated signal does. Nothing is recorded when no
// signal survived validation.
func (u *FusionUseCase) record(ctx context.Context, valid []models.Signal, setup models.TradeSetup, edge models.EdgeCalculation, data *models.SensorData) (models.LedgerEntry, bool, error) {
	lead, ok := leadSignal(valid)
	if !ok {
		u.logger.Info("no validated signal to record", xlogger.String("asset", data.Asset))
		return models.LedgerEntry{}, false, nil
	}
	entry, err := u.ledger.RecordSignal(ctx, lead, setup, edge, data)
	if err != nil {
		return models.LedgerEntry{}, false, err
	}
	u.decay.Track(entry)
	return entry, true, nil
}

func leadSignal(valid []models.Signal) (models.Signal, bool) {
	if len(valid) == 0 {
		return models.Signal{}, false
	}
	for _, s := range valid {
		if s.Type == models.SignalPatternMatch {
			return s, true
		}
	}
	best := valid[0]
	for _, s := range valid[1:] {
		if s.Weight() > best.Weight() {
			best = s
		}
	}
	return best, true
}

// ReportOutcome closes a ledger entry and stops tracking its edge.
func (u *FusionUseCase) ReportOutcome(ctx context.Context, id string, outcome models.Outcome, exitPrice float64, notes string) (models.LedgerEntry, error) {
	entry, err := u.ledger.UpdateOutcome(ctx, id, outcome, exitPrice, notes)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	u.decay.Untrack(id)
	return entry, nil
}

func (u *FusionUseCase) Patterns() []models.Pattern { return u.patterns.Snapshot() }

func (u *FusionUseCase) Entries(f models.EntryFilter) []models.LedgerEntry {
	return u.ledger.GetEntries(f)
}

func (u *FusionUseCase) Stats(f models.EntryFilter) models.PerformanceStats {
	return u.ledger.GetStats(f)
}

func (u *FusionUseCase) SignalTypeStats(f models.EntryFilter) []models.SignalTypeStats {
	return u.ledger.GetSignalTypeStats(f)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (nopPublisher) Close() error { return nil }

func (u *FusionUseCase) ActiveEdges() []models.ActiveEdge { return u.decay.Active() }
