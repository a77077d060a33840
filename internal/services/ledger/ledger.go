package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
	"SignalFusion/internal/domain/service"
	xlogger "SignalFusion/pkg/logger"
	xmetrics "SignalFusion/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ service.DecisionLedger = (*Ledger)(nil)

var (
	ErrEntryNotFound    = errors.New("ledger entry not found")
	ErrEntryClosed      = errors.New("ledger entry already closed")
	ErrInvalidOutcome   = errors.New("outcome must be win, loss or breakeven")
	ErrInvalidExitPrice = errors.New("exit price must be positive")
)

type Option func(*Ledger)

// WithPatternRecorder wires closed outcomes back into the pattern library.
func WithPatternRecorder(p service.PatternRecorder) Option {
	return func(l *Ledger) { l.patterns = p }
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger records every decision and its eventual outcome. Writes are
// serialized on wmu and persisted before they become visible; mu only guards
// the in-memory view, so readers never wait on storage.
type Ledger struct {
	wmu      sync.Mutex
	mu       sync.RWMutex
	entries  []models.LedgerEntry
	index    map[string]int
	storage  domrepo.LedgerStorage
	patterns service.PatternRecorder
	metrics  domrepo.Metrics
	logger   *xlogger.Logger
	now      func() time.Time
}

func New(storage domrepo.LedgerStorage, logger *xlogger.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = xlogger.Nop()
	}
	l := &Ledger{
		index:   make(map[string]int),
		storage: storage,
		metrics: xmetrics.Nop{},
		logger:  logger,
		now:     time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Restore replaces the in-memory ledger with the stored one and replays the
// closed pattern outcomes, oldest exit first, into the pattern library.
func (l *Ledger) Restore(ctx context.Context) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()

	loaded, err := l.storage.Load(ctx)
	if err != nil {
		l.metrics.RecordError("ledger_load")
		return fmt.Errorf("load ledger: %w", err)
	}

	l.mu.Lock()
	l.entries = make([]models.LedgerEntry, 0, len(loaded))
	l.index = make(map[string]int, len(loaded))
	for _, e := range loaded {
		if _, dup := l.index[e.ID]; dup {
			continue
		}
		l.index[e.ID] = len(l.entries)
		l.entries = append(l.entries, e)
	}
	closed := closedChronological(l.entries, models.EntryFilter{})
	l.mu.Unlock()

	replayed := 0
	for _, e := range closed {
		if l.feedPattern(e) {
			replayed++
		}
	}
	l.logger.Info("ledger restored",
		xlogger.Int("entries", len(loaded)),
		xlogger.Int("pattern_outcomes_replayed", replayed),
	)
	return nil
}

// RecordSignal appends an open entry for the decision.
func (l *Ledger) RecordSignal(ctx context.Context, sig models.Signal, setup models.TradeSetup, edge models.EdgeCalculation, data *models.SensorData) (models.LedgerEntry, error) {
	entry := models.LedgerEntry{
		ID:         uuid.NewString(),
		Timestamp:  l.now(),
		Asset:      sig.Asset,
		Signal:     sig,
		TradeSetup: setup,
		Edge:       edge,
		Outcome:    models.OutcomeOpen,
	}
	if data != nil {
		if data.Asset != "" {
			entry.Asset = data.Asset
		}
		entry.MarketType = data.MarketType
	}
	if price := data.CurrentPrice(); price > 0 {
		entry.EntryPrice = &price
	} else if setup.Entry.Optimal > 0 {
		p := setup.Entry.Optimal
		entry.EntryPrice = &p
	}

	l.wmu.Lock()
	defer l.wmu.Unlock()

	l.mu.RLock()
	next := make([]models.LedgerEntry, 0, len(l.entries)+1)
	next = append(next, l.entries...)
	l.mu.RUnlock()
	if err := l.persist(ctx, append(next, entry)); err != nil {
		return models.LedgerEntry{}, err
	}

	l.mu.Lock()
	l.index[entry.ID] = len(l.entries)
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	l.logger.Info("decision recorded",
		xlogger.String("entry", entry.ID),
		xlogger.String("asset", entry.Asset),
		xlogger.String("signal_type", string(sig.Type)),
		xlogger.String("direction", string(setup.Direction)),
	)
	return entry, nil
}

// UpdateOutcome closes an open entry. The realized return is in percent and
// signed from the trade's side. An entry closes exactly once.
func (l *Ledger) UpdateOutcome(ctx context.Context, id string, outcome models.Outcome, exitPrice float64, notes string) (models.LedgerEntry, error) {
	if !outcome.Terminal() {
		return models.LedgerEntry{}, fmt.Errorf("update %s: %w", id, ErrInvalidOutcome)
	}
	if exitPrice <= 0 {
		return models.LedgerEntry{}, fmt.Errorf("update %s: %w", id, ErrInvalidExitPrice)
	}

	l.wmu.Lock()
	defer l.wmu.Unlock()

	l.mu.RLock()
	i, ok := l.index[id]
	if !ok {
		l.mu.RUnlock()
		return models.LedgerEntry{}, fmt.Errorf("update %s: %w", id, ErrEntryNotFound)
	}
	prev := l.entries[i]
	if prev.Closed() {
		l.mu.RUnlock()
		return models.LedgerEntry{}, fmt.Errorf("update %s (%s): %w", id, prev.Outcome, ErrEntryClosed)
	}
	next := append([]models.LedgerEntry(nil), l.entries...)
	l.mu.RUnlock()

	closed := prev
	exitAt := l.now()
	ret := RealizedReturn(prev.EntryPrice, exitPrice, prev.TradeSetup.Direction)
	closed.ExitPrice = &exitPrice
	closed.ExitTime = &exitAt
	closed.Outcome = outcome
	closed.Return = &ret
	closed.Notes = notes
	if closed.Notes == "" {
		closed.Notes = fmt.Sprintf("closed %s at %.6g (%+.2f%%)", outcome, exitPrice, ret)
	}

	next[i] = closed
	if err := l.persist(ctx, next); err != nil {
		return models.LedgerEntry{}, err
	}

	l.mu.Lock()
	l.entries[i] = closed
	l.mu.Unlock()

	l.metrics.RecordOutcome(string(outcome))
	l.feedPattern(closed)
	l.logger.Info("ledger entry closed",
		xlogger.String("entry", id),
		xlogger.String("outcome", string(outcome)),
		xlogger.Float64("return_pct", ret),
	)
	return closed, nil
}

// GetEntry returns one entry by id.
func (l *Ledger) GetEntry(id string) (models.LedgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return models.LedgerEntry{}, false
	}
	return l.entries[i], true
}

// GetEntries returns matching entries, newest first, capped at f.Limit when
// it is positive.
func (l *Ledger) GetEntries(f models.EntryFilter) []models.LedgerEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.LedgerEntry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if !f.Match(e) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Len is the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// persist saves the ledger as it will look after the pending write. Caller
// holds wmu but not mu.
func (l *Ledger) persist(ctx context.Context, snapshot []models.LedgerEntry) error {
	if l.storage == nil {
		return nil
	}
	start := time.Now()
	if err := l.storage.Save(ctx, snapshot); err != nil {
		l.metrics.RecordError("ledger_save")
		l.logger.Error("ledger save failed", xlogger.Error(err))
		return fmt.Errorf("save ledger: %w", err)
	}
	l.metrics.RecordLatency("ledger_save", time.Since(start).Seconds())
	return nil
}

// feedPattern reports a closed entry to the pattern library when its signal
// came from a pattern. Pattern counters track whether the asset moved in the
// bullish sense, so a winning short is a bullish loss. Breakevens are not
// counted.
func (l *Ledger) feedPattern(e models.LedgerEntry) bool {
	pid := e.Signal.Metadata.PatternID
	if l.patterns == nil || pid == "" || e.Outcome == models.OutcomeBreakeven || !e.Closed() {
		return false
	}
	long := e.TradeSetup.Direction != models.Short
	won := (e.Outcome == models.OutcomeWin) == long
	var ret float64
	if e.Return != nil {
		ret = *e.Return
		if !long {
			ret = -ret
		}
	}
	if err := l.patterns.RecordOutcome(pid, won, ret); err != nil {
		l.logger.Warn("pattern outcome not recorded",
			xlogger.String("entry", e.ID),
			xlogger.String("pattern", pid),
			xlogger.Error(err),
		)
		return false
	}
	return true
}

// RealizedReturn is the percent return of a trade from entry to exit, negated
// for shorts. A missing entry price yields zero.
func RealizedReturn(entry *float64, exit float64, dir models.TradeDirection) float64 {
	if entry == nil || *entry <= 0 {
		return 0
	}
	in := decimal.NewFromFloat(*entry)
	r := decimal.NewFromFloat(exit).Sub(in).Div(in).Mul(decimal.NewFromInt(100))
	if dir == models.Short {
		r = r.Neg()
	}
	return r.Round(6).InexactFloat64()
}

// closedChronological returns matching closed entries ordered by exit time.
func closedChronological(entries []models.LedgerEntry, f models.EntryFilter) []models.LedgerEntry {
	out := make([]models.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Closed() || !f.Match(e) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return closedAt(out[i]).Before(closedAt(out[j]))
	})
	return out
}

func closedAt(e models.LedgerEntry) time.Time {
	if e.ExitTime != nil {
		return *e.ExitTime
	}
	return e.Timestamp
}
