package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SignalFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	mu      sync.Mutex
	saved   []models.LedgerEntry
	saves   int
	failing bool
}

func (m *memStorage) Save(_ context.Context, entries []models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("disk full")
	}
	m.saves++
	m.saved = append([]models.LedgerEntry(nil), entries...)
	return nil
}

func (m *memStorage) Load(context.Context) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LedgerEntry(nil), m.saved...), nil
}

type outcomeCall struct {
	id  string
	won bool
	ret float64
}

type fakePatterns struct {
	mu    sync.Mutex
	calls []outcomeCall
}

func (f *fakePatterns) RecordOutcome(id string, won bool, ret float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, outcomeCall{id, won, ret})
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newLedger(t *testing.T) (*Ledger, *memStorage, *fakePatterns, *clock) {
	t.Helper()
	st := &memStorage{}
	fp := &fakePatterns{}
	clk := &clock{t: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}
	l := New(st, nil, WithPatternRecorder(fp), WithClock(clk.now))
	return l, st, fp, clk
}

func record(t *testing.T, l *Ledger, asset string, price float64, dir models.TradeDirection, patternID string) models.LedgerEntry {
	t.Helper()
	sig := models.Signal{
		ID:       "sig-" + asset,
		Asset:    asset,
		Type:     models.SignalPatternMatch,
		Metadata: models.SignalMetadata{PatternID: patternID},
	}
	if patternID == "" {
		sig.Type = models.SignalPriceAction
	}
	e, err := l.RecordSignal(context.Background(), sig,
		models.TradeSetup{Direction: dir},
		models.EdgeCalculation{HalfLife: 24},
		&models.SensorData{Asset: asset, MarketType: models.MarketCrypto, Price: &models.PriceData{Current: price}},
	)
	require.NoError(t, err)
	return e
}

func TestRecordThenGetEntries(t *testing.T) {
	l, st, _, _ := newLedger(t)
	rec := record(t, l, "SOL", 100, models.Long, "")

	got := l.GetEntries(models.EntryFilter{Limit: 1})
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, models.OutcomeOpen, got[0].Outcome)
	assert.Nil(t, got[0].Return)
	assert.Equal(t, 100.0, *got[0].EntryPrice)
	assert.Equal(t, 1, st.saves)
}

func TestUpdateOutcome_LongAndShort(t *testing.T) {
	l, _, _, clk := newLedger(t)
	long := record(t, l, "SOL", 100, models.Long, "")
	short := record(t, l, "ETH", 200, models.Short, "")
	clk.advance(time.Hour)

	closed, err := l.UpdateOutcome(context.Background(), long.ID, models.OutcomeWin, 110, "")
	require.NoError(t, err)
	assert.InDelta(t, 10, *closed.Return, 1e-9)
	assert.Equal(t, clk.t, *closed.ExitTime)
	assert.NotEmpty(t, closed.Notes)

	closed, err = l.UpdateOutcome(context.Background(), short.ID, models.OutcomeWin, 180, "covered")
	require.NoError(t, err)
	assert.InDelta(t, 10, *closed.Return, 1e-9)
	assert.Equal(t, "covered", closed.Notes)
}

func TestUpdateOutcome_Errors(t *testing.T) {
	l, _, _, _ := newLedger(t)
	e := record(t, l, "SOL", 100, models.Long, "")
	ctx := context.Background()

	_, err := l.UpdateOutcome(ctx, "nope", models.OutcomeWin, 1, "")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = l.UpdateOutcome(ctx, e.ID, models.OutcomeOpen, 1, "")
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = l.UpdateOutcome(ctx, e.ID, models.OutcomeWin, 0, "")
	assert.ErrorIs(t, err, ErrInvalidExitPrice)
}

func TestUpdateOutcome_SecondCallRejected(t *testing.T) {
	l, _, fp, _ := newLedger(t)
	e := record(t, l, "SOL", 100, models.Long, "breakout-volume")
	ctx := context.Background()

	_, err := l.UpdateOutcome(ctx, e.ID, models.OutcomeWin, 120, "")
	require.NoError(t, err)
	before := l.GetStats(models.EntryFilter{})

	_, err = l.UpdateOutcome(ctx, e.ID, models.OutcomeLoss, 80, "")
	assert.ErrorIs(t, err, ErrEntryClosed)

	after := l.GetStats(models.EntryFilter{})
	assert.Equal(t, before, after)
	assert.Equal(t, 1, after.TotalTrades)
	assert.Len(t, fp.calls, 1)
}

func TestUpdateOutcome_FeedsPatternLibrary(t *testing.T) {
	l, _, fp, _ := newLedger(t)
	ctx := context.Background()

	long := record(t, l, "SOL", 100, models.Long, "breakout-volume")
	short := record(t, l, "ETH", 100, models.Short, "distribution-rug")
	flat := record(t, l, "BTC", 100, models.Long, "whale-accumulation")
	plain := record(t, l, "ADA", 100, models.Long, "")

	_, err := l.UpdateOutcome(ctx, long.ID, models.OutcomeWin, 115, "")
	require.NoError(t, err)
	_, err = l.UpdateOutcome(ctx, short.ID, models.OutcomeWin, 70, "")
	require.NoError(t, err)
	_, err = l.UpdateOutcome(ctx, flat.ID, models.OutcomeBreakeven, 100, "")
	require.NoError(t, err)
	_, err = l.UpdateOutcome(ctx, plain.ID, models.OutcomeLoss, 90, "")
	require.NoError(t, err)

	require.Len(t, fp.calls, 2)
	assert.Equal(t, "breakout-volume", fp.calls[0].id)
	assert.True(t, fp.calls[0].won)
	assert.InDelta(t, 15, fp.calls[0].ret, 1e-9)

	// a winning short means the asset fell
	assert.Equal(t, "distribution-rug", fp.calls[1].id)
	assert.False(t, fp.calls[1].won)
	assert.InDelta(t, -30, fp.calls[1].ret, 1e-9)
}

func TestPersistFailureRollsBack(t *testing.T) {
	l, st, _, _ := newLedger(t)
	e := record(t, l, "SOL", 100, models.Long, "")

	st.failing = true
	_, err := l.RecordSignal(context.Background(), models.Signal{Asset: "X"}, models.TradeSetup{}, models.EdgeCalculation{}, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, l.Len())

	_, err = l.UpdateOutcome(context.Background(), e.ID, models.OutcomeWin, 120, "")
	assert.Error(t, err)
	got, _ := l.GetEntry(e.ID)
	assert.Equal(t, models.OutcomeOpen, got.Outcome)

	st.failing = false
	_, err = l.UpdateOutcome(context.Background(), e.ID, models.OutcomeWin, 120, "")
	assert.NoError(t, err)
}

func TestGetEntriesFilterAndOrder(t *testing.T) {
	l, _, _, clk := newLedger(t)
	a := record(t, l, "SOL", 100, models.Long, "")
	clk.advance(time.Minute)
	b := record(t, l, "ETH", 100, models.Long, "")
	clk.advance(time.Minute)
	c := record(t, l, "SOL", 100, models.Long, "")

	all := l.GetEntries(models.EntryFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	sol := l.GetEntries(models.EntryFilter{Asset: "SOL"})
	assert.Len(t, sol, 2)

	_, err := l.UpdateOutcome(context.Background(), a.ID, models.OutcomeLoss, 90, "")
	require.NoError(t, err)
	open := l.GetEntries(models.EntryFilter{Outcome: models.OutcomeOpen})
	assert.Len(t, open, 2)
}

func TestRestoreReplaysPatternOutcomes(t *testing.T) {
	l, st, _, clk := newLedger(t)
	ctx := context.Background()
	first := record(t, l, "SOL", 100, models.Long, "p1")
	second := record(t, l, "ETH", 100, models.Long, "p2")
	record(t, l, "BTC", 100, models.Long, "p3")

	clk.advance(time.Hour)
	_, err := l.UpdateOutcome(ctx, second.ID, models.OutcomeLoss, 95, "")
	require.NoError(t, err)
	clk.advance(time.Hour)
	_, err = l.UpdateOutcome(ctx, first.ID, models.OutcomeWin, 105, "")
	require.NoError(t, err)

	fp := &fakePatterns{}
	restored := New(st, nil, WithPatternRecorder(fp))
	require.NoError(t, restored.Restore(ctx))

	assert.Equal(t, 3, restored.Len())
	require.Len(t, fp.calls, 2)
	assert.Equal(t, "p2", fp.calls[0].id)
	assert.Equal(t, "p1", fp.calls[1].id)
}

func TestConcurrentRecording(t *testing.T) {
	l, st, _, _ := newLedger(t)
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.RecordSignal(context.Background(), models.Signal{Asset: "SOL"}, models.TradeSetup{}, models.EdgeCalculation{}, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 40, l.Len())
	loaded, _ := st.Load(context.Background())
	assert.Len(t, loaded, 40)
}

type gatedStorage struct {
	memStorage
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) Save(ctx context.Context, entries []models.LedgerEntry) error {
	g.entered <- struct{}{}
	<-g.release
	return g.memStorage.Save(ctx, entries)
}

func TestReadsDoNotWaitOnSlowSave(t *testing.T) {
	st := &gatedStorage{entered: make(chan struct{}), release: make(chan struct{})}
	l := New(st, nil)

	done := make(chan error, 1)
	go func() {
		_, err := l.RecordSignal(context.Background(), models.Signal{Asset: "SOL"}, models.TradeSetup{}, models.EdgeCalculation{}, nil)
		done <- err
	}()
	<-st.entered

	// the pending entry is not visible until the save lands
	assert.Zero(t, l.Len())
	assert.Empty(t, l.GetEntries(models.EntryFilter{}))
	assert.Zero(t, l.GetStats(models.EntryFilter{}).OpenTrades)

	close(st.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 1, l.GetStats(models.EntryFilter{}).OpenTrades)
}

func TestRealizedReturn(t *testing.T) {
	p := 250.0
	assert.InDelta(t, 4, RealizedReturn(&p, 260, models.Long), 1e-9)
	assert.InDelta(t, -4, RealizedReturn(&p, 260, models.Short), 1e-9)
	assert.Zero(t, RealizedReturn(nil, 260, models.Long))
}
