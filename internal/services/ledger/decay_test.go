package ledger

import (
	"context"
	"testing"
	"time"

	"SignalFusion/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidityCurve(t *testing.T) {
	hl := 10 * time.Hour
	assert.Equal(t, 1.0, Validity(hl, 0))
	assert.InDelta(t, 0.5, Validity(hl, hl), 1e-9)
	assert.InDelta(t, 0.25, Validity(hl, 15*time.Hour), 1e-9)
	assert.Zero(t, Validity(hl, 2*hl))
	assert.Zero(t, Validity(hl, 3*hl))
	assert.Zero(t, Validity(0, time.Minute))
	assert.Equal(t, 1.0, Validity(hl, -time.Hour))
}

func TestDecayTracker(t *testing.T) {
	clk := &clock{t: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)}
	d := NewDecayTracker(nil, nil, clk.now)

	fast := models.LedgerEntry{ID: "fast", Timestamp: clk.t, Outcome: models.OutcomeOpen, Edge: models.EdgeCalculation{HalfLife: 6}}
	slow := models.LedgerEntry{ID: "slow", Timestamp: clk.t, Outcome: models.OutcomeOpen, Edge: models.EdgeCalculation{HalfLife: 48}}
	done := models.LedgerEntry{ID: "done", Timestamp: clk.t, Outcome: models.OutcomeWin, Edge: models.EdgeCalculation{HalfLife: 48}}
	d.Track(fast)
	d.Track(slow)
	d.Track(done)

	active := d.Active()
	require.Len(t, active, 2)

	clk.advance(6 * time.Hour)
	v, ok := d.Validity("fast")
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)

	active = d.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "slow", active[0].EntryID)
	assert.Equal(t, clk.t.Add(-6*time.Hour).Add(96*time.Hour), active[0].ExpiresAt)

	clk.advance(6 * time.Hour)
	assert.Len(t, d.Active(), 1)
	assert.Equal(t, 1, d.Sweep())
	_, ok = d.Validity("fast")
	assert.False(t, ok)

	d.Untrack("slow")
	assert.Empty(t, d.Active())
}

func TestDecayTrackerRunStopsOnCancel(t *testing.T) {
	d := NewDecayTracker(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
