package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
	"SignalFusion/internal/domain/service"
	xlogger "SignalFusion/pkg/logger"
	xmetrics "SignalFusion/pkg/metrics"
)

// Validity is the remaining share of an edge after age. It falls linearly
// from 1 at start to 0.5 at one half-life and 0 at two.
func Validity(halfLife time.Duration, age time.Duration) float64 {
	if halfLife <= 0 {
		return 0
	}
	if age < 0 {
		age = 0
	}
	v := 1 - float64(age)/float64(2*halfLife)
	if v < 0 {
		return 0
	}
	return v
}

var _ service.EdgeTracker = (*DecayTracker)(nil)

type trackedEdge struct {
	entryID    string
	asset      string
	marketType models.MarketType
	edge       models.EdgeCalculation
	start      time.Time
}

func (t trackedEdge) expires() time.Time {
	return t.start.Add(2 * t.edge.HalfLifeDuration())
}

// DecayTracker follows recorded edges until they have fully decayed.
type DecayTracker struct {
	mu      sync.RWMutex
	edges   map[string]trackedEdge
	logger  *xlogger.Logger
	metrics domrepo.Metrics
	now     func() time.Time
}

func NewDecayTracker(logger *xlogger.Logger, metrics domrepo.Metrics, now func() time.Time) *DecayTracker {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if metrics == nil {
		metrics = xmetrics.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &DecayTracker{
		edges:   make(map[string]trackedEdge),
		logger:  logger,
		metrics: metrics,
		now:     now,
	}
}

// Track starts following an open entry's edge from its recording time.
func (d *DecayTracker) Track(e models.LedgerEntry) {
	if e.Closed() {
		return
	}
	start := e.Timestamp
	if start.IsZero() {
		start = d.now()
	}
	d.mu.Lock()
	d.edges[e.ID] = trackedEdge{
		entryID:    e.ID,
		asset:      e.Asset,
		marketType: e.MarketType,
		edge:       e.Edge,
		start:      start,
	}
	n := len(d.edges)
	d.mu.Unlock()
	d.metrics.SetActiveEdges(n)
}

// Untrack stops following an entry, typically once it has closed.
func (d *DecayTracker) Untrack(id string) {
	d.mu.Lock()
	delete(d.edges, id)
	n := len(d.edges)
	d.mu.Unlock()
	d.metrics.SetActiveEdges(n)
}

// Validity returns the current validity of a tracked edge.
func (d *DecayTracker) Validity(id string) (float64, bool) {
	d.mu.RLock()
	t, ok := d.edges[id]
	d.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return Validity(t.edge.HalfLifeDuration(), d.now().Sub(t.start)), true
}

// Sweep drops every edge whose validity reached zero and returns how many
// were dropped.
func (d *DecayTracker) Sweep() int {
	now := d.now()
	d.mu.Lock()
	dropped := 0
	for id, t := range d.edges {
		if Validity(t.edge.HalfLifeDuration(), now.Sub(t.start)) > 0 {
			continue
		}
		delete(d.edges, id)
		dropped++
	}
	n := len(d.edges)
	d.mu.Unlock()

	d.metrics.SetActiveEdges(n)
	if dropped > 0 {
		d.logger.Info("decayed edges swept", xlogger.Int("dropped", dropped), xlogger.Int("active", n))
	}
	return dropped
}

// Active lists edges with validity above zero, most valid first.
func (d *DecayTracker) Active() []models.ActiveEdge {
	now := d.now()
	d.mu.RLock()
	out := make([]models.ActiveEdge, 0, len(d.edges))
	for _, t := range d.edges {
		v := Validity(t.edge.HalfLifeDuration(), now.Sub(t.start))
		if v <= 0 {
			continue
		}
		out = append(out, models.ActiveEdge{
			EntryID:    t.entryID,
			Asset:      t.asset,
			MarketType: t.marketType,
			Edge:       t.edge,
			StartedAt:  t.start,
			ExpiresAt:  t.expires(),
			Validity:   v,
		})
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Validity == out[j].Validity {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].Validity > out[j].Validity
	})
	return out
}

// Run sweeps on every tick until ctx is done.
func (d *DecayTracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Sweep()
		}
	}
}
