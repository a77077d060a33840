package repository

import (
	"context"

	"SignalFusion/internal/domain/models"
)

// LedgerStorage persists the whole ledger. Save receives every entry, in
// recording order; Load returns them in the same order.
type LedgerStorage interface {
	Save(ctx context.Context, entries []models.LedgerEntry) error
	Load(ctx context.Context) ([]models.LedgerEntry, error)
}

// Publisher ships a serialized message to a topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(market, recommendation string)
	RecordSignals(result string, n int)
	RecordOutcome(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetActiveEdges(n int)
}
