package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"SignalFusion/internal/domain/models"
	"SignalFusion/pkg/breaker"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []models.LedgerEntry {
	price, exit, ret := 100.0, 110.0, 10.0
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	closedAt := ts.Add(4 * time.Hour)
	return []models.LedgerEntry{
		{
			ID:         "e1",
			Timestamp:  ts,
			Asset:      "SOL",
			MarketType: models.MarketSolana,
			Signal:     models.Signal{ID: "s1", Type: models.SignalPatternMatch, Direction: models.Bullish},
			Edge:       models.EdgeCalculation{WinRate: 0.6, HalfLife: 24},
			EntryPrice: &price,
			Outcome:    models.OutcomeWin,
			ExitPrice:  &exit,
			ExitTime:   &closedAt,
			Return:     &ret,
		},
		{
			ID:         "e2",
			Timestamp:  ts.Add(time.Hour),
			Asset:      "AAPL",
			MarketType: models.MarketStock,
			Outcome:    models.OutcomeOpen,
		},
	}
}

func TestMemoryLedgerStorage(t *testing.T) {
	s := NewMemoryLedgerStorage()
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	in := sampleEntries()
	require.NoError(t, s.Save(ctx, in))
	in[0].Asset = "mutated"

	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SOL", got[0].Asset)
}

func TestRedisLedgerStorage(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisLedgerStorage(db, "test:ledger")
	ctx := context.Background()
	entries := sampleEntries()
	data, err := json.Marshal(entries)
	require.NoError(t, err)

	t.Run("save writes one document", func(t *testing.T) {
		mock.ExpectSet("test:ledger", data, 0).SetVal("OK")
		require.NoError(t, s.Save(ctx, entries))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("load decodes document", func(t *testing.T) {
		mock.ExpectGet("test:ledger").SetVal(string(data))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "e1", got[0].ID)
		assert.Equal(t, 10.0, *got[0].Return)
		assert.Nil(t, got[1].Return)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing key is an empty ledger", func(t *testing.T) {
		mock.ExpectGet("test:ledger").RedisNil()
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("set failure surfaces", func(t *testing.T) {
		mock.ExpectSet("test:ledger", data, 0).SetErr(errors.New("connection refused"))
		assert.Error(t, s.Save(ctx, entries))
	})
}

func TestClickHouseLedgerStorage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewClickHouseLedgerStorage(db, "ledger", nil)
	ctx := context.Background()
	entries := sampleEntries()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger (id, seq, asset, market_type, outcome, ts, payload, version) VALUES (?, ?, ?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(
			"e1", sqlmock.AnyArg(), "SOL", "solana", "win", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"e2", sqlmock.AnyArg(), "AAPL", "stock", "open", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, s.Save(ctx, entries))

	p1, _ := json.Marshal(entries[0])
	p2, _ := json.Marshal(entries[1])
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM ledger FINAL ORDER BY seq ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(string(p1)).AddRow(string(p2)))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.OutcomeWin, got[0].Outcome)
	assert.Equal(t, "e2", got[1].ID)

	require.NoError(t, s.Save(ctx, nil))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, ClickHouseLedgerSchema("ledger")[0], "ReplacingMergeTree(version)")
}

func TestPostgresLedgerStorage(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()

	s := NewPostgresLedgerStorage(sqlx.NewDb(raw, "postgres"), "", time.Second)
	ctx := context.Background()
	entries := sampleEntries()

	t.Run("save upserts in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "ledger_entries"`))
		prep.ExpectExec().WithArgs("e1", 0, "SOL", "solana", "win", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		prep.ExpectExec().WithArgs("e2", 1, "AAPL", "stock", "open", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, s.Save(ctx, entries))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed row rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "ledger_entries"`))
		prep.ExpectExec().WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		assert.Error(t, s.Save(ctx, entries))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("load orders by seq", func(t *testing.T) {
		p1, _ := json.Marshal(entries[0])
		p2, _ := json.Marshal(entries[1])
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM "ledger_entries" ORDER BY seq ASC`)).
			WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(p1).AddRow(p2))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "e1", got[0].ID)
		assert.Equal(t, 110.0, *got[0].ExitPrice)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

type flakyStorage struct {
	mu       sync.Mutex
	failures int
	calls    int
	saved    []models.LedgerEntry
}

func (f *flakyStorage) Save(_ context.Context, entries []models.LedgerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return errors.New("unavailable")
	}
	f.saved = entries
	return nil
}

func (f *flakyStorage) Load(context.Context) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures != 0 {
		return nil, errors.New("unavailable")
	}
	return f.saved, nil
}

func TestResilientLedgerStorage_RetriesTransientFailures(t *testing.T) {
	inner := &flakyStorage{failures: 2}
	s := NewResilientLedgerStorage(inner, nil, WithRetry(2, time.Millisecond))

	require.NoError(t, s.Save(context.Background(), sampleEntries()))
	assert.Equal(t, 3, inner.calls)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestResilientLedgerStorage_OpensBreaker(t *testing.T) {
	inner := &flakyStorage{failures: -1}
	s := NewResilientLedgerStorage(inner, nil,
		WithRetry(0, time.Millisecond),
		WithBreaker(breaker.New("test", breaker.WithTimeout(time.Hour))),
	)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.Error(t, s.Save(ctx, nil))
	}
	err := s.Save(ctx, nil)
	assert.ErrorIs(t, err, breaker.ErrOpen)
	assert.Equal(t, 3, inner.calls)
}

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaPublisher(fp, "signalfusion.decisions")

	require.NoError(t, p.Publish(context.Background(), "SOL", map[string]string{"a": "b"}))
	assert.Equal(t, "signalfusion.decisions", fp.topic)
	assert.Equal(t, []byte("SOL"), fp.key)
	require.NoError(t, p.Close())
	assert.True(t, fp.closed)

	assert.NoError(t, NopPublisher{}.Publish(context.Background(), "k", nil))
}
