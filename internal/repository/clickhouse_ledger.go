package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
	xlogger "SignalFusion/pkg/logger"
)

var _ domrepo.LedgerStorage = (*ClickHouseLedgerStorage)(nil)

const chLedgerDDL = `
CREATE TABLE IF NOT EXISTS %s (
    id          String,
    seq         UInt64,
    asset       LowCardinality(String),
    market_type LowCardinality(String),
    outcome     LowCardinality(String),
    ts          DateTime64(3, 'UTC'),
    payload     String,
    version     UInt64
) ENGINE = ReplacingMergeTree(version)
ORDER BY id`

// ClickHouseLedgerSchema returns the statements that create the ledger table.
func ClickHouseLedgerSchema(table string) []string {
	return []string{fmt.Sprintf(chLedgerDDL, table)}
}

// ClickHouseLedgerStorage writes ledger rows into a ReplacingMergeTree keyed
// by entry id. Every save rewrites all rows with a newer version; reads use
// FINAL so only the latest version of each entry is returned.
type ClickHouseLedgerStorage struct {
	db    *sql.DB
	table string
	l     *xlogger.Logger
	now   func() time.Time
}

func NewClickHouseLedgerStorage(db *sql.DB, table string, l *xlogger.Logger) *ClickHouseLedgerStorage {
	if table == "" {
		table = "signalfusion.ledger_entries"
	}
	if l == nil {
		l = xlogger.Nop()
	}
	return &ClickHouseLedgerStorage{db: db, table: table, l: l, now: time.Now}
}

func (s *ClickHouseLedgerStorage) Save(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	start := time.Now()
	version := uint64(s.now().UnixNano())

	const chunkSize = 2000
	for from := 0; from < len(entries); from += chunkSize {
		to := from + chunkSize
		if to > len(entries) {
			to = len(entries)
		}

		values := make([]string, 0, to-from)
		args := make([]interface{}, 0, (to-from)*8)
		for i, e := range entries[from:to] {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal entry %s: %w", e.ID, err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				e.ID,
				uint64(from+i),
				e.Asset,
				string(e.MarketType),
				string(e.Outcome),
				e.Timestamp.UTC(),
				string(payload),
				version,
			)
		}

		q := fmt.Sprintf("INSERT INTO %s (id, seq, asset, market_type, outcome, ts, payload, version) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse ledger insert error",
				xlogger.String("table", s.table),
				xlogger.Int("rows", len(values)),
				xlogger.Error(err),
			)
			return fmt.Errorf("insert ledger rows: %w", err)
		}
	}

	s.l.Debug("clickhouse ledger saved",
		xlogger.String("table", s.table),
		xlogger.Int("rows", len(entries)),
		xlogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *ClickHouseLedgerStorage) Load(ctx context.Context) ([]models.LedgerEntry, error) {
	q := fmt.Sprintf("SELECT payload FROM %s FINAL ORDER BY seq ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse ledger query error", xlogger.String("table", s.table), xlogger.Error(err))
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerEntry
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		var e models.LedgerEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode ledger row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
