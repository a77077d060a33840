package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var _ domrepo.LedgerStorage = (*PostgresLedgerStorage)(nil)

// PostgresLedgerSchema returns the statements that create the ledger table.
func PostgresLedgerSchema(table string) []string {
	t := pq.QuoteIdentifier(table)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			seq         BIGINT NOT NULL,
			asset       TEXT NOT NULL,
			market_type TEXT NOT NULL,
			outcome     TEXT NOT NULL,
			ts          TIMESTAMPTZ NOT NULL,
			payload     JSONB NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (asset, ts DESC)`,
			pq.QuoteIdentifier(table+"_asset_ts_idx"), t),
	}
}

type ledgerRow struct {
	Payload []byte `db:"payload"`
}

// PostgresLedgerStorage upserts every entry by id inside one transaction.
type PostgresLedgerStorage struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

func NewPostgresLedgerStorage(db *sqlx.DB, table string, timeout time.Duration) *PostgresLedgerStorage {
	if table == "" {
		table = "ledger_entries"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresLedgerStorage{db: db, table: table, timeout: timeout}
}

func (s *PostgresLedgerStorage) Save(ctx context.Context, entries []models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, seq, asset, market_type, outcome, ts, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			payload = EXCLUDED.payload,
			updated_at = now()`, pq.QuoteIdentifier(s.table)))
	if err != nil {
		return fmt.Errorf("prepare ledger upsert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, i, e.Asset, string(e.MarketType), string(e.Outcome), e.Timestamp, payload); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				return fmt.Errorf("upsert entry %s (%s): %w", e.ID, pqErr.Code.Name(), err)
			}
			return fmt.Errorf("upsert entry %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresLedgerStorage) Load(ctx context.Context) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []ledgerRow
	q := fmt.Sprintf("SELECT payload FROM %s ORDER BY seq ASC", pq.QuoteIdentifier(s.table))
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("select ledger: %w", err)
	}

	out := make([]models.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		var e models.LedgerEntry
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode ledger row: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
