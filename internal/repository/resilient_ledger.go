package repository

import (
	"context"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
	"SignalFusion/pkg/breaker"
	xlogger "SignalFusion/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

var _ domrepo.LedgerStorage = (*ResilientLedgerStorage)(nil)

type ResilientOption func(*ResilientLedgerStorage)

// WithRetry sets how many extra attempts each call gets and the first wait.
func WithRetry(retries uint64, initial time.Duration) ResilientOption {
	return func(s *ResilientLedgerStorage) {
		s.retries = retries
		s.initial = initial
	}
}

func WithBreaker(b *breaker.Breaker) ResilientOption {
	return func(s *ResilientLedgerStorage) { s.cb = b }
}

// ResilientLedgerStorage retries a durable backend with exponential backoff
// and stops calling it while its breaker is open. A whole retry sequence
// counts as one breaker failure.
type ResilientLedgerStorage struct {
	inner   domrepo.LedgerStorage
	cb      *breaker.Breaker
	retries uint64
	initial time.Duration
	l       *xlogger.Logger
}

func NewResilientLedgerStorage(inner domrepo.LedgerStorage, l *xlogger.Logger, opts ...ResilientOption) *ResilientLedgerStorage {
	if l == nil {
		l = xlogger.Nop()
	}
	s := &ResilientLedgerStorage{
		inner:   inner,
		retries: 2,
		initial: 100 * time.Millisecond,
		l:       l,
	}
	for _, o := range opts {
		o(s)
	}
	if s.cb == nil {
		s.cb = breaker.New("ledger-storage", breaker.WithStateChange(func(name, from, to string) {
			l.Warn("breaker state changed",
				xlogger.String("breaker", name),
				xlogger.String("from", from),
				xlogger.String("to", to),
			)
		}))
	}
	return s
}

func (s *ResilientLedgerStorage) Save(ctx context.Context, entries []models.LedgerEntry) error {
	return s.cb.Do(func() error {
		return s.retry(ctx, "save", func() error { return s.inner.Save(ctx, entries) })
	})
}

func (s *ResilientLedgerStorage) Load(ctx context.Context) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	err := s.cb.Do(func() error {
		return s.retry(ctx, "load", func() error {
			var err error
			out, err = s.inner.Load(ctx)
			return err
		})
	})
	return out, err
}

func (s *ResilientLedgerStorage) retry(ctx context.Context, op string, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.initial
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, s.retries), ctx)

	return backoff.RetryNotify(fn, policy, func(err error, wait time.Duration) {
		s.l.Warn("ledger storage retry",
			xlogger.String("op", op),
			xlogger.Duration("wait_ms", wait),
			xlogger.Error(err),
		)
	})
}
