package repository

import (
	"context"
	"sync"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
)

var _ domrepo.LedgerStorage = (*MemoryLedgerStorage)(nil)

// MemoryLedgerStorage keeps the ledger in process memory. It is the default
// backend and loses everything on restart.
type MemoryLedgerStorage struct {
	mu      sync.RWMutex
	entries []models.LedgerEntry
}

func NewMemoryLedgerStorage() *MemoryLedgerStorage {
	return &MemoryLedgerStorage{}
}

func (s *MemoryLedgerStorage) Save(_ context.Context, entries []models.LedgerEntry) error {
	cp := make([]models.LedgerEntry, len(entries))
	copy(cp, entries)
	s.mu.Lock()
	s.entries = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryLedgerStorage) Load(_ context.Context) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LedgerEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
