package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

var _ domrepo.LedgerStorage = (*RedisLedgerStorage)(nil)

// RedisLedgerStorage stores the ledger as a single JSON document under key.
type RedisLedgerStorage struct {
	client redis.Cmdable
	key    string
}

func NewRedisLedgerStorage(client redis.Cmdable, key string) *RedisLedgerStorage {
	if key == "" {
		key = "signalfusion:ledger"
	}
	return &RedisLedgerStorage{client: client, key: key}
}

func (s *RedisLedgerStorage) Save(ctx context.Context, entries []models.LedgerEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisLedgerStorage) Load(ctx context.Context) ([]models.LedgerEntry, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var entries []models.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}
	return entries, nil
}
