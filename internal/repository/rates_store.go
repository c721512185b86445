package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fxrates/internal/rates"
)

// DefaultKeyPrefix namespaces the snapshot keys.
const DefaultKeyPrefix = "exchange:rates"

// RateStore persists the single latest rate snapshot.
type RateStore interface {
	Store(ctx context.Context, rs *rates.RateSet) error
	GetLatest(ctx context.Context) (*rates.RateSet, error)
	GetLastUpdateDate(ctx context.Context) (string, bool, error)
	HealthCheck(ctx context.Context) error
}

var _ RateStore = (*RedisRateStore)(nil)

// RedisRateStore keeps the snapshot under <prefix>:latest as JSON and its
// date under <prefix>:date. Both keys are overwritten together.
type RedisRateStore struct {
	rdb       *redis.Client
	latestKey string
	dateKey   string
}

// NewRedisRateStore creates a new RedisRateStore on a shared client.
func NewRedisRateStore(rdb *redis.Client, keyPrefix string) *RedisRateStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisRateStore{
		rdb:       rdb,
		latestKey: keyPrefix + ":latest",
		dateKey:   keyPrefix + ":date",
	}
}

// Store overwrites the snapshot and its date in one MULTI/EXEC transaction.
func (s *RedisRateStore) Store(ctx context.Context, rs *rates.RateSet) error {
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to store: %w", rates.ErrStore, err)
	}

	payload, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %w", rates.ErrStore, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.latestKey, payload, 0)
		pipe.Set(ctx, s.dateKey, rs.Date, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: write snapshot: %w", rates.ErrStore, err)
	}
	return nil
}

// GetLatest returns the stored snapshot, or (nil, nil) if none was stored yet.
func (s *RedisRateStore) GetLatest(ctx context.Context) (*rates.RateSet, error) {
	raw, err := s.rdb.Get(ctx, s.latestKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read snapshot: %w", rates.ErrStore, err)
	}

	var rs rates.RateSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("%w: decode stored snapshot: %w", rates.ErrInternal, err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("%w: stored snapshot is invalid: %w", rates.ErrInternal, err)
	}
	return &rs, nil
}

// GetLastUpdateDate reads only the date key.
func (s *RedisRateStore) GetLastUpdateDate(ctx context.Context) (string, bool, error) {
	date, err := s.rdb.Get(ctx, s.dateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: read snapshot date: %w", rates.ErrStore, err)
	}
	return date, true, nil
}

// HealthCheck pings the backend.
func (s *RedisRateStore) HealthCheck(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %w", rates.ErrStore, err)
	}
	return nil
}
