package repository

import (
	"context"
	"errors"
	"fmt"

	"HemoWatch/internal/domain/repository"
	"HemoWatch/internal/services/drift"
	"HemoWatch/pkg/cache"
)

// RedisStateStore checkpoints drift detector state in Redis, one JSON record
// per patient. Checkpoints carry no TTL: detector state must outlive any
// report cache.
type RedisStateStore struct {
	cache *cache.RedisCache
}

func NewRedisStateStore(c *cache.RedisCache) repository.StateStore {
	return &RedisStateStore{cache: c}
}

func stateKey(patientID string) string {
	return fmt.Sprintf("drift:state:%s", patientID)
}

func (s *RedisStateStore) Load(ctx context.Context, patientID string) (drift.State, bool, error) {
	var st drift.State
	err := s.cache.Get(ctx, stateKey(patientID), &st)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return drift.State{}, false, nil
		}
		return drift.State{}, false, fmt.Errorf("load drift state: %w", err)
	}
	return st, true, nil
}

func (s *RedisStateStore) Save(ctx context.Context, patientID string, st drift.State) error {
	if err := s.cache.Set(ctx, stateKey(patientID), st, 0); err != nil {
		return fmt.Errorf("save drift state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Reset(ctx context.Context, patientID string) error {
	if err := s.cache.Delete(ctx, stateKey(patientID)); err != nil {
		return fmt.Errorf("reset drift state: %w", err)
	}
	return nil
}
