// Package redis adapts Redis as a shared idempotency store so retried
// commands are deduplicated across replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"carpool/internal/app/middleware"
)

const defaultTTL = 24 * time.Hour

type IdempotencyStore struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

type IdempotencyOption func(*IdempotencyStore)

func WithTTL(ttl time.Duration) IdempotencyOption {
	return func(s *IdempotencyStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPrefix(prefix string) IdempotencyOption {
	return func(s *IdempotencyStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

func NewIdempotencyStore(client *goredis.Client, opts ...IdempotencyOption) *IdempotencyStore {
	store := &IdempotencyStore{
		client: client,
		prefix: "carpool:idem:",
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	var rec middleware.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+rec.Key, raw, s.ttl).Err()
}
