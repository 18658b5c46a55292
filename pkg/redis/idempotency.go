package redis

import (
	"context"
	"fmt"
	"time"
)

// IdempotencyStore marks request and webhook identifiers as seen so retries
// short-circuit instead of re-running side effects.
type IdempotencyStore struct {
	client *Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyStore builds a store with a key namespace and entry ttl.
func NewIdempotencyStore(client *Client, prefix string, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *IdempotencyStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

// Claim attempts to mark id as processed. Returns true when this caller is
// the first to see it.
func (s *IdempotencyStore) Claim(ctx context.Context, id string) (bool, error) {
	return s.client.SetNX(ctx, s.key(id), "1", s.ttl)
}

// Release drops the claim so a failed handler can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id))
}

// Lookup returns the stored value for id, or "" when nothing is recorded.
func (s *IdempotencyStore) Lookup(ctx context.Context, id string) (string, error) {
	return s.client.Get(ctx, s.key(id))
}

// Record stores value under id only when no record exists yet. A zero ttl
// falls back to the store default. Returns true when this caller wrote the
// record.
func (s *IdempotencyStore) Record(ctx context.Context, id, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.SetNX(ctx, s.key(id), value, ttl)
}
