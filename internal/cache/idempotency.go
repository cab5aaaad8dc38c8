package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper stores processed idempotency keys in Redis so a retried create
// request is not applied twice.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeduper creates a deduper using the provided Redis client and TTL.
func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{client: client, ttl: ttl}
}

func (d *Deduper) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (d *Deduper) Add(ctx context.Context, scope, key string) (bool, error) {
	return d.client.SetNX(ctx, d.key(scope, key), 1, d.ttl).Result()
}

// Remove deletes a previously recorded key. It is used when processing
// fails so the caller may retry.
func (d *Deduper) Remove(ctx context.Context, scope, key string) error {
	return d.client.Del(ctx, d.key(scope, key)).Err()
}
