package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper remembers idempotency keys so a retried event post is relayed once.
type EventDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventDeduper(client *redis.Client, ttl time.Duration) *EventDeduper {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &EventDeduper{client: client, ttl: ttl}
}

// Claim reports whether key is seen for the first time within the TTL.
// A nil deduper or an empty key always claims.
func (d *EventDeduper) Claim(ctx context.Context, key string) (bool, error) {
	if d == nil || d.client == nil || key == "" {
		return true, nil
	}
	return d.client.SetNX(ctx, d.prefixed(key), 1, d.ttl).Result()
}

func (d *EventDeduper) prefixed(key string) string {
	return "idem:events:" + key
}
