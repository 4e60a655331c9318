package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventLedger remembers provider event ids that were already handled.
type EventLedger interface {
	// MarkProcessed records id and reports whether it was seen for the first time.
	MarkProcessed(ctx context.Context, id string) (bool, error)
	// Forget drops id so a provider retry is processed again.
	Forget(ctx context.Context, id string) error
}

type RedisEventLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisEventLedger(client *redis.Client, ttl time.Duration) *RedisEventLedger {
	return &RedisEventLedger{client: client, ttl: ttl}
}

func ledgerKey(id string) string {
	return "payments:webhook:event:" + id
}

func (l *RedisEventLedger) MarkProcessed(ctx context.Context, id string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKey(id), time.Now().UTC().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark webhook event %s: %w", id, err)
	}
	return ok, nil
}

func (l *RedisEventLedger) Forget(ctx context.Context, id string) error {
	if err := l.client.Del(ctx, ledgerKey(id)).Err(); err != nil {
		return fmt.Errorf("forget webhook event %s: %w", id, err)
	}
	return nil
}
