// AngelaMos | 2026
// ledger.go

package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/lifelessons-api/internal/core"
)

// EventLedger remembers processed webhook event ids so redeliveries are
// acknowledged without touching the store.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string) error
}

type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

func eventKey(eventID string) string {
	return core.RedisKey("webhook", "event", eventID)
}

func (l *RedisLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, eventKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", eventID, err)
	}
	return n > 0, nil
}

func (l *RedisLedger) Record(ctx context.Context, eventID string) error {
	if err := l.client.Set(ctx, eventKey(eventID), time.Now().UTC().Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("record event %s: %w", eventID, err)
	}
	return nil
}
