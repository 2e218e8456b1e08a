package dedup

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/shared/events"

	"github.com/redis/go-redis/v9"
)

// Redis keeps processed event ids as keys with a TTL. Ids are written after
// the handler succeeded, so a crash before that point re-applies the event.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis stores keys as <prefix>:dedup:<eventId>.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: strings.TrimSuffix(prefix, ":"), now: time.Now}
}

func (r *Redis) key(eventID string) string {
	return r.prefix + ":dedup:" + eventID
}

func (r *Redis) Processed(ctx context.Context, eventID string, payloadHash string) (bool, error) {
	existing, err := r.client.Get(ctx, r.key(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if existing != payloadHash {
		return false, events.ErrIdempotencyKeyConflict
	}
	return true, nil
}

// MarkProcessed is SET NX with the remaining TTL.
func (r *Redis) MarkProcessed(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.SetNX(ctx, r.key(eventID), payloadHash, ttl).Result()
}
