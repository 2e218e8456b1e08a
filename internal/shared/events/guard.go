package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

const defaultDedupTTL = 7 * 24 * time.Hour

// DedupStore is the durable set of processed event ids.
type DedupStore interface {
	// Processed reports whether eventID was recorded. A recorded id whose
	// hash differs from payloadHash is ErrIdempotencyKeyConflict.
	Processed(ctx context.Context, eventID string, payloadHash string) (bool, error)
	// MarkProcessed records eventID once its handler succeeded. It reports
	// false when another delivery recorded it first.
	MarkProcessed(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// AtomicDedupStore records the event id in the same unit of work as the
// handler's writes, so a crash never leaves one without the other.
type AtomicDedupStore interface {
	DedupStore
	// RunOnce records eventID and runs fn in one unit of work carried by the
	// ctx passed to fn. An error from fn rolls both back. It reports true
	// without calling fn when eventID was already recorded.
	RunOnce(
		ctx context.Context,
		eventID string,
		payloadHash string,
		expiresAt time.Time,
		fn func(ctx context.Context) error,
	) (bool, error)
}

// Guard applies each event id at most once per consumer.
type Guard struct {
	store  DedupStore
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func NewGuard(store DedupStore, ttl time.Duration, logger *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		store:  store,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Run calls fn unless the envelope's event id was processed before, in
// which case it returns true. A failed fn leaves nothing recorded so that a
// redelivery applies the event again.
//
// With an AtomicDedupStore the record commits with fn's writes. Otherwise it
// is written after fn returns; a crash in between re-applies the event on
// redelivery instead of losing it.
func (g *Guard) Run(ctx context.Context, envelope Envelope, fn func(ctx context.Context) error) (bool, error) {
	hash := HashPayload(envelope.Data)
	expiresAt := g.now().Add(g.ttl)
	if atomic, ok := g.store.(AtomicDedupStore); ok {
		return atomic.RunOnce(ctx, envelope.EventID, hash, expiresAt, fn)
	}

	processed, err := g.store.Processed(ctx, envelope.EventID, hash)
	if err != nil || processed {
		return processed, err
	}
	if err := fn(ctx); err != nil {
		return false, err
	}
	recorded, err := g.store.MarkProcessed(ctx, envelope.EventID, hash, expiresAt)
	if err != nil {
		return false, err
	}
	if !recorded {
		g.logger.Warn("event applied by concurrent deliveries",
			"event", "event_dedup_concurrent_apply",
			"module", "internal/shared/events",
			"layer", "platform",
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
		)
	}
	return false, nil
}

func HashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
