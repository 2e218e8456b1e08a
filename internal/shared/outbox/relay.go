package outbox

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/shared/events"
)

const (
	defaultBatchSize = 100
	defaultRetention = 72 * time.Hour
)

// Relay forwards pending outbox rows to the broker. A row is marked sent
// only after the publisher returns; a failed row stops the batch so rows
// behind it keep their order.
type Relay struct {
	Store     Store
	Publisher events.Publisher
	Now       func() time.Time
	BatchSize int
	Retention time.Duration
	Module    string
	Logger    *slog.Logger
	// Purgers run on the outbox purge schedule.
	Purgers []Purger

	notify chan struct{}
}

// Purger drops rows whose own expiry has passed, such as processed event
// ids kept next to the outbox.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

func NewRelay(store Store, publisher events.Publisher, module string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		Store:     store,
		Publisher: publisher,
		Module:    module,
		Logger:    logger,
		notify:    make(chan struct{}, 1),
	}
}

// Notify wakes Run without waiting for the next tick. It never blocks.
func (r *Relay) Notify() {
	if r.notify == nil {
		return
	}
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// RunOnce forwards one batch and reports how many rows were sent.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	logger := r.logger()
	pending, err := r.Store.ListPending(ctx, r.batchSize())
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "outbox_list_failed",
			"module", r.Module,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	sent := 0
	for _, message := range pending {
		envelope, err := events.Decode(message.Payload)
		if err != nil {
			logger.Error("outbox payload decode failed",
				"event", "outbox_decode_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", message.ID,
				"error", err.Error(),
			)
			if markErr := r.Store.MarkDead(ctx, message.ID, err.Error()); markErr != nil {
				return sent, markErr
			}
			continue
		}

		if err := r.Publisher.Publish(ctx, message.Topic, message.PartitionKey, envelope); err != nil {
			logger.Warn("outbox publish failed",
				"event", "outbox_publish_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", message.ID,
				"topic", message.Topic,
				"partition_key", message.PartitionKey,
				"event_type", message.EventType,
				"attempts", message.Attempts+1,
				"error", err.Error(),
			)
			if markErr := r.Store.MarkFailed(ctx, message.ID, err.Error()); markErr != nil {
				logger.Error("outbox mark failed errored",
					"event", "outbox_mark_failed_failed",
					"module", r.Module,
					"layer", "worker",
					"outbox_id", message.ID,
					"error", markErr.Error(),
				)
			}
			return sent, err
		}

		if err := r.Store.MarkSent(ctx, message.ID, r.now()); err != nil {
			logger.Error("outbox mark sent failed",
				"event", "outbox_mark_sent_failed",
				"module", r.Module,
				"layer", "worker",
				"outbox_id", message.ID,
				"error", err.Error(),
			)
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "outbox_relay_completed",
			"module", r.Module,
			"layer", "worker",
			"sent_count", sent,
		)
	}
	return sent, nil
}

// Run forwards on every tick or notification until ctx is cancelled.
// Publish failures are logged and retried on the next cycle.
func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPurge := time.Time{}
	for {
		sent, err := r.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil && sent == r.batchSize() {
			continue
		}
		if now := r.now(); now.Sub(lastPurge) >= time.Hour {
			r.purge(ctx, now)
			lastPurge = now
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-r.notify:
		}
	}
}

func (r *Relay) purge(ctx context.Context, now time.Time) {
	retention := r.Retention
	if retention <= 0 {
		retention = defaultRetention
	}
	purged, err := r.Store.PurgeSent(ctx, now.Add(-retention))
	r.logPurge("outbox", purged, err)
	for _, purger := range r.Purgers {
		purged, err := purger.PurgeExpired(ctx, now)
		r.logPurge("expired", purged, err)
	}
}

func (r *Relay) logPurge(kind string, purged int64, err error) {
	if err != nil {
		r.logger().Warn("outbox purge failed",
			"event", "outbox_purge_failed",
			"module", r.Module,
			"layer", "worker",
			"kind", kind,
			"error", err.Error(),
		)
		return
	}
	if purged > 0 {
		r.logger().Info("outbox rows purged",
			"event", "outbox_purged",
			"module", r.Module,
			"layer", "worker",
			"kind", kind,
			"purged_count", purged,
		)
	}
}

func (r *Relay) batchSize() int {
	if r.BatchSize <= 0 {
		return defaultBatchSize
	}
	return r.BatchSize
}

func (r *Relay) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
