package messaging

import (
	"context"
	"log/slog"
	"time"

	"inkwell/internal/shared/events"
)

// RetryPolicy bounds how often a failing delivery is retried before it is
// logged and skipped.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 30 * time.Second}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	wait := p.InitialWait
	if wait <= 0 {
		wait = time.Second
	}
	for i := 1; i < attempt; i++ {
		wait *= 2
		if p.MaxWait > 0 && wait >= p.MaxWait {
			return p.MaxWait
		}
	}
	return wait
}

// deliver runs handler until it succeeds, fails permanently or runs out of
// attempts, and reports whether the offset may be committed. The handler
// runs on a context detached from ctx so shutdown never interrupts it;
// only the wait between attempts observes cancellation.
func deliver(
	ctx context.Context,
	policy RetryPolicy,
	logger *slog.Logger,
	group string,
	handler events.DeliveryHandler,
	delivery events.Delivery,
) bool {
	handlerCtx := context.WithoutCancel(ctx)
	for attempt := 1; ; attempt++ {
		err := handler(handlerCtx, delivery)
		if err == nil {
			return true
		}
		if events.IsPermanent(err) || attempt >= policy.attempts() {
			logger.Error("delivery skipped after failed attempts",
				"event", "messaging_delivery_skipped",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", delivery.Topic,
				"consumer_group", group,
				"partition", delivery.Partition,
				"offset", delivery.Offset,
				"key", delivery.Key,
				"attempts", attempt,
				"error", err.Error(),
			)
			return true
		}

		wait := policy.backoff(attempt)
		logger.Warn("delivery failed; retrying",
			"event", "messaging_delivery_retry",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", delivery.Topic,
			"consumer_group", group,
			"partition", delivery.Partition,
			"offset", delivery.Offset,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err.Error(),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
