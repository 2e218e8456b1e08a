package workers

import (
	"context"
	"log/slog"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
)

// LikeCounter adjusts likesCount of the liked content's owner. It relies on
// the router's dedup guard: the adjustment itself is not idempotent.
type LikeCounter struct {
	Counters ports.LikeCounterRepository
	Logger   *slog.Logger
}

func (c LikeCounter) Register(router *events.Router) {
	events.On(router, eventsv1.EventLikeAdded, func(ctx context.Context, event events.Event[eventsv1.LikeChanged]) error {
		return c.adjust(ctx, event.Payload, 1)
	})
	events.On(router, eventsv1.EventLikeRemoved, func(ctx context.Context, event events.Event[eventsv1.LikeChanged]) error {
		return c.adjust(ctx, event.Payload, -1)
	})
}

func (c LikeCounter) adjust(ctx context.Context, like eventsv1.LikeChanged, delta int64) error {
	logger := application.ResolveLogger(c.Logger)
	if like.TargetOwnerID == "" {
		logger.Debug("like without owner ignored",
			"event", "user_like_owner_missing",
			"module", application.Module,
			"layer", "worker",
			"like_id", like.LikeID,
			"target_id", like.TargetID,
		)
		return nil
	}

	likesCount, found, err := c.Counters.AdjustLikesCount(ctx, like.TargetOwnerID, delta)
	if err != nil {
		return err
	}
	if !found {
		logger.Warn("like owner not found",
			"event", "user_like_owner_unknown",
			"module", application.Module,
			"layer", "worker",
			"user_id", like.TargetOwnerID,
			"target_id", like.TargetID,
		)
		return nil
	}
	logger.Info("likes counter adjusted",
		"event", "user_likes_count_adjusted",
		"module", application.Module,
		"layer", "worker",
		"user_id", like.TargetOwnerID,
		"delta", delta,
		"likes_count", likesCount,
	)
	return nil
}
