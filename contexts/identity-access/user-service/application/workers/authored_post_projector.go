package workers

import (
	"context"
	"log/slog"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/domain/entities"
	"inkwell/contexts/identity-access/user-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/lifecycle"
)

// AuthoredPostProjector keeps postsCount in step with post-events. The
// count is recomputed from the projection, so replays cannot drift it.
type AuthoredPostProjector struct {
	Projections ports.AuthoredPostRepository
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (p AuthoredPostProjector) Register(router *events.Router) {
	events.On(router, eventsv1.EventPostCreated, func(ctx context.Context, event events.Event[eventsv1.PostCreated]) error {
		return p.observe(ctx, event.Payload.PostID, event.Payload.UserID, true)
	})
	events.On(router, eventsv1.EventPostUpdated, func(ctx context.Context, event events.Event[eventsv1.PostUpdated]) error {
		return p.observe(ctx, event.Payload.PostID, event.Payload.UserID, event.Payload.IsActive)
	})
	events.On(router, eventsv1.EventPostDeleted, func(ctx context.Context, event events.Event[eventsv1.PostDeleted]) error {
		return p.observe(ctx, event.Payload.PostID, event.Payload.UserID, false)
	})
}

func (p AuthoredPostProjector) observe(ctx context.Context, postID string, userID string, active bool) error {
	logger := application.ResolveLogger(p.Logger)
	post, found, err := p.Projections.GetAuthoredPost(ctx, postID)
	if err != nil {
		return err
	}
	if !found {
		post = entities.AuthoredPost{PostID: postID}
	}
	ownerLearned := post.UserID == "" && userID != ""
	if ownerLearned {
		post.UserID = userID
	}

	var transition lifecycle.Transition
	if active {
		post.State, transition = post.State.ObserveActive()
	} else {
		post.State, transition = post.State.ObserveInactive()
	}
	if transition == lifecycle.Unchanged || (transition == lifecycle.Refreshed && !ownerLearned) {
		logger.Debug("authored post observation absorbed",
			"event", "user_authored_post_unchanged",
			"module", application.Module,
			"layer", "worker",
			"post_id", postID,
			"state", string(post.State),
		)
		return nil
	}

	post.UpdatedAt = now(p.Clock)
	postsCount, err := p.Projections.SaveAuthoredPost(ctx, post)
	if err != nil {
		return err
	}
	logger.Info("authored post projected",
		"event", "user_authored_post_projected",
		"module", application.Module,
		"layer", "worker",
		"post_id", postID,
		"user_id", post.UserID,
		"state", string(post.State),
		"posts_count", postsCount,
	)
	return nil
}
