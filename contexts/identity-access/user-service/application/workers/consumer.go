package workers

import (
	"context"
	"log/slog"
	"time"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
)

// EventConsumer subscribes user-service to the topics it projects.
type EventConsumer struct {
	Subscriber    events.Subscriber
	Registry      *events.Registry
	Guard         *events.Guard
	ConsumerGroup string
	Projector     AuthoredPostProjector
	LikeCounter   LikeCounter
	RouterOptions []events.Option
	Logger        *slog.Logger
}

func (c EventConsumer) Routers() []*events.Router {
	registry := c.Registry
	if registry == nil {
		registry = events.StandardRegistry()
	}
	opts := append([]events.Option{
		events.WithGuard(c.Guard),
		events.WithLogger(application.ResolveLogger(c.Logger)),
		events.WithModule(application.Module),
	}, c.RouterOptions...)

	posts := events.NewRouter(eventsv1.TopicPostEvents, registry, opts...)
	c.Projector.Register(posts)

	postInteractions := events.NewRouter(eventsv1.TopicPostInteractionEvents, registry, opts...)
	c.LikeCounter.Register(postInteractions)

	commentInteractions := events.NewRouter(eventsv1.TopicCommentInteractionEvents, registry, opts...)
	c.LikeCounter.Register(commentInteractions)

	return []*events.Router{posts, postInteractions, commentInteractions}
}

// Start subscribes every router. Consumption continues until ctx is done.
func (c EventConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	for _, router := range c.Routers() {
		if err := c.Subscriber.Subscribe(ctx, router.Topic(), c.ConsumerGroup, router.Dispatch); err != nil {
			return err
		}
		logger.Info("event consumer subscribed",
			"event", "user_consumer_subscribed",
			"module", application.Module,
			"layer", "worker",
			"topic", router.Topic(),
			"consumer_group", c.ConsumerGroup,
		)
	}
	return nil
}

func now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
