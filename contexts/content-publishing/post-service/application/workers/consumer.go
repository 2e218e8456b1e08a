package workers

import (
	"context"
	"log/slog"

	application "inkwell/contexts/content-publishing/post-service/application"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
)

// EventConsumer subscribes post-service to user-events and
// post-interaction-events.
type EventConsumer struct {
	Subscriber    events.Subscriber
	Registry      *events.Registry
	Guard         *events.Guard
	ConsumerGroup string
	Authors       AuthorProjector
	Engagement    EngagementProjector
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

	users := events.NewRouter(eventsv1.TopicUserEvents, registry, opts...)
	c.Authors.Register(users)

	interactions := events.NewRouter(eventsv1.TopicPostInteractionEvents, registry, opts...)
	c.Engagement.Register(interactions)

	return []*events.Router{users, interactions}
}

func (c EventConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	for _, router := range c.Routers() {
		if err := c.Subscriber.Subscribe(ctx, router.Topic(), c.ConsumerGroup, router.Dispatch); err != nil {
			return err
		}
		logger.Info("event consumer subscribed",
			"event", "post_consumer_subscribed",
			"module", application.Module,
			"layer", "worker",
			"topic", router.Topic(),
			"consumer_group", c.ConsumerGroup,
		)
	}
	return nil
}
