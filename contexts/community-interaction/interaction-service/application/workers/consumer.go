package workers

import (
	"context"
	"log/slog"

	application "inkwell/contexts/community-interaction/interaction-service/application"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/events"
)

// EventConsumer subscribes interaction-service to post-events.
type EventConsumer struct {
	Subscriber    events.Subscriber
	Registry      *events.Registry
	Guard         *events.Guard
	ConsumerGroup string
	Posts         PostReconciler
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
	c.Posts.Register(posts)
	return []*events.Router{posts}
}

func (c EventConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	for _, router := range c.Routers() {
		if err := c.Subscriber.Subscribe(ctx, router.Topic(), c.ConsumerGroup, router.Dispatch); err != nil {
			return err
		}
		logger.Info("event consumer subscribed",
			"event", "interaction_consumer_subscribed",
			"module", application.Module,
			"layer", "worker",
			"topic", router.Topic(),
			"consumer_group", c.ConsumerGroup,
		)
	}
	return nil
}
