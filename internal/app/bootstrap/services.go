package bootstrap

import (
	"context"
	"fmt"

	interactionservice "inkwell/contexts/community-interaction/interaction-service"
	interactionpostgres "inkwell/contexts/community-interaction/interaction-service/adapters/postgres"
	interactionapp "inkwell/contexts/community-interaction/interaction-service/application"
	postservice "inkwell/contexts/content-publishing/post-service"
	postpostgres "inkwell/contexts/content-publishing/post-service/adapters/postgres"
	postapp "inkwell/contexts/content-publishing/post-service/application"
	userservice "inkwell/contexts/identity-access/user-service"
	userpostgres "inkwell/contexts/identity-access/user-service/adapters/postgres"
	userapp "inkwell/contexts/identity-access/user-service/application"
	"inkwell/internal/platform/config"
	"inkwell/internal/platform/httpserver"
	"inkwell/internal/shared/events"
	"inkwell/internal/shared/outbox"
)

// service is one wired bounded-context service.
type service struct {
	modules    httpserver.Modules
	relay      *outbox.Relay
	dedupTable string
	consumer   func(subscriber events.Subscriber, guard *events.Guard, group string) consumer
}

type migrator interface {
	Migrate(ctx context.Context) error
}

func buildService(ctx context.Context, rt *runtime) (service, error) {
	conn := rt.database.DB
	migrate := func(repo migrator) error {
		if !rt.cfg.AutoMigrate {
			return nil
		}
		return repo.Migrate(ctx)
	}

	switch rt.cfg.ServiceName {
	case config.ServiceUsers:
		repo := userpostgres.NewRepository(conn, rt.logger)
		if err := migrate(repo); err != nil {
			return service{}, err
		}
		relay := rt.newRelay(repo.Outbox(), userapp.Module)
		module := userservice.NewModule(userservice.Dependencies{
			Repository: repo,
			Notifier:   relay,
			Logger:     rt.logger,
		})
		return service{
			modules:    httpserver.Modules{Users: &module},
			relay:      relay,
			dedupTable: userpostgres.DedupTable,
			consumer: func(subscriber events.Subscriber, guard *events.Guard, group string) consumer {
				c := module.Consumer
				c.Subscriber, c.Guard, c.ConsumerGroup = subscriber, guard, group
				return c
			},
		}, nil

	case config.ServicePosts:
		repo := postpostgres.NewRepository(conn, rt.logger)
		if err := migrate(repo); err != nil {
			return service{}, err
		}
		relay := rt.newRelay(repo.Outbox(), postapp.Module)
		module := postservice.NewModule(postservice.Dependencies{
			Repository: repo,
			Notifier:   relay,
			Logger:     rt.logger,
		})
		return service{
			modules:    httpserver.Modules{Posts: &module},
			relay:      relay,
			dedupTable: postpostgres.DedupTable,
			consumer: func(subscriber events.Subscriber, guard *events.Guard, group string) consumer {
				c := module.Consumer
				c.Subscriber, c.Guard, c.ConsumerGroup = subscriber, guard, group
				return c
			},
		}, nil

	case config.ServiceInteractions:
		repo := interactionpostgres.NewRepository(conn, rt.logger)
		if err := migrate(repo); err != nil {
			return service{}, err
		}
		relay := rt.newRelay(repo.Outbox(), interactionapp.Module)
		module := interactionservice.NewModule(interactionservice.Dependencies{
			Repository: repo,
			Notifier:   relay,
			Logger:     rt.logger,
		})
		return service{
			modules:    httpserver.Modules{Interactions: &module},
			relay:      relay,
			dedupTable: interactionpostgres.DedupTable,
			consumer: func(subscriber events.Subscriber, guard *events.Guard, group string) consumer {
				c := module.Consumer
				c.Subscriber, c.Guard, c.ConsumerGroup = subscriber, guard, group
				return c
			},
		}, nil
	}
	return service{}, fmt.Errorf("unknown service %q", rt.cfg.ServiceName)
}
