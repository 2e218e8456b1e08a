package postservice

import (
	"log/slog"

	httpadapter "inkwell/contexts/content-publishing/post-service/adapters/http"
	"inkwell/contexts/content-publishing/post-service/adapters/memory"
	postgresadapter "inkwell/contexts/content-publishing/post-service/adapters/postgres"
	"inkwell/contexts/content-publishing/post-service/application/commands"
	"inkwell/contexts/content-publishing/post-service/application/queries"
	"inkwell/contexts/content-publishing/post-service/application/workers"
	"inkwell/contexts/content-publishing/post-service/ports"
	"inkwell/internal/shared/events"
)

// Module is the post-service composition root exposed to runtime wiring.
type Module struct {
	Handler  httpadapter.Handler
	Consumer workers.EventConsumer
	Store    *memory.Store
}

// Dependencies captures all runtime ports required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	clock := deps.Clock
	if clock == nil {
		clock = postgresadapter.SystemClock{}
	}
	ids := deps.IDGenerator
	if ids == nil {
		ids = postgresadapter.UUIDGenerator{}
	}

	handler := httpadapter.Handler{
		CreatePost: commands.CreatePostUseCase{
			Repository:  deps.Repository,
			Clock:       clock,
			IDGenerator: ids,
			Notifier:    deps.Notifier,
			Logger:      deps.Logger,
		},
		UpdatePost: commands.UpdatePostUseCase{
			Repository:  deps.Repository,
			Clock:       clock,
			IDGenerator: ids,
			Notifier:    deps.Notifier,
			Logger:      deps.Logger,
		},
		GetPost:   queries.GetPostUseCase{Repository: deps.Repository},
		ListPosts: queries.ListPostsByAuthorUseCase{Repository: deps.Repository},
		Logger:    deps.Logger,
	}

	return Module{
		Handler: handler,
		Consumer: workers.EventConsumer{
			Registry: events.StandardRegistry(),
			Authors: workers.AuthorProjector{
				Authors:     deps.Repository,
				Clock:       clock,
				IDGenerator: ids,
				Notifier:    deps.Notifier,
				Logger:      deps.Logger,
			},
			Engagement: workers.EngagementProjector{
				Engagement: deps.Repository,
				Clock:      clock,
				Logger:     deps.Logger,
			},
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
