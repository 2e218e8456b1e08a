package interactionservice

import (
	"log/slog"

	httpadapter "inkwell/contexts/community-interaction/interaction-service/adapters/http"
	"inkwell/contexts/community-interaction/interaction-service/adapters/memory"
	postgresadapter "inkwell/contexts/community-interaction/interaction-service/adapters/postgres"
	"inkwell/contexts/community-interaction/interaction-service/application/commands"
	"inkwell/contexts/community-interaction/interaction-service/application/queries"
	"inkwell/contexts/community-interaction/interaction-service/application/workers"
	"inkwell/contexts/community-interaction/interaction-service/ports"
	"inkwell/internal/shared/events"
)

// Module is the interaction-service composition root exposed to runtime wiring.
type Module struct {
	Handler  httpadapter.Handler
	Consumer workers.EventConsumer
	Store    *memory.Store
}

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

	return Module{
		Handler: httpadapter.Handler{
			Likes: commands.LikeUseCase{
				Posts:       deps.Repository,
				Comments:    deps.Repository,
				Likes:       deps.Repository,
				Clock:       clock,
				IDGenerator: ids,
				Notifier:    deps.Notifier,
				Logger:      deps.Logger,
			},
			Comments: commands.CommentUseCase{
				Posts:       deps.Repository,
				Comments:    deps.Repository,
				Clock:       clock,
				IDGenerator: ids,
				Notifier:    deps.Notifier,
				Logger:      deps.Logger,
			},
			GetPostStats: queries.GetPostStatsUseCase{Repository: deps.Repository},
			ListComments: queries.ListCommentsUseCase{Repository: deps.Repository},
			LikeStatus:   queries.LikeStatusUseCase{Repository: deps.Repository},
			ListLikes:    queries.ListLikesUseCase{Repository: deps.Repository},
			Logger:       deps.Logger,
		},
		Consumer: workers.EventConsumer{
			Registry: events.StandardRegistry(),
			Posts: workers.PostReconciler{
				Posts:  deps.Repository,
				Clock:  clock,
				Logger: deps.Logger,
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
