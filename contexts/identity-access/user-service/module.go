package userservice

import (
	"log/slog"

	httpadapter "inkwell/contexts/identity-access/user-service/adapters/http"
	"inkwell/contexts/identity-access/user-service/adapters/memory"
	postgresadapter "inkwell/contexts/identity-access/user-service/adapters/postgres"
	"inkwell/contexts/identity-access/user-service/adapters/security"
	"inkwell/contexts/identity-access/user-service/application/commands"
	"inkwell/contexts/identity-access/user-service/application/queries"
	"inkwell/contexts/identity-access/user-service/application/workers"
	"inkwell/contexts/identity-access/user-service/ports"
	"inkwell/internal/shared/events"
)

// Module is the user-service composition root exposed to runtime wiring.
type Module struct {
	Handler  httpadapter.Handler
	Consumer workers.EventConsumer
	Store    *memory.Store
}

// Dependencies captures all runtime ports required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Hasher      ports.PasswordHasher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = security.BcryptHasher{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = postgresadapter.SystemClock{}
	}
	ids := deps.IDGenerator
	if ids == nil {
		ids = postgresadapter.UUIDGenerator{}
	}

	handler := httpadapter.Handler{
		RegisterUser: commands.RegisterUserUseCase{
			Repository:  deps.Repository,
			Hasher:      hasher,
			Clock:       clock,
			IDGenerator: ids,
			Notifier:    deps.Notifier,
			Logger:      deps.Logger,
		},
		UpdateUser: commands.UpdateUserUseCase{
			Repository:  deps.Repository,
			Clock:       clock,
			IDGenerator: ids,
			Notifier:    deps.Notifier,
			Logger:      deps.Logger,
		},
		Follow: commands.FollowUseCase{
			Users:   deps.Repository,
			Follows: deps.Repository,
			Clock:   clock,
			Logger:  deps.Logger,
		},
		GetUser:     queries.GetUserUseCase{Repository: deps.Repository},
		ListFollows: queries.ListFollowsUseCase{Repository: deps.Repository},
		Logger:      deps.Logger,
	}

	return Module{
		Handler: handler,
		Consumer: workers.EventConsumer{
			Registry: events.StandardRegistry(),
			Projector: workers.AuthoredPostProjector{
				Projections: deps.Repository,
				Clock:       clock,
				Logger:      deps.Logger,
			},
			LikeCounter: workers.LikeCounter{
				Counters: deps.Repository,
				Logger:   deps.Logger,
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
