package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
)

type RegisterUserCommand struct {
	Username string
	Email    string
	Password string
	FullName string
	Bio      string
}

// RegisterUserUseCase creates an active account and queues USER_REGISTERED.
type RegisterUserUseCase struct {
	Repository  ports.UserRepository
	Hasher      ports.PasswordHasher
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func (u RegisterUserUseCase) Execute(ctx context.Context, cmd RegisterUserCommand) (entities.User, error) {
	logger := application.ResolveLogger(u.Logger)
	if len(cmd.Password) < 8 {
		return entities.User{}, domainerrors.ErrInvalidUser
	}

	userID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}
	createdAt := now(u.Clock)
	user := entities.User{
		UserID:    userID,
		Username:  strings.TrimSpace(cmd.Username),
		Email:     strings.ToLower(strings.TrimSpace(cmd.Email)),
		FullName:  strings.TrimSpace(cmd.FullName),
		Bio:       cmd.Bio,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := user.Validate(); err != nil {
		return entities.User{}, err
	}

	hash, err := u.Hasher.Hash(cmd.Password)
	if err != nil {
		return entities.User{}, err
	}
	user.PasswordHash = hash

	message, err := newUserEvent(ctx, u.IDGenerator, eventsv1.EventUserRegistered, user.UserID, createdAt, eventsv1.UserRegistered{
		UserID:   user.UserID,
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if err != nil {
		return entities.User{}, err
	}
	if err := u.Repository.CreateUser(ctx, user, message); err != nil {
		logger.Warn("register user rejected",
			"event", "user_register_failed",
			"module", application.Module,
			"layer", "application",
			"username", user.Username,
			"error", err.Error(),
		)
		return entities.User{}, err
	}
	notify(u.Notifier)

	logger.Info("user registered",
		"event", "user_registered",
		"module", application.Module,
		"layer", "application",
		"user_id", user.UserID,
		"event_id", message.ID,
	)
	return user, nil
}

func now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
