package commands

import (
	"context"
	"log/slog"
	"strings"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
	eventsv1 "inkwell/contracts/gen/events/v1"
	"inkwell/internal/shared/outbox"
)

// UpdateProfileCommand changes the optional profile fields. Nil fields are
// left untouched.
type UpdateProfileCommand struct {
	UserID   string
	FullName *string
	Bio      *string
}

type SetUserActiveCommand struct {
	UserID   string
	IsActive bool
}

// UpdateUserUseCase handles profile edits and (de)activation. Both emit
// USER_UPDATED carrying the resulting isActive flag.
type UpdateUserUseCase struct {
	Repository  ports.UserRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Notifier    ports.OutboxNotifier
	Logger      *slog.Logger
}

func (u UpdateUserUseCase) UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (entities.User, error) {
	return u.apply(ctx, cmd.UserID, func(user *entities.User) (bool, error) {
		if !user.IsActive {
			return false, domainerrors.ErrUserInactive
		}
		if cmd.FullName != nil {
			user.FullName = strings.TrimSpace(*cmd.FullName)
		}
		if cmd.Bio != nil {
			user.Bio = *cmd.Bio
		}
		if err := user.Validate(); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (u UpdateUserUseCase) SetActive(ctx context.Context, cmd SetUserActiveCommand) (entities.User, error) {
	return u.apply(ctx, cmd.UserID, func(user *entities.User) (bool, error) {
		if user.IsActive == cmd.IsActive {
			return false, nil
		}
		user.IsActive = cmd.IsActive
		return true, nil
	})
}

// apply runs mutate against the locked user row and queues USER_UPDATED
// from the state it leaves behind.
func (u UpdateUserUseCase) apply(ctx context.Context, userID string, mutate ports.UserMutation) (entities.User, error) {
	logger := application.ResolveLogger(u.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.User{}, domainerrors.ErrInvalidUserID
	}

	var eventID string
	user, changed, err := u.Repository.UpdateUser(ctx, userID,
		func(user *entities.User) (bool, error) {
			changed, err := mutate(user)
			if changed {
				user.UpdatedAt = now(u.Clock)
			}
			return changed, err
		},
		func(user entities.User) (outbox.Message, error) {
			message, err := newUserEvent(ctx, u.IDGenerator, eventsv1.EventUserUpdated, user.UserID, user.UpdatedAt, eventsv1.UserUpdated{
				UserID:   user.UserID,
				Username: user.Username,
				FullName: user.FullName,
				Bio:      user.Bio,
				IsActive: user.IsActive,
			})
			eventID = message.ID
			return message, err
		},
	)
	if err != nil {
		logger.Error("user update failed",
			"event", "user_update_failed",
			"module", application.Module,
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
		return entities.User{}, err
	}
	if !changed {
		return user, nil
	}
	notify(u.Notifier)

	logger.Info("user updated",
		"event", "user_updated",
		"module", application.Module,
		"layer", "application",
		"user_id", user.UserID,
		"is_active", user.IsActive,
		"event_id", eventID,
	)
	return user, nil
}
