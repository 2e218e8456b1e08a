package commands

import (
	"context"
	"log/slog"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
)

type FollowCommand struct {
	FollowerID  string
	FollowingID string
}

// FollowUseCase mutates the local follow graph. Follows are not published.
type FollowUseCase struct {
	Users   ports.UserRepository
	Follows ports.FollowRepository
	Clock   ports.Clock
	Logger  *slog.Logger
}

func (u FollowUseCase) Follow(ctx context.Context, cmd FollowCommand) (entities.FollowCounts, error) {
	logger := application.ResolveLogger(u.Logger)
	follow, err := entities.NewFollow(cmd.FollowerID, cmd.FollowingID, now(u.Clock))
	if err != nil {
		return entities.FollowCounts{}, err
	}
	target, err := u.Users.GetUser(ctx, follow.FollowingID)
	if err != nil {
		return entities.FollowCounts{}, err
	}
	if !target.IsActive {
		return entities.FollowCounts{}, domainerrors.ErrUserInactive
	}
	if _, err := u.Users.GetUser(ctx, follow.FollowerID); err != nil {
		return entities.FollowCounts{}, err
	}

	counts, err := u.Follows.AddFollow(ctx, follow)
	if err != nil {
		return entities.FollowCounts{}, err
	}
	logger.Info("user followed",
		"event", "user_followed",
		"module", application.Module,
		"layer", "application",
		"follower_id", follow.FollowerID,
		"following_id", follow.FollowingID,
		"followers_count", counts.FollowingFollowersCount,
	)
	return counts, nil
}

func (u FollowUseCase) Unfollow(ctx context.Context, cmd FollowCommand) (entities.FollowCounts, error) {
	logger := application.ResolveLogger(u.Logger)
	follow, err := entities.NewFollow(cmd.FollowerID, cmd.FollowingID, now(u.Clock))
	if err != nil {
		return entities.FollowCounts{}, err
	}
	counts, err := u.Follows.RemoveFollow(ctx, follow.FollowerID, follow.FollowingID)
	if err != nil {
		return entities.FollowCounts{}, err
	}
	logger.Info("user unfollowed",
		"event", "user_unfollowed",
		"module", application.Module,
		"layer", "application",
		"follower_id", follow.FollowerID,
		"following_id", follow.FollowingID,
		"followers_count", counts.FollowingFollowersCount,
	)
	return counts, nil
}
