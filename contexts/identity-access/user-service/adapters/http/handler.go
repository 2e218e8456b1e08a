package httpadapter

import (
	"context"
	"log/slog"

	application "inkwell/contexts/identity-access/user-service/application"
	"inkwell/contexts/identity-access/user-service/application/commands"
	"inkwell/contexts/identity-access/user-service/application/queries"
	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	httptransport "inkwell/contexts/identity-access/user-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	RegisterUser commands.RegisterUserUseCase
	UpdateUser   commands.UpdateUserUseCase
	Follow       commands.FollowUseCase
	GetUser      queries.GetUserUseCase
	ListFollows  queries.ListFollowsUseCase
	Logger       *slog.Logger
}

func (h Handler) RegisterUserHandler(
	ctx context.Context,
	request httptransport.RegisterUserRequest,
) (httptransport.UserResponse, error) {
	user, err := h.RegisterUser.Execute(ctx, commands.RegisterUserCommand{
		Username: request.Username,
		Email:    request.Email,
		Password: request.Password,
		FullName: request.FullName,
		Bio:      request.Bio,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (h Handler) GetUserHandler(ctx context.Context, userID string) (httptransport.UserResponse, error) {
	user, err := h.GetUser.Execute(ctx, userID)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (h Handler) GetUserByUsernameHandler(ctx context.Context, username string) (httptransport.UserResponse, error) {
	user, err := h.GetUser.ByUsername(ctx, username)
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

// UpdateProfileHandler only lets users edit their own profile; actorID is
// the authenticated caller.
func (h Handler) UpdateProfileHandler(
	ctx context.Context,
	actorID string,
	userID string,
	request httptransport.UpdateProfileRequest,
) (httptransport.UserResponse, error) {
	if err := requireSelf(actorID, userID); err != nil {
		return httptransport.UserResponse{}, err
	}
	user, err := h.UpdateUser.UpdateProfile(ctx, commands.UpdateProfileCommand{
		UserID:   userID,
		FullName: request.FullName,
		Bio:      request.Bio,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (h Handler) SetActiveHandler(
	ctx context.Context,
	actorID string,
	userID string,
	request httptransport.SetActiveRequest,
) (httptransport.UserResponse, error) {
	if err := requireSelf(actorID, userID); err != nil {
		return httptransport.UserResponse{}, err
	}
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http set user active received",
		"event", "user_http_set_active_received",
		"module", application.Module,
		"layer", "transport",
		"user_id", userID,
		"is_active", request.IsActive,
	)
	user, err := h.UpdateUser.SetActive(ctx, commands.SetUserActiveCommand{
		UserID:   userID,
		IsActive: request.IsActive,
	})
	if err != nil {
		return httptransport.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (h Handler) FollowHandler(ctx context.Context, actorID string, userID string) (httptransport.FollowResponse, error) {
	counts, err := h.Follow.Follow(ctx, commands.FollowCommand{FollowerID: actorID, FollowingID: userID})
	if err != nil {
		return httptransport.FollowResponse{}, err
	}
	return toFollowResponse(actorID, userID, true, counts), nil
}

func (h Handler) UnfollowHandler(ctx context.Context, actorID string, userID string) (httptransport.FollowResponse, error) {
	counts, err := h.Follow.Unfollow(ctx, commands.FollowCommand{FollowerID: actorID, FollowingID: userID})
	if err != nil {
		return httptransport.FollowResponse{}, err
	}
	return toFollowResponse(actorID, userID, false, counts), nil
}

func (h Handler) IsFollowingHandler(ctx context.Context, followerID string, followingID string) (httptransport.FollowStatusResponse, error) {
	following, err := h.ListFollows.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return httptransport.FollowStatusResponse{}, err
	}
	return httptransport.FollowStatusResponse{
		FollowerID:  followerID,
		FollowingID: followingID,
		Following:   following,
	}, nil
}

func (h Handler) ListFollowersHandler(ctx context.Context, userID string, limit int) (httptransport.ListFollowsResponse, error) {
	items, err := h.ListFollows.Followers(ctx, userID, limit)
	if err != nil {
		return httptransport.ListFollowsResponse{}, err
	}
	return toListFollowsResponse(userID, items), nil
}

func (h Handler) ListFollowingHandler(ctx context.Context, userID string, limit int) (httptransport.ListFollowsResponse, error) {
	items, err := h.ListFollows.Following(ctx, userID, limit)
	if err != nil {
		return httptransport.ListFollowsResponse{}, err
	}
	return toListFollowsResponse(userID, items), nil
}

func toUserResponse(user entities.User) httptransport.UserResponse {
	return httptransport.UserResponse{
		UserID:         user.UserID,
		Username:       user.Username,
		Email:          user.Email,
		FullName:       user.FullName,
		Bio:            user.Bio,
		IsActive:       user.IsActive,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
		PostsCount:     user.PostsCount,
		LikesCount:     user.LikesCount,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func toFollowResponse(followerID string, followingID string, following bool, counts entities.FollowCounts) httptransport.FollowResponse {
	return httptransport.FollowResponse{
		FollowerID:     followerID,
		FollowingID:    followingID,
		Following:      following,
		FollowersCount: counts.FollowingFollowersCount,
		FollowingCount: counts.FollowerFollowingCount,
	}
}

func toListFollowsResponse(userID string, items []entities.Follow) httptransport.ListFollowsResponse {
	resp := httptransport.ListFollowsResponse{
		UserID: userID,
		Items:  make([]httptransport.FollowDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.FollowDTO{
			FollowerID:  item.FollowerID,
			FollowingID: item.FollowingID,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp
}

func requireSelf(actorID string, userID string) error {
	if actorID == "" || actorID != userID {
		return domainerrors.ErrForbidden
	}
	return nil
}
