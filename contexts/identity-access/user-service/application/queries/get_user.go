package queries

import (
	"context"
	"strings"

	"inkwell/contexts/identity-access/user-service/domain/entities"
	domainerrors "inkwell/contexts/identity-access/user-service/domain/errors"
	"inkwell/contexts/identity-access/user-service/ports"
)

type GetUserUseCase struct {
	Repository ports.UserRepository
}

func (u GetUserUseCase) Execute(ctx context.Context, userID string) (entities.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.User{}, domainerrors.ErrInvalidUserID
	}
	return u.Repository.GetUser(ctx, userID)
}

func (u GetUserUseCase) ByUsername(ctx context.Context, username string) (entities.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return entities.User{}, domainerrors.ErrInvalidUser
	}
	return u.Repository.GetUserByUsername(ctx, username)
}
