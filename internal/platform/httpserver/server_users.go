package httpserver

import (
	"errors"
	"net/http"

	usererrors "inkwell/contexts/identity-access/user-service/domain/errors"
	userhttp "inkwell/contexts/identity-access/user-service/transport/http"
)

func (s *Server) registerUserRoutes() {
	s.mux.HandleFunc("POST /api/v1/users", s.handleRegisterUser)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}", s.handleGetUser)
	s.mux.HandleFunc("PATCH /api/v1/users/{user_id}", s.handleUpdateProfile)
	s.mux.HandleFunc("PUT /api/v1/users/{user_id}/active", s.handleSetUserActive)
	s.mux.HandleFunc("POST /api/v1/users/{user_id}/follow", s.handleFollow)
	s.mux.HandleFunc("DELETE /api/v1/users/{user_id}/follow", s.handleUnfollow)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}/followers", s.handleListFollowers)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}/following", s.handleListFollowing)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}/following/{target_id}", s.handleIsFollowing)
	s.mux.HandleFunc("GET /api/v1/usernames/{username}", s.handleGetUserByUsername)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req userhttp.RegisterUserRequest
	if !decodeBody(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.modules.Users.Handler.RegisterUserHandler(r.Context(), req)
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Users.Handler.GetUserHandler(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserByUsername(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Users.Handler.GetUserByUsernameHandler(r.Context(), r.PathValue("username"))
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeUserError)
	if !ok {
		return
	}
	var req userhttp.UpdateProfileRequest
	if !decodeBody(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.modules.Users.Handler.UpdateProfileHandler(r.Context(), actorID, r.PathValue("user_id"), req)
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeUserError)
	if !ok {
		return
	}
	var req userhttp.SetActiveRequest
	if !decodeBody(w, r, &req, writeUserError) {
		return
	}
	resp, err := s.modules.Users.Handler.SetActiveHandler(r.Context(), actorID, r.PathValue("user_id"), req)
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeUserError)
	if !ok {
		return
	}
	resp, err := s.modules.Users.Handler.FollowHandler(r.Context(), actorID, r.PathValue("user_id"))
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeUserError)
	if !ok {
		return
	}
	resp, err := s.modules.Users.Handler.UnfollowHandler(r.Context(), actorID, r.PathValue("user_id"))
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFollowers(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, writeUserError)
	if !ok {
		return
	}
	resp, err := s.modules.Users.Handler.ListFollowersHandler(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFollowing(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, writeUserError)
	if !ok {
		return
	}
	resp, err := s.modules.Users.Handler.ListFollowingHandler(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIsFollowing(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Users.Handler.IsFollowingHandler(r.Context(), r.PathValue("user_id"), r.PathValue("target_id"))
	if err != nil {
		s.writeUserDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeUserDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usererrors.ErrInvalidUser),
		errors.Is(err, usererrors.ErrInvalidUserID),
		errors.Is(err, usererrors.ErrInvalidFollow),
		errors.Is(err, usererrors.ErrSelfFollow):
		writeUserError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, usererrors.ErrUserNotFound):
		writeUserError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, usererrors.ErrNotFollowing):
		writeUserError(w, http.StatusNotFound, "not_following", err.Error())
	case errors.Is(err, usererrors.ErrUsernameTaken):
		writeUserError(w, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, usererrors.ErrEmailTaken):
		writeUserError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, usererrors.ErrAlreadyFollowing):
		writeUserError(w, http.StatusConflict, "already_following", err.Error())
	case errors.Is(err, usererrors.ErrUserInactive):
		writeUserError(w, http.StatusConflict, "user_inactive", err.Error())
	case errors.Is(err, usererrors.ErrForbidden):
		writeUserError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		s.logInternal(r, err)
		writeUserError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeUserError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, userhttp.ErrorResponse{Code: code, Message: message})
}
