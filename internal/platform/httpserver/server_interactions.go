package httpserver

import (
	"errors"
	"net/http"

	interactionerrors "inkwell/contexts/community-interaction/interaction-service/domain/errors"
	interactionhttp "inkwell/contexts/community-interaction/interaction-service/transport/http"
)

func (s *Server) registerInteractionRoutes() {
	s.mux.HandleFunc("POST /api/v1/posts/{post_id}/likes", s.handleLikePost)
	s.mux.HandleFunc("DELETE /api/v1/posts/{post_id}/likes", s.handleUnlikePost)
	s.mux.HandleFunc("GET /api/v1/posts/{post_id}/likes", s.handleListPostLikes)
	s.mux.HandleFunc("GET /api/v1/posts/{post_id}/likes/check", s.handleCheckLikeStatus)
	s.mux.HandleFunc("POST /api/v1/posts/likes/bulk-check", s.handleBulkCheckLikeStatus)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}/likes", s.handleListUserLikes)
	s.mux.HandleFunc("POST /api/v1/posts/{post_id}/comments", s.handleCreateComment)
	s.mux.HandleFunc("GET /api/v1/posts/{post_id}/comments", s.handleListComments)
	s.mux.HandleFunc("GET /api/v1/posts/{post_id}/stats", s.handleGetPostStats)
	s.mux.HandleFunc("PATCH /api/v1/comments/{comment_id}", s.handleUpdateComment)
	s.mux.HandleFunc("DELETE /api/v1/comments/{comment_id}", s.handleDeleteComment)
	s.mux.HandleFunc("POST /api/v1/comments/{comment_id}/likes", s.handleLikeComment)
	s.mux.HandleFunc("DELETE /api/v1/comments/{comment_id}/likes", s.handleUnlikeComment)
}

func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.LikePostHandler(r.Context(), actorID, r.PathValue("post_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.UnlikePostHandler(r.Context(), actorID, r.PathValue("post_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPostLikes(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.ListPostLikesHandler(r.Context(), r.PathValue("post_id"), limit)
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListUserLikes(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.ListUserLikesHandler(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckLikeStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.CheckLikeStatusHandler(r.Context(), actorID, r.PathValue("post_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBulkCheckLikeStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	var req interactionhttp.BulkLikeStatusRequest
	if !decodeBody(w, r, &req, writeInteractionError) {
		return
	}
	resp, err := s.modules.Interactions.Handler.BulkCheckLikeStatusHandler(r.Context(), actorID, req)
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLikeComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.LikeCommentHandler(r.Context(), actorID, r.PathValue("comment_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUnlikeComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.UnlikeCommentHandler(r.Context(), actorID, r.PathValue("comment_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	var req interactionhttp.CreateCommentRequest
	if !decodeBody(w, r, &req, writeInteractionError) {
		return
	}
	resp, err := s.modules.Interactions.Handler.CreateCommentHandler(r.Context(), actorID, r.PathValue("post_id"), req)
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	var req interactionhttp.UpdateCommentRequest
	if !decodeBody(w, r, &req, writeInteractionError) {
		return
	}
	resp, err := s.modules.Interactions.Handler.UpdateCommentHandler(r.Context(), actorID, r.PathValue("comment_id"), req)
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.DeleteCommentHandler(r.Context(), actorID, r.PathValue("comment_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, writeInteractionError)
	if !ok {
		return
	}
	resp, err := s.modules.Interactions.Handler.ListCommentsHandler(r.Context(), r.PathValue("post_id"), limit)
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPostStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Interactions.Handler.GetPostStatsHandler(r.Context(), r.PathValue("post_id"))
	if err != nil {
		s.writeInteractionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeInteractionDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interactionerrors.ErrInvalidUserID),
		errors.Is(err, interactionerrors.ErrInvalidPostID),
		errors.Is(err, interactionerrors.ErrInvalidCommentID),
		errors.Is(err, interactionerrors.ErrInvalidComment),
		errors.Is(err, interactionerrors.ErrInvalidParent),
		errors.Is(err, interactionerrors.ErrTooManyTargets):
		writeInteractionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, interactionerrors.ErrPostUnavailable):
		writeInteractionError(w, http.StatusGone, "post_unavailable", err.Error())
	case errors.Is(err, interactionerrors.ErrCommentNotFound):
		writeInteractionError(w, http.StatusNotFound, "comment_not_found", err.Error())
	case errors.Is(err, interactionerrors.ErrLikeNotFound):
		writeInteractionError(w, http.StatusNotFound, "like_not_found", err.Error())
	case errors.Is(err, interactionerrors.ErrAlreadyLiked):
		writeInteractionError(w, http.StatusConflict, "already_liked", err.Error())
	case errors.Is(err, interactionerrors.ErrForbidden):
		writeInteractionError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		s.logInternal(r, err)
		writeInteractionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeInteractionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, interactionhttp.ErrorResponse{Code: code, Message: message})
}
