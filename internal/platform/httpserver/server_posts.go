package httpserver

import (
	"errors"
	"net/http"

	posterrors "inkwell/contexts/content-publishing/post-service/domain/errors"
	posthttp "inkwell/contexts/content-publishing/post-service/transport/http"
)

func (s *Server) registerPostRoutes() {
	s.mux.HandleFunc("POST /api/v1/posts", s.handleCreatePost)
	s.mux.HandleFunc("GET /api/v1/posts/{post_id}", s.handleGetPost)
	s.mux.HandleFunc("PATCH /api/v1/posts/{post_id}", s.handleUpdatePost)
	s.mux.HandleFunc("POST /api/v1/posts/{post_id}/deactivate", s.handleDeactivatePost)
	s.mux.HandleFunc("DELETE /api/v1/posts/{post_id}", s.handleDeletePost)
	s.mux.HandleFunc("GET /api/v1/users/{user_id}/posts", s.handleListPostsByAuthor)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writePostError)
	if !ok {
		return
	}
	var req posthttp.CreatePostRequest
	if !decodeBody(w, r, &req, writePostError) {
		return
	}
	resp, err := s.modules.Posts.Handler.CreatePostHandler(r.Context(), actorID, req)
	if err != nil {
		s.writePostDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Header.Get(actorHeader)
	resp, err := s.modules.Posts.Handler.GetPostHandler(r.Context(), viewerID, r.PathValue("post_id"))
	if err != nil {
		s.writePostDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writePostError)
	if !ok {
		return
	}
	var req posthttp.UpdatePostRequest
	if !decodeBody(w, r, &req, writePostError) {
		return
	}
	resp, err := s.modules.Posts.Handler.UpdatePostHandler(r.Context(), actorID, r.PathValue("post_id"), req)
	if err != nil {
		s.writePostDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeactivatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writePostError)
	if !ok {
		return
	}
	resp, err := s.modules.Posts.Handler.DeactivatePostHandler(r.Context(), actorID, r.PathValue("post_id"))
	if err != nil {
		s.writePostDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireActor(w, r, writePostError)
	if !ok {
		return
	}
	resp, err := s.modules.Posts.Handler.DeletePostHandler(r.Context(), actorID, r.PathValue("post_id"))
	if err != nil {
		s.writePostDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, writePostError)
	if !ok {
		return
	}
	viewerID := r.Header.Get(actorHeader)
	resp, err := s.modules.Posts.Handler.ListPostsByAuthorHandler(r.Context(), viewerID, r.PathValue("user_id"), limit)
	if err != nil {
		s.writePostDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writePostDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, posterrors.ErrInvalidPost),
		errors.Is(err, posterrors.ErrInvalidPostID),
		errors.Is(err, posterrors.ErrInvalidUserID):
		writePostError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, posterrors.ErrPostNotFound):
		writePostError(w, http.StatusNotFound, "post_not_found", err.Error())
	case errors.Is(err, posterrors.ErrPostInactive):
		writePostError(w, http.StatusConflict, "post_inactive", err.Error())
	case errors.Is(err, posterrors.ErrAuthorInactive):
		writePostError(w, http.StatusForbidden, "author_inactive", err.Error())
	case errors.Is(err, posterrors.ErrForbidden):
		writePostError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		s.logInternal(r, err)
		writePostError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePostError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, posthttp.ErrorResponse{Code: code, Message: message})
}
