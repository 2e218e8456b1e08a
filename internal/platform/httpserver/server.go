package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	interactionservice "inkwell/contexts/community-interaction/interaction-service"
	postservice "inkwell/contexts/content-publishing/post-service"
	userservice "inkwell/contexts/identity-access/user-service"
)

const (
	actorHeader     = "X-User-Id"
	shutdownTimeout = 10 * time.Second
)

// Modules selects which service surfaces the server mounts. A nil module is
// not routed.
type Modules struct {
	Users        *userservice.Module
	Posts        *postservice.Module
	Interactions *interactionservice.Module
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	modules Modules
}

func New(modules Modules, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		modules: modules,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped",
		"event", "http_server_stopped",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.modules.Users != nil {
		s.registerUserRoutes()
	}
	if s.modules.Posts != nil {
		s.registerPostRoutes()
	}
	if s.modules.Interactions != nil {
		s.registerInteractionRoutes()
	}
}

type errorWriter func(w http.ResponseWriter, status int, code string, message string)

// requireActor reads the caller id set by the gateway.
func requireActor(w http.ResponseWriter, r *http.Request, write errorWriter) (string, bool) {
	actorID := strings.TrimSpace(r.Header.Get(actorHeader))
	if actorID == "" {
		write(w, http.StatusUnauthorized, "missing_user", actorHeader+" header is required")
		return "", false
	}
	return actorID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any, write errorWriter) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		write(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func parseLimit(w http.ResponseWriter, r *http.Request, write errorWriter) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		write(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}

func (s *Server) logInternal(r *http.Request, err error) {
	s.logger.Error("http request failed",
		"event", "http_request_failed",
		"module", "internal/platform/httpserver",
		"layer", "transport",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err.Error(),
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
