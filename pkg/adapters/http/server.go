// Package http exposes the assistant over a small JSON API routed with chi.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/squadchat"
	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// Service is the part of squadchat.Assistant the API drives.
type Service interface {
	Handle(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Session(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
	Reset(ctx context.Context, sessionID string) error
	Graph(ctx context.Context, sessionID string) (string, error)
}

// ChatRequest is the body of POST /chat. An empty SessionID starts a new session.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse carries the reply and the session id to send the next message with.
type ChatResponse struct {
	SessionID string           `json:"session_id"`
	Kind      domain.ReplyKind `json:"kind"`
	Text      string           `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server holds the handlers' dependencies.
type Server struct {
	Service Service
	Streams *StreamManager
	Metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithStreams enables GET /events, fed by the manager's lifecycle hooks.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h (usually promhttp) at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for svc.
// Requests to the operations in openapi.yaml are validated against it.
func NewHandler(svc Service, opts ...Option) http.Handler {
	s := &Server{Service: svc, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	router, err := newRouter()
	if err != nil {
		// The document is embedded; this only fails on a broken build.
		panic(err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.validateRequests(router))

	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Post("/chat", s.Chat)
	r.Get("/sessions/{id}", s.GetSession)
	r.Delete("/sessions/{id}", s.DeleteSession)
	r.Get("/graph", s.GetGraph)
	r.Get("/health", s.GetHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	if s.Streams != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if body.SessionID == "" {
		body.SessionID = squadchat.NewSessionID()
	}

	reply, err := s.Service.Handle(r.Context(), body.SessionID, body.Message)
	if err != nil {
		s.writeError(w, r, statusFor(err), "chat failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: body.SessionID,
		Kind:      reply.Kind,
		Text:      reply.Text,
	})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionParam(w, r)
	if !ok {
		return
	}
	cp, err := s.Service.Session(r.Context(), id)
	if err != nil {
		s.writeError(w, r, statusFor(err), "load session failed", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cp)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionParam(w, r)
	if !ok {
		return
	}
	if err := s.Service.Reset(r.Context(), id); err != nil {
		s.writeError(w, r, statusFor(err), "delete session failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid session id", err)
		return "", false
	}
	return id, true
}

// GetGraph handles GET /graph, optionally highlighting ?session_id=.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	mermaid, err := s.Service.Graph(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		s.writeError(w, r, statusFor(err), "render graph failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, mermaid)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": squadchat.Version})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, squadchat.ErrInvalidInput), errors.Is(err, session.ErrEmptySessionID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	attrs := []any{"status", status, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), msg, attrs...)
	} else {
		s.logger.WarnContext(r.Context(), msg, attrs...)
	}

	text := err.Error()
	if status == http.StatusInternalServerError {
		text = http.StatusText(status)
	}
	s.writeJSON(w, status, errorResponse{Error: text})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
