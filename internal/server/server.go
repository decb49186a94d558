// Package server exposes the QA backend over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"loyalty_qa/internal/logger"
	"loyalty_qa/pkg"
)

// Asker runs one question through the dispatch pipeline.
type Asker interface {
	Handle(ctx context.Context, userID, query string) (string, error)
}

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server holds the HTTP handlers.
type Server struct {
	asker  Asker
	health HealthChecker
}

type askRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

type askResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the server. health may be nil when no backing store is wired.
func New(asker Asker, health HealthChecker) *Server {
	return &Server{asker: asker, health: health}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Query == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query and user_id are required"})
		return
	}

	answer, err := s.asker.Handle(r.Context(), req.UserID, req.Query)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Response: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps the error taxonomy onto response codes. All errors are
// request-scoped; none of them poison other users' requests.
func statusFor(err error) int {
	var unknownErr *pkg.UnknownIntentError
	switch {
	case errors.As(err, &unknownErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pkg.ErrRetrievalService), errors.Is(err, pkg.ErrGenerationService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
