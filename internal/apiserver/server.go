// Package apiserver is the HTTP surface cmd/ordinatord serve exposes over
// internal/orchestrator: a chi router (grounded on aristath-sentinel's
// trader-go/internal/server package) that decodes one apienvelope.SystemMessage
// per request body and returns its apienvelope.SystemResponse as JSON.
package apiserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oceanridge/ordinator/internal/apienvelope"
	"github.com/oceanridge/ordinator/pkg/log"
	"github.com/oceanridge/ordinator/pkg/metrics"
)

// Handler routes one decoded SystemMessage to its destination and returns a
// response or error. internal/orchestrator.Orchestrator satisfies this.
type Handler interface {
	Handle(ctx context.Context, msg apienvelope.SystemMessage) (apienvelope.SystemResponse, error)
}

// Server is the scheduler's HTTP API.
type Server struct {
	router *chi.Mux
	http   *http.Server
	orch   Handler
}

// New builds a Server listening on addr and routing through orch.
func New(addr string, orch Handler) *Server {
	s := &Server{router: chi.NewRouter(), orch: orch}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Get("/health", metrics.HealthHandler())
	s.router.Get("/ready", metrics.ReadyHandler())
	s.router.Get("/live", metrics.LivenessHandler())
	s.router.Get("/metrics", metrics.Handler().ServeHTTP)
	s.router.Post("/v1/messages", s.handleMessage)

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until the listener fails or is closed.
func (s *Server) ListenAndServe() error {
	log.Logger.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	metrics.UpdateComponent("api", true, "")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	timer := metrics.NewTimer()

	var msg apienvelope.SystemMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		timer.ObserveDurationVec(metrics.APIRequestDuration, "POST")
		metrics.APIRequestsTotal.WithLabelValues("POST", "400").Inc()
		return
	}

	resp, err := s.orch.Handle(r.Context(), msg)
	timer.ObserveDurationVec(metrics.APIRequestDuration, "POST")
	if err != nil {
		status := errStatus(err)
		metrics.APIRequestsTotal.WithLabelValues("POST", fmt.Sprintf("%d", status)).Inc()
		s.writeError(w, status, err)
		return
	}

	metrics.APIRequestsTotal.WithLabelValues("POST", "200").Inc()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// errStatus maps an orchestrator error to an HTTP status the same way
// apienvelope.ExitCode maps it to a CLI exit code: unknown asset/actor is a
// client error, everything else is a server error.
func errStatus(err error) int {
	switch apienvelope.ExitCode(err) {
	case 2:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
