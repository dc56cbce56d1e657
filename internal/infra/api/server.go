package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/config"
	"pdf-ai-pipeline/internal/infra/api/apiv1"
	"pdf-ai-pipeline/internal/infra/logging"
)

// HealthFunc reports readiness of a dependency; nil means healthy.
type HealthFunc func(ctx context.Context) error

// NewRouter builds the full handler tree: /health and /metrics stay outside
// the API key guard, /api/v1 sits behind it.
func NewRouter(cfg config.HTTPConfig, v1 *apiv1.Server, health map[string]HealthFunc, log *zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(log), Recover(log))

	r.Get("/health", healthHandler(health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(APIKey(cfg.APIKey), Timeout(cfg.RequestTimeout))
		apiv1.RegisterAPIV1(r, v1)
	})
	return r
}

// endpoints advertises the two summarization paths to clients polling /health.
var endpoints = map[string]string{
	"sync":  "/api/v1/ai/summarize-sync",
	"async": "/api/v1/ai/summarize-async",
}

func healthHandler(checks map[string]HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, fn := range checks {
			if err := fn(ctx); err != nil {
				status = http.StatusServiceUnavailable
				deps[name] = err.Error()
			} else {
				deps[name] = "ok"
			}
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":       state,
			"dependencies": deps,
			"endpoints":    endpoints,
		})
	}
}

// Server owns the listening http.Server.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, log *zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logging.Component(log, "http"),
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
