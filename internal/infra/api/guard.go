package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
)

type Middleware func(http.Handler) http.Handler

const (
	HeaderTraceID = "X-Trace-ID"
	HeaderAPIKey  = "X-API-Key"
)

// TraceID reuses an incoming X-Trace-ID or mints one, and echoes it back.
func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := r.Header.Get(HeaderTraceID)
			if tid == "" || len(tid) > 64 {
				tid = uuid.NewString()
			}
			w.Header().Set(HeaderTraceID, tid)
			next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), tid)))
		})
	}
}

// quietPaths are polled by orchestrators and logged at debug only.
var quietPaths = map[string]bool{"/health": true, "/metrics": true}

// RequestLog logs each request once it completes and feeds the latency
// histogram, labelled by route pattern so document ids never become labels.
func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			metrics.ObserveHTTP(route, sw.status, elapsed)

			l := logging.With(r.Context(), logger)
			var ev *zerolog.Event
			switch {
			case sw.status >= 500:
				ev = l.Error()
			case sw.status >= 400:
				ev = l.Warn()
			case quietPaths[r.URL.Path]:
				ev = l.Debug()
			default:
				ev = l.Info()
			}
			ev.Str("method", r.Method).
				Str("route", route).
				Int("status", sw.status).
				Int("bytes", sw.bytes).
				Dur("duration", elapsed).
				Msg("http_request")
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Recover turns a handler panic into a 500 JSON error carrying the trace id.
func Recover(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logging.With(r.Context(), logger).Error().Interface("panic", rec).Msg("handler panic recovered")
					writeGuardError(w, http.StatusInternalServerError, "internal error", logging.TraceID(r.Context()))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds the request context; d <= 0 leaves it unbounded.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIKey rejects requests without a matching X-API-Key header. An empty key disables the check.
func APIKey(key string) Middleware {
	want := []byte(key)
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get(HeaderAPIKey)), want) != 1 {
				writeGuardError(w, http.StatusUnauthorized, "invalid or missing API key", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeGuardError(w http.ResponseWriter, status int, msg, traceID string) {
	body := map[string]string{"error": msg}
	if traceID != "" {
		body["trace_id"] = traceID
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
