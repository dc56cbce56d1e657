package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pdf-ai-pipeline/internal/domain"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := errorBody{Error: msg}
	if err != nil {
		body.Detail = err.Error()
	}
	writeJSON(w, status, body)
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrServiceExhausted):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusRequestEntityTooLarge:
		return "file too large"
	case http.StatusForbidden:
		return "guest usage limit reached"
	case http.StatusNotFound:
		return "not found"
	case http.StatusTooManyRequests:
		return "AI service is busy, please try again shortly"
	case http.StatusBadGateway:
		return "AI provider error"
	case http.StatusServiceUnavailable:
		return "AI service temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "request timed out"
	default:
		return "internal error"
	}
}
