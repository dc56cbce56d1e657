package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Input rejected before any external call (empty text, empty prompt, bad payload).
	ErrInvalidInput = errors.New("invalid input")
	ErrTooLarge     = errors.New("upload exceeds the size limit")

	// Generation errors. Adapters wrap provider errors with exactly one of
	// ErrRateLimited or ErrProviderFailure so callers can classify with errors.Is.
	ErrRateLimited      = errors.New("provider rate limited")
	ErrProviderFailure  = errors.New("provider failure")
	ErrEmptyResponse    = errors.New("provider returned an empty response")
	ErrServiceExhausted = errors.New("all model tiers exhausted")

	// Session / quota errors
	ErrSessionNotFound = errors.New("chat session not found or expired")
	ErrQuotaExceeded   = errors.New("guest quota exceeded")

	// Queue errors
	ErrQueueClosed = errors.New("job queue closed")
)

// IsRateLimited reports whether err is a transient rate-limit failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
