// File: internal/usecase/retry.go
package usecase

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/infra/metrics"
)

const (
	DefaultBackoffCap    = 30 * time.Second
	DefaultBackoffJitter = 500 * time.Millisecond
)

// GenerateFunc is one attempt against a generation backend.
type GenerateFunc func(ctx context.Context) (string, error)

// RetryExecutor retries rate-limited calls with capped exponential backoff.
// Any other error ends the loop immediately.
type RetryExecutor struct {
	cap      time.Duration
	jitter   time.Duration
	jitterFn func(max time.Duration) time.Duration
	newTimer func() backoff.Timer
	log      *zerolog.Logger
}

type RetryOption func(*RetryExecutor)

// WithTimer replaces the sleep timer; a fresh timer is created per Execute call.
func WithTimer(fn func() backoff.Timer) RetryOption {
	return func(r *RetryExecutor) { r.newTimer = fn }
}

// WithJitterSource replaces the random jitter source.
func WithJitterSource(fn func(max time.Duration) time.Duration) RetryOption {
	return func(r *RetryExecutor) { r.jitterFn = fn }
}

func NewRetryExecutor(cap, jitter time.Duration, logger *zerolog.Logger, opts ...RetryOption) *RetryExecutor {
	if cap <= 0 {
		cap = DefaultBackoffCap
	}
	if jitter < 0 {
		jitter = 0
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &RetryExecutor{
		cap:      cap,
		jitter:   jitter,
		jitterFn: uniformJitter,
		log:      logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Execute makes at most maxAttempts calls. It returns the first success,
// the first non-rate-limited error, the last rate-limited error once the
// attempts are spent, or ctx.Err() when ctx ends during a sleep.
func (r *RetryExecutor) Execute(ctx context.Context, label string, maxAttempts int, call GenerateFunc) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var b backoff.BackOff = &exponentialCap{cap: r.cap, jitter: r.jitter, jitterFn: r.jitterFn}
	b = backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		if !domain.IsRateLimited(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	}
	notify := func(err error, sleep time.Duration) {
		metrics.IncRetry(label)
		r.log.Warn().Err(err).
			Str("tier", label).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("sleep", sleep).
			Msg("rate limited; backing off")
	}

	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}
	return backoff.RetryNotifyWithTimerAndData(op, b, notify, timer)
}

// exponentialCap yields min(cap, 2^n s) + jitter for the n-th retry (n from 1).
type exponentialCap struct {
	cap      time.Duration
	jitter   time.Duration
	jitterFn func(time.Duration) time.Duration
	n        int
}

func (e *exponentialCap) NextBackOff() time.Duration {
	e.n++
	d := e.cap
	if e.n < 32 {
		if exp := time.Duration(1<<e.n) * time.Second; exp < e.cap {
			d = exp
		}
	}
	if e.jitter > 0 && e.jitterFn != nil {
		d += e.jitterFn(e.jitter)
	}
	return d
}

func (e *exponentialCap) Reset() { e.n = 0 }

func uniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
