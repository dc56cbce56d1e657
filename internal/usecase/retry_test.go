package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ai-pipeline/internal/domain"
)

func countingCall(replies ...reply) (GenerateFunc, *int) {
	n := 0
	return func(context.Context) (string, error) {
		i := n
		n++
		if i >= len(replies) {
			i = len(replies) - 1
		}
		return replies[i].out, replies[i].err
	}, &n
}

func TestRetry_SuccessFirstCall(t *testing.T) {
	timer := newRecordingTimer()
	r := NewRetryExecutor(30*time.Second, 0, nil, WithTimer(func() backoff.Timer { return timer }))
	call, n := countingCall(ok("done"))

	out, err := r.Execute(context.Background(), "capable", 3, call)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 1, *n)
	assert.Empty(t, timer.Slept())
}

func TestRetry_BoundAndIncreasingSleeps(t *testing.T) {
	timer := newRecordingTimer()
	r := NewRetryExecutor(30*time.Second, 500*time.Millisecond, nil,
		WithTimer(func() backoff.Timer { return timer }),
		WithJitterSource(noJitter))
	call, n := countingCall(fail(errRate))

	_, err := r.Execute(context.Background(), "capable", 4, call)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 4, *n)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, timer.Slept())
}

func TestRetry_SleepIsCapped(t *testing.T) {
	timer := newRecordingTimer()
	r := NewRetryExecutor(10*time.Second, 0, nil, WithTimer(func() backoff.Timer { return timer }))
	call, _ := countingCall(fail(errRate))

	_, err := r.Execute(context.Background(), "fast", 5, call)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second}, timer.Slept())
}

func TestRetry_JitterAdded(t *testing.T) {
	timer := newRecordingTimer()
	r := NewRetryExecutor(30*time.Second, 500*time.Millisecond, nil,
		WithTimer(func() backoff.Timer { return timer }),
		WithJitterSource(func(max time.Duration) time.Duration { return max / 2 }))
	call, _ := countingCall(fail(errRate), ok("x"))

	out, err := r.Execute(context.Background(), "capable", 3, call)
	require.NoError(t, err)
	assert.Equal(t, "x", out)
	assert.Equal(t, []time.Duration{2*time.Second + 250*time.Millisecond}, timer.Slept())
}

func TestRetry_DefaultJitterWithinBound(t *testing.T) {
	for i := 0; i < 100; i++ {
		j := uniformJitter(500 * time.Millisecond)
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, 500*time.Millisecond)
	}
}

func TestRetry_OtherErrorIsNotRetried(t *testing.T) {
	timer := newRecordingTimer()
	r := NewRetryExecutor(30*time.Second, 0, nil, WithTimer(func() backoff.Timer { return timer }))
	call, n := countingCall(fail(errOther))

	_, err := r.Execute(context.Background(), "capable", 5, call)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	var perm *backoff.PermanentError
	assert.False(t, errors.As(err, &perm), "permanent wrapper must not leak")
	assert.Equal(t, 1, *n)
	assert.Empty(t, timer.Slept())
}

func TestRetry_RateLimitedThenOther(t *testing.T) {
	r := instantRetry()
	call, n := countingCall(fail(errRate), fail(errOther), ok("never"))

	_, err := r.Execute(context.Background(), "capable", 5, call)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.Equal(t, 2, *n)
}

func TestRetry_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	timer := newRecordingTimer()
	timer.onStart = cancel
	r := NewRetryExecutor(30*time.Second, 0, nil, WithTimer(func() backoff.Timer { return timer }))
	call, n := countingCall(fail(errRate))

	_, err := r.Execute(ctx, "capable", 5, call)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *n)
}

func TestRetry_SingleAttempt(t *testing.T) {
	r := instantRetry()
	call, n := countingCall(fail(errRate))
	_, err := r.Execute(context.Background(), "fast", 0, call)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, *n)
}
