package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsEveryWorker(t *testing.T) {
	var started atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(3, nil)
	assert.Equal(t, 3, p.Size())

	p.Start(ctx, func(ctx context.Context, _ int) {
		started.Add(1)
		<-ctx.Done()
	})
	assert.Eventually(t, func() bool { return started.Load() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	p.Wait()
}

func TestPool_RestartsAfterPanic(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(1, nil)

	p.Start(ctx, func(ctx context.Context, _ int) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		<-ctx.Done()
	})
	assert.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	p.Wait()
}

func TestNewPool_DefaultsToCPUCount(t *testing.T) {
	assert.Positive(t, NewPool(0, nil).Size())
}
