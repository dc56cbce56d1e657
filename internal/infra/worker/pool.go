// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Loop is the body of one consumer goroutine. It returns when ctx is done.
type Loop func(ctx context.Context, workerID int)

// Pool runs a fixed number of consumer goroutines. Consumers share no
// mutable state; the queue they read from is the only synchronization point.
type Pool struct {
	wg  sync.WaitGroup
	n   int
	log *zerolog.Logger
}

func NewPool(workers int, log *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Pool{n: workers, log: log}
}

func (p *Pool) Size() int { return p.n }

// Start launches the consumers. Each worker restarts its loop after a panic.
func (p *Pool) Start(ctx context.Context, loop Loop) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for ctx.Err() == nil {
				p.runGuarded(ctx, id, loop)
			}
		}(i)
	}
	p.log.Info().Int("workers", p.n).Msg("worker pool started")
}

func (p *Pool) runGuarded(ctx context.Context, id int, loop Loop) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("worker loop panicked; restarting")
		}
	}()
	loop(ctx, id)
}

// Wait blocks until every consumer has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
	p.log.Info().Msg("worker pool stopped")
}
