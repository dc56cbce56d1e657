package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.JobQueue = (*JobQueue)(nil)

// JobQueue is a process-local FIFO for dev mode and tests. Jobs do not
// survive a restart, so Recover has nothing to do.
type JobQueue struct {
	ch       chan *model.Job
	inFlight atomic.Int64
	closed   chan struct{}
	once     sync.Once
}

func NewJobQueue(buffer int) *JobQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &JobQueue{ch: make(chan *model.Job, buffer), closed: make(chan struct{})}
}

func (q *JobQueue) Enqueue(ctx context.Context, job *model.Job) error {
	select {
	case <-q.closed:
		return domain.ErrQueueClosed
	default:
	}
	select {
	case q.ch <- job:
		return nil
	case <-q.closed:
		return domain.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *JobQueue) Dequeue(ctx context.Context) (*model.Delivery, error) {
	select {
	case job := <-q.ch:
		q.inFlight.Add(1)
		return &model.Delivery{Job: job, Receipt: job.ID, ClaimedAt: time.Now()}, nil
	case <-q.closed:
		return nil, domain.ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *JobQueue) Ack(_ context.Context, _ *model.Delivery) error {
	q.inFlight.Add(-1)
	return nil
}

func (q *JobQueue) Recover(context.Context) (int, error) { return 0, nil }

func (q *JobQueue) Stats(context.Context) (model.QueueStats, error) {
	return model.QueueStats{Pending: int64(len(q.ch)), InFlight: q.inFlight.Load()}, nil
}

// Close stops further enqueues and wakes blocked consumers.
func (q *JobQueue) Close() {
	q.once.Do(func() { close(q.closed) })
}
