package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.JobQueue = (*JobQueue)(nil)

const (
	KeyPending    = "jobs:pending"
	KeyProcessing = "jobs:processing"
	KeyDead       = "jobs:dead"
	keyRecoverLk  = "jobs:recover:lock"
)

// JobQueue is a reliable list queue: BRPOPLPUSH moves a job atomically into
// the processing list, Ack removes it, Recover pushes leftovers back.
type JobQueue struct {
	client       *redClient
	recoverLease *lease
	blockTimeout time.Duration
	now          func() time.Time
}

func NewJobQueue(client *redClient, blockTimeout time.Duration) *JobQueue {
	if blockTimeout <= 0 {
		blockTimeout = 5 * time.Second
	}
	return &JobQueue{client: client, recoverLease: newLease(client, keyRecoverLk, time.Minute), blockTimeout: blockTimeout, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, job *model.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.client.cli.LPush(ctx, KeyPending, b).Err()
}

// Dequeue blocks in rounds of blockTimeout until a job arrives or ctx ends.
func (q *JobQueue) Dequeue(ctx context.Context) (*model.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := q.client.cli.BRPopLPush(ctx, KeyPending, KeyProcessing, q.blockTimeout).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		var job model.Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			// Park undecodable payloads so they are not redelivered forever.
			pipe := q.client.cli.TxPipeline()
			pipe.LRem(ctx, KeyProcessing, 1, raw)
			pipe.LPush(ctx, KeyDead, raw)
			if _, perr := pipe.Exec(ctx); perr != nil {
				return nil, fmt.Errorf("park bad payload: %w", perr)
			}
			return nil, fmt.Errorf("decode job payload: %w", err)
		}
		return &model.Delivery{Job: &job, Receipt: raw, ClaimedAt: q.now()}, nil
	}
}

func (q *JobQueue) Ack(ctx context.Context, d *model.Delivery) error {
	return q.client.cli.LRem(ctx, KeyProcessing, 1, d.Receipt).Err()
}

// Recover moves every job in the processing list back to pending. It is
// meant for startup, before any worker of this broker is consuming.
func (q *JobQueue) Recover(ctx context.Context) (int, error) {
	release, err := q.recoverLease.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	n := 0
	for {
		err := q.client.cli.RPopLPush(ctx, KeyProcessing, KeyPending).Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func (q *JobQueue) Stats(ctx context.Context) (model.QueueStats, error) {
	pipe := q.client.cli.Pipeline()
	pending := pipe.LLen(ctx, KeyPending)
	inFlight := pipe.LLen(ctx, KeyProcessing)
	if _, err := pipe.Exec(ctx); err != nil {
		return model.QueueStats{}, err
	}
	return model.QueueStats{Pending: pending.Val(), InFlight: inFlight.Val()}, nil
}
