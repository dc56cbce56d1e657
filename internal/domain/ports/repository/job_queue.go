package repository

import (
	"context"

	"pdf-ai-pipeline/internal/domain/model"
)

// JobQueue decouples submission from execution. Delivery is at-least-once:
// a delivery that is never acked is handed out again after Recover.
type JobQueue interface {
	Enqueue(ctx context.Context, job *model.Job) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*model.Delivery, error)
	Ack(ctx context.Context, d *model.Delivery) error
	// Recover moves claimed-but-unacked jobs back to pending and returns how many moved.
	Recover(ctx context.Context) (int, error)
	Stats(ctx context.Context) (model.QueueStats, error)
}
