package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.JobQueue = (*JobQueue)(nil)

// JobQueue stores jobs in summarize_jobs. Workers claim rows with
// FOR UPDATE SKIP LOCKED so concurrent claims never return the same row.
type JobQueue struct {
	pool       *pgxpool.Pool
	tm         repository.TransactionManager
	poll       time.Duration
	visibility time.Duration
	now        func() time.Time
}

func NewJobQueue(pool *pgxpool.Pool, tm repository.TransactionManager, pollInterval, visibility time.Duration) *JobQueue {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if visibility <= 0 {
		visibility = 15 * time.Minute
	}
	if tm == nil {
		tm = NewTxManager(pool)
	}
	return &JobQueue{pool: pool, tm: tm, poll: pollInterval, visibility: visibility, now: time.Now}
}

func (q *JobQueue) Enqueue(ctx context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidArgument
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = q.now().UTC()
	}
	const insertSQL = `
INSERT INTO summarize_jobs (id, pdf_id, storage_path, callback_url, llm_provider, mode, status, enqueued_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
ON CONFLICT (id) DO NOTHING;`
	_, err := q.pool.Exec(ctx, insertSQL,
		job.ID, job.PDFID, job.StoragePath, job.CallbackURL, string(job.Provider), string(job.Mode), job.EnqueuedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Dequeue polls every poll interval until a row is claimed or ctx ends.
func (q *JobQueue) Dequeue(ctx context.Context) (*model.Delivery, error) {
	t := time.NewTicker(q.poll)
	defer t.Stop()
	for {
		d, err := q.claim(ctx)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (q *JobQueue) claim(ctx context.Context) (*model.Delivery, error) {
	var d *model.Delivery
	err := q.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ex, err := querierFor(q.pool, tx)
		if err != nil {
			return err
		}
		const pickSQL = `
SELECT id, pdf_id, storage_path, callback_url, llm_provider, mode, enqueued_at
FROM summarize_jobs
WHERE status = 'pending'
ORDER BY enqueued_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`
		var (
			job            model.Job
			provider, mode string
		)
		err = ex.QueryRow(ctx, pickSQL).Scan(
			&job.ID, &job.PDFID, &job.StoragePath, &job.CallbackURL, &provider, &mode, &job.EnqueuedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("pick job: %w", err)
		}
		job.Provider = model.Provider(provider)
		job.Mode = model.Mode(mode)

		claimedAt := q.now().UTC()
		const markSQL = `
UPDATE summarize_jobs
SET status = 'processing', claimed_at = $2, attempts = attempts + 1
WHERE id = $1;`
		if _, err := ex.Exec(ctx, markSQL, job.ID, claimedAt); err != nil {
			return fmt.Errorf("mark job processing: %w", err)
		}
		d = &model.Delivery{Job: &job, Receipt: job.ID, ClaimedAt: claimedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (q *JobQueue) Ack(ctx context.Context, d *model.Delivery) error {
	if d == nil || d.Receipt == "" {
		return domain.ErrInvalidArgument
	}
	const ackSQL = `
UPDATE summarize_jobs
SET status = 'acked', acked_at = $2
WHERE id = $1 AND status = 'processing';`
	tag, err := q.pool.Exec(ctx, ackSQL, d.Receipt, q.now().UTC())
	if err != nil {
		return fmt.Errorf("ack job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Recover returns claims older than the visibility timeout to pending.
func (q *JobQueue) Recover(ctx context.Context) (int, error) {
	const recoverSQL = `
UPDATE summarize_jobs
SET status = 'pending', claimed_at = NULL
WHERE status = 'processing' AND claimed_at < $1;`
	tag, err := q.pool.Exec(ctx, recoverSQL, q.now().UTC().Add(-q.visibility))
	if err != nil {
		return 0, fmt.Errorf("recover jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (q *JobQueue) Stats(ctx context.Context) (model.QueueStats, error) {
	const statsSQL = `
SELECT
  COUNT(*) FILTER (WHERE status = 'pending'),
  COUNT(*) FILTER (WHERE status = 'processing')
FROM summarize_jobs;`
	var s model.QueueStats
	if err := q.pool.QueryRow(ctx, statsSQL).Scan(&s.Pending, &s.InFlight); err != nil {
		return model.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	return s, nil
}
