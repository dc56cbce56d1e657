package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
)

func TestJobQueue_FIFOAndStats(t *testing.T) {
	ctx := context.Background()
	q := NewJobQueue(4)
	require.NoError(t, q.Enqueue(ctx, &model.Job{ID: "a"}))
	require.NoError(t, q.Enqueue(ctx, &model.Job{ID: "b"}))

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", d.Job.ID)

	st, _ := q.Stats(ctx)
	assert.Equal(t, model.QueueStats{Pending: 1, InFlight: 1}, st)

	require.NoError(t, q.Ack(ctx, d))
	st, _ = q.Stats(ctx)
	assert.Equal(t, int64(0), st.InFlight)
}

func TestJobQueue_DequeueObservesContext(t *testing.T) {
	q := NewJobQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJobQueue_Close(t *testing.T) {
	q := NewJobQueue(1)
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(context.Background(), &model.Job{ID: "x"}), domain.ErrQueueClosed)
	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}
