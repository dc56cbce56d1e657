package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/infra/memory"
)

func validRequest() JobRequest {
	return JobRequest{
		PDFID:       42,
		StoragePath: "uploads/42.pdf",
		CallbackURL: "http://backend:8000/api/v1/files/callback",
	}
}

func TestJobUC_SubmitEnqueuesWithDefaults(t *testing.T) {
	ctx := context.Background()
	q := memory.NewJobQueue(4)
	uc := NewJobUseCase(q, "memory", nil)

	job, err := uc.Submit(ctx, validRequest())
	require.NoError(t, err)
	_, err = ulid.ParseStrict(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ProviderCloud, job.Provider)
	assert.Equal(t, model.ModePro, job.Mode)
	assert.WithinDuration(t, time.Now(), job.EnqueuedAt, 5*time.Second)

	d, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, job.ID, d.Job.ID)
	assert.Equal(t, int64(42), d.Job.PDFID)
}

func TestJobUC_SubmitNormalizesPreference(t *testing.T) {
	uc := NewJobUseCase(memory.NewJobQueue(1), "memory", nil)
	req := validRequest()
	req.LLMProvider = " LOCAL "
	req.Mode = "Flash"

	job, err := uc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderLocal, job.Provider)
	assert.Equal(t, model.ModeFlash, job.Mode)
}

func TestJobUC_SubmitValidation(t *testing.T) {
	cases := map[string]func(r *JobRequest){
		"missing pdf id":   func(r *JobRequest) { r.PDFID = 0 },
		"missing path":     func(r *JobRequest) { r.StoragePath = "" },
		"bad callback":     func(r *JobRequest) { r.CallbackURL = "not a url" },
		"unknown provider": func(r *JobRequest) { r.LLMProvider = "openai" },
		"unknown mode":     func(r *JobRequest) { r.Mode = "turbo" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			q := memory.NewJobQueue(1)
			uc := NewJobUseCase(q, "memory", nil)
			req := validRequest()
			mutate(&req)

			_, err := uc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			st, _ := q.Stats(context.Background())
			assert.Zero(t, st.Pending)
		})
	}
}

func TestJobUC_StatsAndRecover(t *testing.T) {
	ctx := context.Background()
	q := memory.NewJobQueue(4)
	uc := NewJobUseCase(q, "memory", nil)
	_, err := uc.Submit(ctx, validRequest())
	require.NoError(t, err)

	st, err := uc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Pending)

	n, err := uc.Recover(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
