package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/repository"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
)

var _ JobUseCase = (*jobUC)(nil)

// JobRequest is the asynchronous submission payload.
type JobRequest struct {
	PDFID       int64  `json:"pdf_id" validate:"required,gt=0"`
	StoragePath string `json:"storage_path" validate:"required"`
	CallbackURL string `json:"callback_url" validate:"required,url"`
	LLMProvider string `json:"llm_provider" validate:"omitempty,oneof=cloud local"`
	Mode        string `json:"mode" validate:"omitempty,oneof=flash pro"`
}

type JobUseCase interface {
	Submit(ctx context.Context, req JobRequest) (*model.Job, error)
	Stats(ctx context.Context) (model.QueueStats, error)
	Recover(ctx context.Context) (int, error)
}

type jobUC struct {
	queue    repository.JobQueue
	backend  string
	validate *validator.Validate
	log      *zerolog.Logger
	now      func() time.Time
}

func NewJobUseCase(queue repository.JobQueue, backend string, logger *zerolog.Logger) *jobUC {
	return &jobUC{
		queue:    queue,
		backend:  backend,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logging.Component(logger, "jobs"),
		now:      time.Now,
	}
}

func (j *jobUC) Submit(ctx context.Context, req JobRequest) (*model.Job, error) {
	req.LLMProvider = strings.ToLower(strings.TrimSpace(req.LLMProvider))
	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	if err := j.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	provider, err := model.ParseProvider(req.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	mode, err := model.ParseMode(req.Mode, model.ModePro)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	now := j.now().UTC()
	job := &model.Job{
		ID:          ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		PDFID:       req.PDFID,
		StoragePath: req.StoragePath,
		CallbackURL: req.CallbackURL,
		Provider:    provider,
		Mode:        mode,
		EnqueuedAt:  now,
	}
	if err := j.queue.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	metrics.IncJobEnqueued(j.backend)
	logging.With(logging.WithJobID(ctx, job.ID), j.log).Info().
		Int64("pdf_id", job.PDFID).
		Str("provider", string(job.Provider)).
		Str("mode", string(job.Mode)).
		Msg("job enqueued")
	return job, nil
}

func (j *jobUC) Stats(ctx context.Context) (model.QueueStats, error) {
	st, err := j.queue.Stats(ctx)
	if err != nil {
		return model.QueueStats{}, err
	}
	metrics.SetQueueDepth(st.Pending, st.InFlight)
	return st, nil
}

func (j *jobUC) Recover(ctx context.Context) (int, error) {
	n, err := j.queue.Recover(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		metrics.AddRecovered(n)
		j.log.Warn().Int("count", n).Msg("requeued unacked jobs")
	}
	return n, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
