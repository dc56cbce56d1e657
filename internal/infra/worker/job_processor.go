package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	"pdf-ai-pipeline/internal/domain/ports/repository"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
	"pdf-ai-pipeline/internal/usecase"
)

// JobProcessor consumes summarize jobs: fetch the document, extract text,
// summarize, post the callback, ack.
type JobProcessor struct {
	queue      repository.JobQueue
	source     adapter.DocumentSource
	extractor  adapter.TextExtractor
	summarizer usecase.Summarizer
	callbacks  adapter.CallbackDispatcher
	log        *zerolog.Logger

	// observe is called on every stage transition; nil in production.
	observe func(jobID string, stage model.JobStage)
}

func NewJobProcessor(
	queue repository.JobQueue,
	source adapter.DocumentSource,
	extractor adapter.TextExtractor,
	summarizer usecase.Summarizer,
	callbacks adapter.CallbackDispatcher,
	log *zerolog.Logger,
) *JobProcessor {
	return &JobProcessor{
		queue:      queue,
		source:     source,
		extractor:  extractor,
		summarizer: summarizer,
		callbacks:  callbacks,
		log:        logging.Component(log, "worker"),
	}
}

// Run is a pool Loop: it dequeues until ctx is done. Only Dequeue observes
// ctx; a claimed job always runs to ack on a detached context.
func (p *JobProcessor) Run(ctx context.Context, workerID int) {
	log := p.log.With().Int("worker", workerID).Logger()
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0
	retry.MaxInterval = 10 * time.Second

	for {
		d, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := retry.NextBackOff()
			log.Error().Err(err).Dur("retry_in", wait).Msg("dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		retry.Reset()
		p.Handle(context.WithoutCancel(ctx), d)
	}
}

// Handle processes one delivery to completion: exactly one callback
// attempt, then ack regardless of the callback outcome.
func (p *JobProcessor) Handle(ctx context.Context, d *model.Delivery) {
	job := d.Job
	ctx = logging.WithJobID(ctx, job.ID)
	log := logging.With(ctx, p.log)
	start := time.Now()
	metrics.JobStarted()
	defer metrics.JobFinished()

	p.stage(job.ID, model.StageClaimed)
	log.Info().Int64("pdf_id", job.PDFID).Str("provider", string(job.Provider)).Str("mode", string(job.Mode)).Msg("job claimed")

	res := p.Process(ctx, job)

	p.stage(job.ID, model.StageDelivering)
	if err := p.callbacks.Deliver(ctx, job.CallbackURL, res); err != nil {
		log.Error().Err(err).Str("callback_url", job.CallbackURL).Msg("callback delivery failed")
	}

	if err := p.queue.Ack(ctx, d); err != nil {
		log.Error().Err(err).Msg("ack failed; job may be redelivered")
	} else {
		p.stage(job.ID, model.StageAcked)
	}
	metrics.ObserveJob(string(res.Status), time.Since(start))
	log.Info().Str("status", string(res.Status)).Dur("duration", time.Since(start)).Msg("job finished")
}

// Process runs extraction and summarization. Errors and panics become a
// failed result; nothing escapes.
func (p *JobProcessor) Process(ctx context.Context, job *model.Job) (res model.JobResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.With(ctx, p.log).Error().Interface("panic", r).Msg("job panicked")
			res = model.FailedResult(job, fmt.Errorf("internal error: %v", r))
		}
	}()

	p.stage(job.ID, model.StageExtracting)
	raw, err := p.source.Open(ctx, job.StoragePath)
	if err != nil {
		return model.FailedResult(job, fmt.Errorf("open document: %w", err))
	}
	text, err := p.extractor.Extract(ctx, raw)
	if err != nil {
		return model.FailedResult(job, fmt.Errorf("extract text: %w", err))
	}

	p.stage(job.ID, model.StageSummarizing)
	summary, err := p.summarizer.SummarizeBackground(ctx, text, usecase.JobSummaryInstruction, job.Preference())
	if err != nil {
		return model.FailedResult(job, err)
	}
	if summary == "" {
		return model.FailedResult(job, errors.New("empty summary"))
	}
	return model.CompletedResult(job, summary)
}

func (p *JobProcessor) stage(jobID string, s model.JobStage) {
	p.log.Trace().Str("job_id", jobID).Str("stage", string(s)).Msg("stage")
	if p.observe != nil {
		p.observe(jobID, s)
	}
}
