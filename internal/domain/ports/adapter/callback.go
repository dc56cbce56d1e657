package adapter

import (
	"context"

	"pdf-ai-pipeline/internal/domain/model"
)

// CallbackDispatcher delivers a job result to the caller's webhook. One attempt only.
type CallbackDispatcher interface {
	Deliver(ctx context.Context, callbackURL string, res model.JobResult) error
}
