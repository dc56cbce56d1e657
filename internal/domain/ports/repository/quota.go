package repository

import (
	"context"

	"pdf-ai-pipeline/internal/domain/model"
)

// QuotaCounter tracks guest usage inside a fixed window.
//
// Check never mutates. Use compares the current count with the maximum and
// only then increments; the two steps are not atomic, so concurrent Use
// calls for one identity can overshoot the maximum by a small margin.
type QuotaCounter interface {
	Check(ctx context.Context, identity string) (model.QuotaStatus, error)
	Use(ctx context.Context, identity string) (model.QuotaStatus, error)
}
