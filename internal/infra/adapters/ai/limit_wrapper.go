package ai

import (
	"context"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TextGenerator = (*limitedGenerator)(nil)

// limitedGenerator caps concurrent in-flight calls to one provider.
type limitedGenerator struct {
	inner adapter.TextGenerator
	sem   chan struct{}
}

func NewLimitedGenerator(inner adapter.TextGenerator, maxConcurrent int) adapter.TextGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedGenerator{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedGenerator) Name() string { return l.inner.Name() }

func (l *limitedGenerator) Generate(ctx context.Context, prompt string, tier model.Tier) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, prompt, tier)
}
