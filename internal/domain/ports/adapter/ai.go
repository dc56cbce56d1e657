package adapter

import (
	"context"

	"pdf-ai-pipeline/internal/domain/model"
)

// TextGenerator is the port for a text-generation backend.
//
// Implementations must classify failures by wrapping them with
// domain.ErrRateLimited (transient, retryable) or domain.ErrProviderFailure
// (everything else). Implementations are shared across goroutines.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string, tier model.Tier) (string, error)
}

// GeneratorResolver picks the generator that serves a provider.
type GeneratorResolver interface {
	Resolve(p model.Provider) (TextGenerator, error)
}
