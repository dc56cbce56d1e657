package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/config"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

// NewResolverFromConfig builds the cloud and local generators described by
// cfg, each wrapped in a concurrency limiter. In dev mode a missing Gemini
// key falls back to a NoopGenerator.
func NewResolverFromConfig(ctx context.Context, cfg config.AIConfig, dev bool, log *zerolog.Logger) (*Resolver, error) {
	gens := map[model.Provider]adapter.TextGenerator{}

	switch {
	case cfg.GeminiKey != "":
		g, err := NewGeminiGenerator(ctx, GeminiOptions{
			APIKey:       cfg.GeminiKey,
			BaseURL:      cfg.GeminiURL,
			FastModel:    cfg.FastModel,
			CapableModel: cfg.CapableModel,
			MaxOutput:    cfg.MaxOutputTokens,
			CallTimeout:  cfg.CallTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		gens[model.ProviderCloud] = NewLimitedGenerator(g, cfg.ConcurrentLimit)
	case dev:
		log.Warn().Msg("ai.gemini_key empty; cloud provider uses the noop generator")
		gens[model.ProviderCloud] = NewNoopGenerator(string(model.ProviderCloud), log)
	default:
		return nil, fmt.Errorf("ai.gemini_key is required")
	}

	if cfg.LocalBaseURL != "" {
		l, err := NewLocalGenerator(cfg.LocalBaseURL, cfg.LocalAPIKey, cfg.LocalModel, cfg.CallTimeout)
		if err != nil {
			return nil, fmt.Errorf("local llm: %w", err)
		}
		gens[model.ProviderLocal] = NewLimitedGenerator(l, cfg.ConcurrentLimit)
	}
	return NewResolver(gens), nil
}
