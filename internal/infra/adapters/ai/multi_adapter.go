// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"fmt"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

var _ adapter.GeneratorResolver = (*Resolver)(nil)

// Resolver maps a provider to the generator serving it.
type Resolver struct {
	byProvider map[model.Provider]adapter.TextGenerator
}

func NewResolver(byProvider map[model.Provider]adapter.TextGenerator) *Resolver {
	m := make(map[model.Provider]adapter.TextGenerator, len(byProvider))
	for p, g := range byProvider {
		if g != nil {
			m[p] = g
		}
	}
	return &Resolver{byProvider: m}
}

func (r *Resolver) Resolve(p model.Provider) (adapter.TextGenerator, error) {
	if p == "" {
		p = model.ProviderCloud
	}
	if g := r.byProvider[p]; g != nil {
		return g, nil
	}
	return nil, fmt.Errorf("llm_provider %q is not configured", p)
}

// Providers lists the configured providers.
func (r *Resolver) Providers() []model.Provider {
	out := make([]model.Provider, 0, len(r.byProvider))
	for _, p := range []model.Provider{model.ProviderCloud, model.ProviderLocal} {
		if _, ok := r.byProvider[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
