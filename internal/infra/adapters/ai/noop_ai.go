package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopGenerator)(nil)

// NoopGenerator stands in for a provider in dev mode when no credentials
// are configured. It answers with a canned digest of the prompt.
type NoopGenerator struct {
	name  string
	delay time.Duration
	log   *zerolog.Logger
}

func NewNoopGenerator(name string, log *zerolog.Logger) *NoopGenerator {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &NoopGenerator{name: name, delay: 100 * time.Millisecond, log: log}
}

func (n *NoopGenerator) Name() string { return n.name }

func (n *NoopGenerator) Generate(ctx context.Context, prompt string, tier model.Tier) (string, error) {
	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	n.log.Debug().Str("provider", n.name).Str("tier", tier.String()).Int("prompt_chars", len(prompt)).Msg("noop generate")
	words := strings.Fields(prompt)
	if len(words) > 12 {
		words = words[:12]
	}
	return fmt.Sprintf("[%s/%s] %s ...", n.name, tier, strings.Join(words, " ")), nil
}
