// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*GeminiGenerator)(nil)

// GeminiGenerator serves the cloud provider. The fast and capable tiers are
// two models behind the same client.
type GeminiGenerator struct {
	client       *genai.Client
	fastModel    string
	capableModel string
	maxOut       int
	callTimeout  time.Duration
}

type GeminiOptions struct {
	APIKey       string
	BaseURL      string
	FastModel    string
	CapableModel string
	MaxOutput    int
	CallTimeout  time.Duration
}

// NewGeminiGenerator creates a Gemini generator using the official SDK.
func NewGeminiGenerator(ctx context.Context, o GeminiOptions) (*GeminiGenerator, error) {
	if o.APIKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if o.FastModel == "" || o.CapableModel == "" {
		return nil, errors.New("gemini: fast and capable models are required")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  o.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: o.BaseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{
		client:       c,
		fastModel:    o.FastModel,
		capableModel: o.CapableModel,
		maxOut:       o.MaxOutput,
		callTimeout:  o.CallTimeout,
	}, nil
}

func (g *GeminiGenerator) Name() string { return string(model.ProviderCloud) }

// ModelFor returns the model name that serves tier.
func (g *GeminiGenerator) ModelFor(tier model.Tier) string {
	if tier == model.TierCapable {
		return g.capableModel
	}
	return g.fastModel
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, tier model.Tier) (string, error) {
	if g.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.callTimeout)
		defer cancel()
	}

	var cfg *genai.GenerateContentConfig
	if g.maxOut > 0 {
		cfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxOut)}
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.ModelFor(tier), genai.Text(prompt), cfg)
	if err != nil {
		return "", classify("gemini/"+tier.String(), err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Text()), nil
}
