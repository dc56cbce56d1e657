package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TextGenerator = (*LocalGenerator)(nil)

const localSystemPrompt = "You are a PDF assistant. Answer clearly and practically."

// LocalGenerator serves the local provider through an OpenAI-compatible
// Chat Completions endpoint (Ollama exposes one under /v1). Tiers are ignored.
type LocalGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

func NewLocalGenerator(baseURL, apiKey, modelName string, timeout time.Duration) (*LocalGenerator, error) {
	if baseURL == "" {
		return nil, errors.New("local llm: empty base url")
	}
	if modelName == "" {
		return nil, errors.New("local llm: empty model")
	}
	if apiKey == "" {
		// Ollama ignores the key but the client insists on one.
		apiKey = "ollama"
	}
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &LocalGenerator{
		client:      openai.NewClient(opts...),
		model:       modelName,
		temperature: 0.3,
	}, nil
}

func (l *LocalGenerator) Name() string { return string(model.ProviderLocal) }

func (l *LocalGenerator) Generate(ctx context.Context, prompt string, _ model.Tier) (string, error) {
	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(l.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(localSystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(l.temperature),
	})
	if err != nil {
		return "", classify("local", err)
	}
	for _, c := range resp.Choices {
		if s := strings.TrimSpace(c.Message.Content); s != "" {
			return s, nil
		}
	}
	return "", nil
}
