// File: internal/usecase/summarizer.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
)

// Compile-time check
var _ Summarizer = (*summarizer)(nil)

// Summarizer runs prompts against the configured provider, escalating from
// the capable tier to the fast tier when the capable tier is unavailable.
type Summarizer interface {
	// Summarize has synchronous-caller semantics: a non-rate-limit failure
	// on the capable tier is returned as is.
	Summarize(ctx context.Context, text, instruction string, pref model.Preference) (string, error)
	// SummarizeBackground has job semantics: any capable-tier failure falls
	// through to the fast tier.
	SummarizeBackground(ctx context.Context, text, instruction string, pref model.Preference) (string, error)
	// SummarizeOnce makes a single call on the preferred tier with no retry.
	SummarizeOnce(ctx context.Context, text, instruction string, pref model.Preference) (string, error)
	// Chat answers question against the session's document and recent history.
	Chat(ctx context.Context, s *model.ChatSession, question string) (string, error)
}

type SummarizerConfig struct {
	CapableAttempts int
	FastAttempts    int
	MaxInputChars   int
}

func (c *SummarizerConfig) normalize() {
	if c.CapableAttempts <= 0 {
		c.CapableAttempts = 3
	}
	if c.FastAttempts <= 0 {
		c.FastAttempts = 5
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 50000
	}
}

type summarizer struct {
	generators adapter.GeneratorResolver
	retry      *RetryExecutor
	cfg        SummarizerConfig
	log        *zerolog.Logger
}

func NewSummarizer(generators adapter.GeneratorResolver, retry *RetryExecutor, cfg SummarizerConfig, logger *zerolog.Logger) *summarizer {
	cfg.normalize()
	if retry == nil {
		retry = NewRetryExecutor(DefaultBackoffCap, DefaultBackoffJitter, logger)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &summarizer{
		generators: generators,
		retry:      retry,
		cfg:        cfg,
		log:        logging.Component(logger, "summarizer"),
	}
}

func (s *summarizer) Summarize(ctx context.Context, text, instruction string, pref model.Preference) (string, error) {
	prompt, err := s.summaryPrompt(text, instruction)
	if err != nil {
		return "", err
	}
	return s.run(ctx, prompt, pref, false)
}

func (s *summarizer) SummarizeBackground(ctx context.Context, text, instruction string, pref model.Preference) (string, error) {
	prompt, err := s.summaryPrompt(text, instruction)
	if err != nil {
		return "", err
	}
	return s.run(ctx, prompt, pref, true)
}

func (s *summarizer) SummarizeOnce(ctx context.Context, text, instruction string, pref model.Preference) (string, error) {
	prompt, err := s.summaryPrompt(text, instruction)
	if err != nil {
		return "", err
	}
	gen, err := s.resolve(pref.Provider)
	if err != nil {
		return "", err
	}
	return s.attempt(gen, prompt, pref.Mode.Tier())(ctx)
}

func (s *summarizer) Chat(ctx context.Context, sess *model.ChatSession, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	doc := s.truncate(sess.DocumentText)
	prompt := BuildChatPrompt(sess.Filename, doc, sess.RecentTurns(model.HistoryWindow), question)
	return s.run(logging.WithSessID(ctx, sess.ID), prompt, sess.Preference, false)
}

func (s *summarizer) summaryPrompt(text, instruction string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty document text", domain.ErrInvalidInput)
	}
	return BuildSummaryPrompt(instruction, s.truncate(text)), nil
}

func (s *summarizer) truncate(text string) string {
	out, cut := TruncateRunes(text, s.cfg.MaxInputChars)
	if cut {
		metrics.IncTruncated()
		s.log.Debug().Int("max_chars", s.cfg.MaxInputChars).Msg("document truncated")
	}
	return out
}

func (s *summarizer) resolve(p model.Provider) (adapter.TextGenerator, error) {
	gen, err := s.generators.Resolve(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return gen, nil
}

type fallbackState int

const (
	stateTryCapable fallbackState = iota
	stateTryFast
	stateDone
	stateFailed
)

func (s *summarizer) run(ctx context.Context, prompt string, pref model.Preference, background bool) (string, error) {
	defer logging.TraceDuration(s.log, "Summarizer.run")()

	gen, err := s.resolve(pref.Provider)
	if err != nil {
		return "", err
	}
	if pref.Provider == model.ProviderLocal {
		return s.attempt(gen, prompt, pref.Mode.Tier())(ctx)
	}

	log := logging.With(ctx, s.log)
	state := stateTryCapable
	if pref.Mode == model.ModeFlash {
		state = stateTryFast
	}

	var (
		out   string
		cause error
	)
	for {
		switch state {
		case stateTryCapable:
			out, cause = s.retry.Execute(ctx, model.TierCapable.String(), s.cfg.CapableAttempts, s.attempt(gen, prompt, model.TierCapable))
			switch {
			case cause == nil:
				state = stateDone
			case ctx.Err() != nil:
				return "", cause
			case domain.IsRateLimited(cause):
				metrics.IncFallback("rate_limited")
				log.Warn().Err(cause).Msg("capable tier exhausted; falling back to fast tier")
				state = stateTryFast
			case background:
				metrics.IncFallback("failure")
				log.Warn().Err(cause).Msg("capable tier failed; trying fast tier")
				state = stateTryFast
			default:
				return "", cause
			}
		case stateTryFast:
			out, cause = s.retry.Execute(ctx, model.TierFast.String(), s.cfg.FastAttempts, s.attempt(gen, prompt, model.TierFast))
			if cause == nil {
				state = stateDone
			} else {
				state = stateFailed
			}
		case stateDone:
			return out, nil
		case stateFailed:
			log.Error().Err(cause).Msg("all tiers exhausted")
			return "", fmt.Errorf("%w: %w", domain.ErrServiceExhausted, cause)
		}
	}
}

// attempt wraps a single Generate call with empty-response classification and metrics.
func (s *summarizer) attempt(gen adapter.TextGenerator, prompt string, tier model.Tier) GenerateFunc {
	return func(ctx context.Context) (string, error) {
		start := time.Now()
		out, err := gen.Generate(ctx, prompt, tier)
		out = strings.TrimSpace(out)
		if err == nil && out == "" {
			err = fmt.Errorf("%w: %w", domain.ErrProviderFailure, domain.ErrEmptyResponse)
		}
		metrics.ObserveCall(gen.Name(), tier.String(), callOutcome(err), time.Since(start))
		if err != nil {
			return "", err
		}
		return out, nil
	}
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsRateLimited(err):
		return "rate_limited"
	default:
		return "failed"
	}
}
