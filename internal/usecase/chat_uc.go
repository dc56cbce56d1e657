// File: internal/usecase/chat_uc.go
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
	"pdf-ai-pipeline/internal/domain/ports/repository"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatUseCase interface {
	// StartChat extracts the document text and opens a session over it.
	StartChat(ctx context.Context, pdf []byte, filename string, pref model.Preference) (*model.ChatSession, error)
	// SendMessage answers message and records both turns on success.
	SendMessage(ctx context.Context, sessionID, message string) (reply string, err error)
}

type chatUC struct {
	sessions   repository.SessionStore
	extractor  adapter.TextExtractor
	summarizer Summarizer
	log        *zerolog.Logger
	devMode    bool
	now        func() time.Time
}

func NewChatUseCase(sessions repository.SessionStore, extractor adapter.TextExtractor, summarizer Summarizer, logger *zerolog.Logger, devMode bool) *chatUC {
	return &chatUC{
		sessions:   sessions,
		extractor:  extractor,
		summarizer: summarizer,
		log:        logging.Component(logger, "chat"),
		devMode:    devMode,
		now:        time.Now,
	}
}

func (c *chatUC) StartChat(ctx context.Context, pdf []byte, filename string, pref model.Preference) (*model.ChatSession, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	text, err := c.extractor.Extract(ctx, pdf)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrInvalidInput)
	}
	if pref.Mode == "" {
		pref.Mode = model.ModePro
	}

	s, err := c.sessions.Create(ctx, text, filename, pref)
	if err != nil {
		return nil, err
	}
	metrics.IncSessionCreated()
	logging.With(logging.WithSessID(ctx, s.ID), c.log).Info().
		Str("filename", filename).
		Int("chars", len(text)).
		Str("provider", string(pref.Provider)).
		Msg("chat session started")
	return s, nil
}

func (c *chatUC) SendMessage(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	s, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		metrics.IncChatTurn("not_found")
		return "", err
	}

	reply, err := c.summarizer.Chat(ctx, s, message)
	if err != nil {
		metrics.IncChatTurn("failed")
		return "", err
	}

	// Turns are recorded only once an answer exists, so a failed question
	// leaves the history untouched.
	now := c.now()
	err = c.sessions.Append(ctx, sessionID,
		model.Turn{Role: model.RoleUser, Content: message, At: now},
		model.Turn{Role: model.RoleAssistant, Content: reply, At: now},
	)
	if err != nil {
		return "", err
	}
	metrics.IncChatTurn("answered")
	logging.With(logging.WithSessID(ctx, sessionID), c.log).Debug().
		Str("question", logging.Redact(message, c.devMode)).
		Int("answer_chars", len(reply)).
		Msg("chat turn answered")
	return reply, nil
}
