package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	"pdf-ai-pipeline/internal/infra/logging"
)

var _ SummarizeUseCase = (*summarizeUC)(nil)

// Caller identifies who is asking. Signed-in users carry UserID; everyone
// else must present a guest id and is metered by the guest quota.
type Caller struct {
	UserID  string
	GuestID string
}

func (c Caller) IsGuest() bool { return c.UserID == "" }

type SummarizeUseCase interface {
	// SummarizeUpload extracts text from pdf and summarizes it with a single
	// call on the preferred tier. Guests are checked up front and charged one
	// use only when a summary is returned.
	SummarizeUpload(ctx context.Context, caller Caller, pdf []byte, pref model.Preference) (string, error)
}

type summarizeUC struct {
	extractor  adapter.TextExtractor
	summarizer Summarizer
	guests     GuestUseCase
	log        *zerolog.Logger
}

func NewSummarizeUseCase(extractor adapter.TextExtractor, summarizer Summarizer, guests GuestUseCase, logger *zerolog.Logger) *summarizeUC {
	return &summarizeUC{
		extractor:  extractor,
		summarizer: summarizer,
		guests:     guests,
		log:        logging.Component(logger, "summarize"),
	}
}

func (s *summarizeUC) SummarizeUpload(ctx context.Context, caller Caller, pdf []byte, pref model.Preference) (string, error) {
	if len(pdf) == 0 {
		return "", fmt.Errorf("%w: empty upload", domain.ErrInvalidInput)
	}
	if caller.IsGuest() {
		st, err := s.guests.Check(ctx, caller.GuestID)
		if err != nil {
			return "", err
		}
		if !st.CanUse {
			return "", domain.ErrQuotaExceeded
		}
	}

	text, err := s.extractor.Extract(ctx, pdf)
	if err != nil {
		return "", err
	}
	if pref.Mode == "" {
		pref.Mode = model.ModeFlash
	}
	summary, err := s.summarizer.SummarizeOnce(ctx, text, SyncSummaryInstruction, pref)
	if err != nil {
		logging.With(ctx, s.log).Warn().Err(err).Str("provider", string(pref.Provider)).Msg("sync summarize failed")
		return "", err
	}
	if caller.IsGuest() {
		// Only successful summaries are metered. A guest racing the last
		// use may overshoot by the requests in flight; the summary is kept.
		if _, err := s.guests.Use(ctx, caller.GuestID); err != nil {
			logging.With(ctx, s.log).Warn().Err(err).Msg("guest use not recorded")
		}
	}
	return summary, nil
}
