package sched

import (
	"context"
	"time"

	"pdf-ai-pipeline/internal/domain/ports/repository"
	"pdf-ai-pipeline/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// SessionSweeper periodically evicts expired chat sessions.
type SessionSweeper struct {
	interval time.Duration
	sessions repository.SessionStore
	log      *zerolog.Logger
}

func NewSessionSweeper(interval time.Duration, sessions repository.SessionStore, logger *zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	compLog := logger.With().Str("component", "SessionSweeper").Logger()
	return &SessionSweeper{
		interval: interval,
		sessions: sessions,
		log:      &compLog,
	}
}

func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting session sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	n, err := w.sessions.Sweep(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("session sweep failed")
	}
	if n > 0 {
		metrics.AddSessionsSwept(n)
		w.log.Info().Int("count", n).Msg("expired sessions evicted")
	}
}
