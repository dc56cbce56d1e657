package sched

import (
	"context"
	"time"

	"pdf-ai-pipeline/internal/domain/model"
	"pdf-ai-pipeline/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// StatsSource is anything that can report queue depth.
type StatsSource interface {
	Stats(ctx context.Context) (model.QueueStats, error)
}

// QueueMonitor publishes queue depth gauges on every tick.
type QueueMonitor struct {
	interval time.Duration
	source   StatsSource
	log      *zerolog.Logger
}

func NewQueueMonitor(interval time.Duration, source StatsSource, logger *zerolog.Logger) *QueueMonitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	compLog := logger.With().Str("component", "QueueMonitor").Logger()
	return &QueueMonitor{interval: interval, source: source, log: &compLog}
}

func (w *QueueMonitor) Run(ctx context.Context) error {
	// Run once on startup, then on every tick
	w.sample(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *QueueMonitor) sample(ctx context.Context) {
	s, err := w.source.Stats(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("queue stats unavailable")
		}
		return
	}
	metrics.SetQueueDepth(s.Pending, s.InFlight)
}
