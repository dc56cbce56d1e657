package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"pdf-ai-pipeline/internal/config"
	"pdf-ai-pipeline/internal/domain/ports/repository"
	"pdf-ai-pipeline/internal/infra/api"
	pg "pdf-ai-pipeline/internal/infra/db/postgres"
	"pdf-ai-pipeline/internal/infra/memory"
	red "pdf-ai-pipeline/internal/infra/redis"
	"pdf-ai-pipeline/internal/infra/security"
)

// backends holds the stores selected by configuration plus the resources
// that need closing on shutdown.
type backends struct {
	queue    repository.JobQueue
	sessions repository.SessionStore
	quota    repository.QuotaCounter
	pool     *pgxpool.Pool
	health   map[string]api.HealthFunc
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*backends, error) {
	b := &backends{health: map[string]api.HealthFunc{}}

	if cfg.NeedsRedis() {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = c.Close() })
		b.health["redis"] = c.Ping

		if cfg.Queue.Backend == "redis" {
			b.queue = red.NewJobQueue(c, cfg.Queue.BlockTimeout)
		}
		if cfg.Session.Backend == "redis" {
			var opts []red.SessionOption
			if cfg.Session.EncryptionKey != "" {
				sealer, err := security.NewAESSealer(cfg.Session.EncryptionKey)
				if err != nil {
					b.Close()
					return nil, fmt.Errorf("session sealer: %w", err)
				}
				opts = append(opts, red.WithSealer(sealer))
			}
			b.sessions = red.NewSessionStore(c, cfg.Session.TTL, opts...)
		}
		if cfg.Guest.Backend == "redis" {
			b.quota = red.NewQuotaCounter(c, cfg.Guest.MaxUsage, cfg.Guest.Window)
		}
	}

	if cfg.Queue.Backend == "postgres" {
		pool, err := pg.Connect(ctx, cfg.Database)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		b.pool = pool
		b.closers = append(b.closers, pool.Close)
		b.health["postgres"] = pool.Ping
		if err := pg.Migrate(ctx, pool); err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		b.queue = pg.NewJobQueue(pool, pg.NewTxManager(pool), cfg.Queue.PollInterval, cfg.Queue.VisibilityTimeout)
	}

	if b.queue == nil {
		mq := memory.NewJobQueue(cfg.Queue.MemoryBuffer)
		b.queue = mq
		b.closers = append(b.closers, mq.Close)
	}
	if b.sessions == nil {
		b.sessions = memory.NewSessionStore(cfg.Session.TTL, time.Now)
	}
	if b.quota == nil {
		b.quota = memory.NewQuotaCounter(cfg.Guest.MaxUsage, cfg.Guest.Window, time.Now)
	}

	log.Info().
		Str("queue", cfg.Queue.Backend).
		Str("sessions", cfg.Session.Backend).
		Str("guest_quota", cfg.Guest.Backend).
		Msg("backends ready")
	return b, nil
}
