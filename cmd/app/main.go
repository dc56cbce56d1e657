package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pdf-ai-pipeline/internal/config"
	"pdf-ai-pipeline/internal/domain/ports/adapter"
	aiAdapters "pdf-ai-pipeline/internal/infra/adapters/ai"
	"pdf-ai-pipeline/internal/infra/adapters/callback"
	"pdf-ai-pipeline/internal/infra/adapters/pdf"
	"pdf-ai-pipeline/internal/infra/adapters/storage"
	"pdf-ai-pipeline/internal/infra/api"
	"pdf-ai-pipeline/internal/infra/api/apiv1"
	pg "pdf-ai-pipeline/internal/infra/db/postgres"
	"pdf-ai-pipeline/internal/infra/logging"
	"pdf-ai-pipeline/internal/infra/metrics"
	"pdf-ai-pipeline/internal/infra/sched"
	"pdf-ai-pipeline/internal/infra/worker"
	"pdf-ai-pipeline/internal/usecase"
)

// Set via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop AI without keys)")
	flag.Parse()

	if err := run(*cfgPath, *devMode); err != nil {
		fmt.Fprintf(os.Stderr, "pdf-ai: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string, dev bool) error {
	cfg, err := config.LoadConfig(cfgPath, dev)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	generators, err := aiAdapters.NewResolverFromConfig(ctx, cfg.AI, cfg.Runtime.Dev, logger)
	if err != nil {
		return fmt.Errorf("ai: %w", err)
	}

	extractor := pdf.NewExtractor(logger)
	docs := storage.NewRouterFromConfig(cfg.Storage, logger)
	defer func() { _ = docs.Close() }()
	var callbacks adapter.CallbackDispatcher = callback.NewWebhookDispatcher(cfg.Callback.Timeout, logger)

	retry := usecase.NewRetryExecutor(cfg.AI.BackoffCap, cfg.AI.BackoffJitter, logger)
	summarizer := usecase.NewSummarizer(generators, retry, usecase.SummarizerConfig{
		CapableAttempts: cfg.AI.CapableAttempts,
		FastAttempts:    cfg.AI.FastAttempts,
		MaxInputChars:   cfg.AI.MaxInputChars,
	}, logger)

	guestUC := usecase.NewGuestUseCase(b.quota, logger)
	jobUC := usecase.NewJobUseCase(b.queue, cfg.Queue.Backend, logger)
	chatUC := usecase.NewChatUseCase(b.sessions, extractor, summarizer, logger, cfg.Runtime.Dev)
	summarizeUC := usecase.NewSummarizeUseCase(extractor, summarizer, guestUC, logger)

	if cfg.Queue.RecoverOnStart {
		n, err := jobUC.Recover(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("startup recovery failed")
		} else if n > 0 {
			logger.Info().Int("count", n).Msg("requeued unacked jobs")
		}
	}

	v1 := apiv1.NewServer(apiv1.Options{
		Summarize:     summarizeUC,
		Jobs:          jobUC,
		Chat:          chatUC,
		Guests:        guestUC,
		JWTSecret:     cfg.HTTP.JWTSecret,
		GuestUploadMB: cfg.HTTP.MaxUploadGuestMB,
		UserUploadMB:  cfg.HTTP.MaxUploadUserMB,
	}, logger)
	httpSrv := api.NewServer(cfg.HTTP, api.NewRouter(cfg.HTTP, v1, b.health, logger), logger)

	processor := worker.NewJobProcessor(b.queue, docs, extractor, summarizer, callbacks, logger)
	pool := worker.NewPool(cfg.Queue.Workers, logging.Component(logger, "pool"))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		pool.Start(gctx, processor.Run)
		pool.Wait()
		return nil
	})

	if cfg.Session.SweepInterval > 0 {
		sweeper := sched.NewSessionSweeper(cfg.Session.SweepInterval, b.sessions, logger)
		g.Go(func() error { return ignoreCanceled(sweeper.Run(gctx)) })
	}
	monitor := sched.NewQueueMonitor(15*time.Second, jobUC, logger)
	g.Go(func() error { return ignoreCanceled(monitor.Run(gctx)) })

	if b.pool != nil {
		g.Go(func() error {
			pg.ReportPoolStats(gctx, b.pool, 15*time.Second, logger)
			return nil
		})
	}

	logger.Info().
		Str("version", version).
		Int("workers", pool.Size()).
		Strs("providers", providerNames(generators)).
		Msg("pdf-ai started")

	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func providerNames(r *aiAdapters.Resolver) []string {
	ps := r.Providers()
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, string(p))
	}
	return out
}
