package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pdf-ai-pipeline/internal/config"
	pg "pdf-ai-pipeline/internal/infra/db/postgres"
	"pdf-ai-pipeline/internal/infra/logging"
	red "pdf-ai-pipeline/internal/infra/redis"
	"pdf-ai-pipeline/internal/usecase"
)

var (
	cfgPath string
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:           "pdfctl",
	Short:         "Operate the PDF summarization job queue",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", true, "developer mode (relaxes provider key checks)")
}

// openJobs connects to the configured queue backend. The in-memory queue
// lives inside the server process and cannot be reached from here.
func openJobs(ctx context.Context) (usecase.JobUseCase, func(), error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log := logging.New(config.LogConfig{Level: "warn", Format: "console"}, true)

	switch cfg.Queue.Backend {
	case "redis":
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		q := red.NewJobQueue(c, cfg.Queue.BlockTimeout)
		return usecase.NewJobUseCase(q, cfg.Queue.Backend, log), func() { _ = c.Close() }, nil
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		q := pg.NewJobQueue(pool, pg.NewTxManager(pool), cfg.Queue.PollInterval, cfg.Queue.VisibilityTimeout)
		return usecase.NewJobUseCase(q, cfg.Queue.Backend, log), pool.Close, nil
	default:
		return nil, nil, errors.New("queue.backend memory is process-local; pdfctl needs redis or postgres")
	}
}
