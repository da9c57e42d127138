package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsprobe/internal/config"
	"github.com/amishk599/atsprobe/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync daemon",
	Long:  "Start the cron scheduler; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"schedule", cfg.Schedule.Cron,
		"domains", len(cfg.Domains),
		"concurrency", cfg.Discovery.Concurrency,
		"max_domains", cfg.Discovery.MaxDomains,
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.close()

	// The domain list is re-read each cycle so edits to the domains file apply without a restart.
	path := config.ResolvePath(cfgPath)
	domains := func() ([]string, error) {
		fresh, err := config.Load(path)
		if err != nil {
			logger.Warn("config reload failed, using startup domains", "error", err)
			return cfg.Domains, nil
		}
		return fresh.Domains, nil
	}

	sched := scheduler.NewScheduler(scheduler.Options{
		Spec:       cfg.Schedule.Cron,
		Domains:    domains,
		Batcher:    a.orch,
		Notifier:   setupNotifier(cfg, a.client, logger),
		Pruner:     a.pruner,
		PruneAfter: cfg.Schedule.PruneAfter,
		Logger:     logger,
	})
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
