package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsprobe/internal/model"
)

var batchNotify bool

var batchCmd = &cobra.Command{
	Use:   "batch [domain...]",
	Short: "Discover accounts for companies not yet cached",
	Long: "Runs discovery over the given domains, or the configured ones, skipping any with a cached account. " +
		"At most discovery.max_domains are processed per run.",
	RunE: runBatch(func(ctx context.Context, a *app, domains []string) model.BatchReport {
		return a.orch.DiscoverNewAccounts(ctx, domains)
	}),
}

var syncCmd = &cobra.Command{
	Use:   "sync [domain...]",
	Short: "Sync every configured company once",
	Long:  "Refreshes cached accounts, discovers the rest, and reconciles all postings with the store.",
	RunE: runBatch(func(ctx context.Context, a *app, domains []string) model.BatchReport {
		return a.orch.SyncBatch(ctx, domains)
	}),
}

func init() {
	for _, c := range []*cobra.Command{batchCmd, syncCmd} {
		c.Flags().BoolVar(&batchNotify, "notify", false, "send the summary through the configured notifier")
		rootCmd.AddCommand(c)
	}
}

func runBatch(run func(ctx context.Context, a *app, domains []string) model.BatchReport) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)

		cfg, err := loadConfig(cfgPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		domains := args
		if len(domains) == 0 {
			domains = cfg.Domains
		}
		if len(domains) == 0 {
			return fmt.Errorf("no domains given and none configured")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, logger, false)
		if err != nil {
			logger.Error("startup failed", "error", err)
			os.Exit(1)
		}
		defer a.close()

		report := run(ctx, a, domains)
		printBatch(report)

		if batchNotify {
			if err := setupNotifier(cfg, a.client, logger).Notify(ctx, report); err != nil {
				logger.Error("notify failed", "error", err)
			}
		}
		return nil
	}
}
