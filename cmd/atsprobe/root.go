package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/browser"
	"github.com/amishk599/atsprobe/internal/config"
	"github.com/amishk599/atsprobe/internal/discovery"
	"github.com/amishk599/atsprobe/internal/model"
	"github.com/amishk599/atsprobe/internal/notifier"
	"github.com/amishk599/atsprobe/internal/scraper"
	"github.com/amishk599/atsprobe/internal/store"
	"github.com/amishk599/atsprobe/internal/syncer"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "atsprobe",
	Short: "Find which ATS a company uses and keep its jobs in sync",
	Long: "atsprobe detects the applicant tracking system behind a company domain, " +
		"falls back to scraping the careers page, and reconciles the postings it finds against a job store.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvPath+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
func loadConfig(path string) (*config.Config, error) {
	return config.Load(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// pruner is implemented by the SQL stores.
type pruner interface {
	PruneClosed(ctx context.Context, olderThan time.Duration) (int, error)
}

// app holds everything a command needs, built from config.
type app struct {
	cfg     *config.Config
	jobs    model.JobStore
	cache   model.AccountCache
	pruner  pruner // nil in dry-run mode
	orch    *discovery.Orchestrator
	client  *http.Client
	closers []func() error
}

// newApp opens the stores and builds the orchestrator. In dry-run mode
// nothing is read from or written to any store.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, dryRun bool) (*app, error) {
	a := &app{cfg: cfg, client: newHTTPClient()}

	switch {
	case dryRun:
		logger.Info("dry-run mode enabled, nothing will be persisted")
		nop := store.NewNopStore()
		a.jobs, a.cache = nop, nop
	case cfg.Store.Driver == "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.jobs, a.cache, a.pruner = pg, pg, pg
		a.closers = append(a.closers, pg.Close)
	default:
		lite, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.jobs, a.cache, a.pruner = lite, lite, lite
		a.closers = append(a.closers, lite.Close)
	}

	if !dryRun && cfg.Cache.Driver == "redis" {
		rdb, err := store.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open account cache: %w", err)
		}
		a.cache = store.NewRedisAccountCache(rdb, cfg.Cache.TTL)
		a.closers = append(a.closers, rdb.Close)
	}

	d := cfg.Discovery
	adapters, err := adapter.NewSet(d.ProviderOrder, adapter.Options{
		Client:       a.client,
		Logger:       logger,
		ProbeTimeout: d.ProbeTimeout,
		RateLimits:   cfg.RateLimit.Limits(d.ProviderOrder),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	opts := discovery.Options{
		Adapters:     adapters,
		Cache:        a.cache,
		Syncer:       syncer.New(a.jobs, logger),
		CareersPaths: d.CareersPaths,
		Concurrency:  d.Concurrency,
		MaxDomains:   d.MaxDomains,
		FetchTimeout: d.FetchTimeout,
		Retries:      d.Retries,
		RetryDelay:   d.RetryDelay,
		Logger:       logger,
	}
	if d.Fallback {
		var b scraper.Browser
		if cfg.Scraper.Browser {
			b = browser.NewChrome(browser.Options{
				ExecPath:    cfg.Scraper.BrowserPath,
				PageTimeout: cfg.Scraper.PageTimeout,
				Logger:      logger,
			})
		}
		opts.Scraper = scraper.New(scraper.Options{
			Client:       a.client,
			Browser:      b,
			Logger:       logger,
			PageTimeout:  cfg.Scraper.PageTimeout,
			MaxPageBytes: cfg.Scraper.MaxPageBytes,
		})
	}
	a.orch = discovery.New(opts)

	logger.Debug("app ready",
		"store", cfg.Store.Driver,
		"cache", cfg.Cache.Driver,
		"providers", len(adapters),
		"fallback", d.Fallback,
		"browser", cfg.Scraper.Browser,
	)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// printBatch writes a one-line-per-company table followed by the totals.
func printBatch(r model.BatchReport) {
	fmt.Printf("%-30s %-16s %7s %7s %7s %7s  %s\n", "Domain", "Provider", "Fetched", "New", "Updated", "Closed", "Error")
	fmt.Println(strings.Repeat("─", 96))
	for _, c := range r.Companies {
		provider := string(c.Provider)
		if provider == "" {
			provider = "-"
		}
		fmt.Printf("%-30s %-16s %7d %7d %7d %7d  %s\n",
			c.Domain, provider, c.Fetched, c.Delta.Created, c.Delta.Updated, c.Delta.Deactivated, c.Err)
	}
	fmt.Printf("\nProcessed %d, discovered %d, skipped %d, errors %d | %d new, %d updated, %d closed\n",
		r.Processed, r.Discovered, r.Skipped, r.Errors, r.Totals.Created, r.Totals.Updated, r.Totals.Deactivated)
}
