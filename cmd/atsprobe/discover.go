package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsprobe/internal/model"
)

var discoverDryRun bool

var discoverCmd = &cobra.Command{
	Use:   "discover <domain>",
	Short: "Discover and sync a single company",
	Long: "Probes every provider for the domain, falls back to its careers page, and syncs what it finds. " +
		"With --dry-run the jobs are printed and nothing is persisted.",
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverDryRun, "dry-run", false, "print discovered jobs without touching the store or cache")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, discoverDryRun)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.close()

	domain := args[0]
	if discoverDryRun {
		res, ok := a.orch.Discover(ctx, domain)
		if !ok {
			fmt.Printf("No provider or careers page found for %s\n", domain)
			return nil
		}
		fmt.Printf("%s: %s/%s, %d jobs\n\n", domain, res.Provider, res.Slug, res.JobCount)
		printJobs(res.Jobs)
		return nil
	}

	report := a.orch.SyncCompany(ctx, domain)
	if report.Err != "" {
		return fmt.Errorf("sync %s: %s", report.Domain, report.Err)
	}
	if report.Provider == "" {
		fmt.Printf("No provider or careers page found for %s\n", report.Domain)
		return nil
	}
	fmt.Printf("%s: %s/%s, %d fetched | %d new, %d updated, %d closed\n",
		report.Domain, report.Provider, report.Slug, report.Fetched,
		report.Delta.Created, report.Delta.Updated, report.Delta.Deactivated)
	return nil
}

func printJobs(jobs []model.CanonicalJob) {
	fmt.Printf("%-50s %-28s %-8s %s\n", "Title", "Location", "Work", "Employment")
	fmt.Println(strings.Repeat("─", 102))
	for _, j := range jobs {
		fmt.Printf("%-50s %-28s %-8s %s\n", clip(j.Title, 50), clip(j.Location, 28), j.WorkType, j.EmploymentType)
	}
}

// clip shortens s to n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
