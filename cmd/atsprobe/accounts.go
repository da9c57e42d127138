package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List cached provider accounts",
	Long:  "Prints a table of every domain with a confirmed provider account.",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, setupLogger(debug), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	accounts, err := a.cache.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	fmt.Printf("%-30s %-16s %-30s %6s  %s\n", "Domain", "Provider", "Slug", "Jobs", "Last synced")
	fmt.Println(strings.Repeat("─", 104))
	for _, acct := range accounts {
		synced := "never"
		if !acct.LastSyncedAt.IsZero() {
			synced = acct.LastSyncedAt.Local().Format(time.DateTime)
		}
		fmt.Printf("%-30s %-16s %-30s %6d  %s\n", acct.CompanyDomain, acct.Provider, clip(acct.Slug, 30), acct.JobCount, synced)
	}

	fmt.Printf("\nTotal: %d accounts (%d domains configured)\n", len(accounts), len(cfg.Domains))
	return nil
}
