package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/audit"
	"github.com/amishk599/atsprobe/internal/model"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare live and stored jobs interactively (TUI)",
	Long:  "Shows the company picker TUI, then a split-pane view of freshly discovered postings next to the stored ones.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Audit mode runs a TUI and any log output once the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), cfg, silentLogger, false)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.close()

	items, err := pickerItems(context.Background(), cfg.Domains, a.cache)
	if err != nil {
		logger.Error("failed to list accounts", "error", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("No domains configured or cached.")
		return nil
	}

	for {
		choice, err := audit.RunCompanyPicker(items)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		domain := items[choice].Domain

		snap, err := audit.RunLoader(domain, func(ctx context.Context) (audit.Snapshot, error) {
			snap := audit.Snapshot{Domain: domain}
			if res, ok := a.orch.Discover(ctx, domain); ok {
				snap.Result = res
			}
			stored, err := a.jobs.ListJobs(ctx, domain)
			if err != nil {
				return snap, fmt.Errorf("list stored jobs: %w", err)
			}
			snap.Stored = stored
			return snap, nil
		})
		if err != nil {
			fmt.Printf("Error loading %s: %v\n", domain, err)
			continue
		}

		wantQuit, err := audit.RunAuditTUI(snap)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}

// pickerItems merges configured domains with cached accounts, labelling each
// with its cached provider when one is known.
func pickerItems(ctx context.Context, domains []string, cache model.AccountCache) ([]audit.PickerItem, error) {
	accounts, err := cache.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	byDomain := make(map[string]model.Provider, len(accounts))
	for _, acct := range accounts {
		byDomain[acct.CompanyDomain] = acct.Provider
	}

	seen := make(map[string]bool)
	var items []audit.PickerItem
	add := func(domain string) {
		if domain == "" || seen[domain] {
			return
		}
		seen[domain] = true
		items = append(items, audit.PickerItem{Domain: domain, Provider: byDomain[domain]})
	}
	for _, d := range domains {
		add(adapter.NormalizeDomain(d))
	}
	for _, acct := range accounts {
		add(acct.CompanyDomain)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Domain < items[j].Domain })
	return items, nil
}
