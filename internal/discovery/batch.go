package discovery

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/model"
)

// DiscoverNewAccounts runs discovery for domains with no cached account.
// Cached domains are skipped, and at most MaxDomains are processed per call;
// the rest are counted as skipped and picked up by the next run.
func (o *Orchestrator) DiscoverNewAccounts(ctx context.Context, domains []string) model.BatchReport {
	var report model.BatchReport
	var todo []string
	for _, d := range uniqueDomains(domains) {
		acct, err := o.cache.GetAccount(ctx, d)
		if err != nil {
			o.logger.Warn("account cache read failed", "domain", d, "error", err)
		}
		if acct != nil {
			report.Skipped++
			continue
		}
		todo = append(todo, d)
	}
	return o.runBatch(ctx, todo, report)
}

// SyncBatch refreshes every domain, cached or not, subject to the same ceiling.
func (o *Orchestrator) SyncBatch(ctx context.Context, domains []string) model.BatchReport {
	return o.runBatch(ctx, uniqueDomains(domains), model.BatchReport{})
}

// runBatch processes domains in chunks of the configured concurrency. A
// failing company is recorded in the report and never stops the batch.
func (o *Orchestrator) runBatch(ctx context.Context, domains []string, report model.BatchReport) model.BatchReport {
	if len(domains) > o.maxDomains {
		report.Skipped += len(domains) - o.maxDomains
		domains = domains[:o.maxDomains]
	}

	companies := make([]model.CompanyReport, len(domains))
	done := make([]bool, len(domains))
	var mu sync.Mutex

	for start := 0; start < len(domains); start += o.concurrency {
		if ctx.Err() != nil {
			break
		}
		end := min(start+o.concurrency, len(domains))

		g := new(errgroup.Group)
		g.SetLimit(o.concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				cr := o.syncIsolated(ctx, domains[i])

				mu.Lock()
				defer mu.Unlock()
				companies[i] = cr
				done[i] = true
				report.Processed++
				if cr.Provider != "" {
					report.Discovered++
				}
				if cr.Err != "" {
					report.Errors++
				}
				report.Totals.Add(cr.Delta)
				return nil
			})
		}
		_ = g.Wait()

		o.logger.Debug("batch chunk complete", "from", start, "to", end, "of", len(domains))
	}

	for i, cr := range companies {
		if done[i] {
			report.Companies = append(report.Companies, cr)
		} else {
			report.Skipped++
		}
	}

	o.logger.Info("batch complete",
		"processed", report.Processed,
		"discovered", report.Discovered,
		"skipped", report.Skipped,
		"errors", report.Errors,
		"created", report.Totals.Created,
		"updated", report.Totals.Updated,
		"deactivated", report.Totals.Deactivated,
	)
	return report
}

// syncIsolated runs SyncCompany and turns a panic into a failed report.
func (o *Orchestrator) syncIsolated(ctx context.Context, domain string) (cr model.CompanyReport) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("company sync panicked", "domain", domain, "panic", r)
			cr = model.CompanyReport{Domain: adapter.NormalizeDomain(domain), Err: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return o.SyncCompany(ctx, domain)
}

// uniqueDomains normalizes domains and drops blanks and repeats, keeping order.
func uniqueDomains(domains []string) []string {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, raw := range domains {
		d := adapter.NormalizeDomain(raw)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
