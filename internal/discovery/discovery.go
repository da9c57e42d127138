// Package discovery finds which ATS a company uses and keeps its postings in sync.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/model"
	"github.com/amishk599/atsprobe/internal/retry"
	"github.com/amishk599/atsprobe/internal/scraper"
)

const (
	DefaultConcurrency  = 10
	DefaultMaxDomains   = 150
	DefaultFetchTimeout = 30 * time.Second
	DefaultRetries      = 2
	DefaultRetryDelay   = 5 * time.Second
)

// Scraper is the fallback used when no adapter recognizes a company.
type Scraper interface {
	Scrape(ctx context.Context, careersURL string) ([]model.RawJob, scraper.Report)
}

// Syncer reconciles fetched postings with the job store.
type Syncer interface {
	Sync(ctx context.Context, companyDomain string, source model.Provider, jobs []model.CanonicalJob) (model.SyncDelta, error)
}

// Options configures an Orchestrator.
type Options struct {
	// Adapters in priority order. When several report jobs for a domain the
	// earliest one wins, regardless of which answered first.
	Adapters []adapter.Adapter
	Cache    model.AccountCache
	Syncer   Syncer
	// Scraper is optional; nil disables the careers-page fallback.
	Scraper      Scraper
	CareersPaths []string

	Concurrency  int
	MaxDomains   int
	FetchTimeout time.Duration
	Retries      int
	RetryDelay   time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// Orchestrator runs discovery and sync for one domain or a batch of them.
type Orchestrator struct {
	adapters     []adapter.Adapter
	byProvider   map[model.Provider]adapter.Adapter
	cache        model.AccountCache
	syncer       Syncer
	scraper      Scraper
	careersPaths []string

	concurrency  int
	maxDomains   int
	fetchTimeout time.Duration
	retries      int
	retryDelay   time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// New creates an Orchestrator. Cache and Syncer are required.
func New(opts Options) *Orchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxDomains <= 0 {
		opts.MaxDomains = DefaultMaxDomains
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if len(opts.CareersPaths) == 0 {
		opts.CareersPaths = adapter.CareersPaths
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	byProvider := make(map[model.Provider]adapter.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		byProvider[a.Provider()] = a
	}

	return &Orchestrator{
		adapters:     opts.Adapters,
		byProvider:   byProvider,
		cache:        opts.Cache,
		syncer:       opts.Syncer,
		scraper:      opts.Scraper,
		careersPaths: opts.CareersPaths,
		concurrency:  opts.Concurrency,
		maxDomains:   opts.MaxDomains,
		fetchTimeout: opts.FetchTimeout,
		retries:      opts.Retries,
		retryDelay:   opts.RetryDelay,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// DiscoverATSJobs probes every adapter concurrently and returns the result of
// the highest-priority adapter that found jobs. All probes run to completion;
// each is bounded by its own timeouts.
func (o *Orchestrator) DiscoverATSJobs(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	domain := adapter.NormalizeDomain(companyDomain)
	results := make([]*model.DiscoveryResult, len(o.adapters))

	var g errgroup.Group
	for i, a := range o.adapters {
		g.Go(func() error {
			if res, ok := a.Probe(ctx, domain); ok {
				results[i] = res
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res != nil {
			return res, true
		}
	}
	return nil, false
}

// Discover runs the full cascade for one domain, every adapter and then the
// careers-page fallback, without reading or writing the cache or the store.
func (o *Orchestrator) Discover(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	r, err := o.discover(ctx, adapter.NormalizeDomain(companyDomain))
	if err != nil {
		return nil, false
	}
	return &model.DiscoveryResult{Provider: r.provider, Slug: r.slug, JobCount: len(r.jobs), Jobs: r.jobs}, true
}

// errNotDiscovered marks a domain where no provider and no careers page produced jobs.
var errNotDiscovered = errors.New("no provider or careers page found")

// resolved is where a company's jobs came from this run.
type resolved struct {
	provider model.Provider
	slug     string
	jobs     []model.CanonicalJob
}

// SyncCompany refreshes one company: the cached account first, then a full
// probe, then the careers-page fallback. Whatever is found is cached and
// synced. Failures are reported, never returned.
func (o *Orchestrator) SyncCompany(ctx context.Context, companyDomain string) model.CompanyReport {
	domain := adapter.NormalizeDomain(companyDomain)
	report := model.CompanyReport{Domain: domain}
	logger := o.logger.With("domain", domain)

	cached, err := o.cache.GetAccount(ctx, domain)
	if err != nil {
		logger.Warn("account cache read failed, probing", "error", err)
		cached = nil
	}

	var refreshErr error
	var refreshed *resolved
	if cached != nil {
		refreshed, refreshErr = o.refresh(ctx, *cached)
		if refreshErr != nil {
			logger.Warn("cached account refresh failed, re-probing", "provider", cached.Provider, "slug", cached.Slug, "error", refreshErr)
		} else if len(refreshed.jobs) == 0 {
			logger.Info("cached account has no jobs, re-probing", "provider", cached.Provider, "slug", cached.Slug)
		}
	}

	found := refreshed
	if found == nil || len(found.jobs) == 0 {
		if r, err := o.discover(ctx, domain); err == nil {
			found = r
		}
	}

	switch {
	case found != nil && len(found.jobs) > 0:
	case refreshErr != nil:
		report.Err = refreshErr.Error()
		return report
	case refreshed != nil:
		// The cached board answered with no postings: everything there was taken down.
		found = refreshed
	default:
		logger.Debug("nothing discovered")
		return report
	}

	report.Provider = found.provider
	report.Slug = found.slug
	report.Fetched = len(found.jobs)

	// A company that moved to another ATS leaves its old postings behind.
	if cached != nil && cached.Provider != found.provider {
		delta, err := o.syncer.Sync(ctx, domain, cached.Provider, nil)
		if err != nil {
			report.Err = err.Error()
			return report
		}
		report.Delta.Add(delta)
	}

	delta, err := o.syncer.Sync(ctx, domain, found.provider, found.jobs)
	if err != nil {
		report.Err = err.Error()
		return report
	}
	report.Delta.Add(delta)

	now := o.now()
	if err := o.cache.PutAccount(ctx, model.ProviderAccount{
		CompanyDomain: domain,
		Provider:      found.provider,
		Slug:          found.slug,
		JobCount:      len(found.jobs),
		LastCheckedAt: now,
		LastSyncedAt:  now,
	}); err != nil {
		logger.Warn("account cache write failed", "error", err)
	}

	logger.Info("company synced",
		"provider", found.provider,
		"slug", found.slug,
		"fetched", report.Fetched,
		"created", report.Delta.Created,
		"updated", report.Delta.Updated,
		"deactivated", report.Delta.Deactivated,
	)
	return report
}

// refresh fetches a cached account's postings, retrying transient failures.
func (o *Orchestrator) refresh(ctx context.Context, acct model.ProviderAccount) (*resolved, error) {
	if acct.Provider == model.ProviderScraper {
		if o.scraper == nil {
			return nil, fmt.Errorf("refresh %s: careers-page fallback disabled", acct.CompanyDomain)
		}
		raws, rep := o.scraper.Scrape(ctx, acct.Slug)
		if len(raws) == 0 && rep.Unreachable() {
			return nil, fmt.Errorf("refresh %s via careers page %s: %s", acct.CompanyDomain, acct.Slug, strings.Join(rep.Failures, "; "))
		}
		return &resolved{provider: model.ProviderScraper, slug: acct.Slug, jobs: scraper.NormalizeAll(raws, acct.CompanyDomain)}, nil
	}

	a, ok := o.byProvider[acct.Provider]
	if !ok {
		return nil, fmt.Errorf("refresh %s: provider %q is not enabled", acct.CompanyDomain, acct.Provider)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	fetcher := retry.NewRetryFetcher(a, o.retries, o.retryDelay, o.logger)
	jobs, err := fetcher.Fetch(fetchCtx, acct.Slug, acct.CompanyDomain)
	if err != nil {
		return nil, fmt.Errorf("refresh %s via %s/%s: %w", acct.CompanyDomain, acct.Provider, acct.Slug, err)
	}
	return &resolved{provider: acct.Provider, slug: acct.Slug, jobs: jobs}, nil
}

// discover probes all adapters, then falls back to scraping careers pages.
func (o *Orchestrator) discover(ctx context.Context, domain string) (*resolved, error) {
	if res, ok := o.DiscoverATSJobs(ctx, domain); ok {
		return &resolved{provider: res.Provider, slug: res.Slug, jobs: res.Jobs}, nil
	}
	if o.scraper == nil {
		return nil, errNotDiscovered
	}

	for _, path := range o.careersPaths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		careersURL := "https://" + domain + path
		raws, report := o.scraper.Scrape(ctx, careersURL)
		if len(raws) == 0 {
			continue
		}
		o.logger.Debug("careers page scraped", "domain", domain, "url", careersURL, "stage", report.Stage, "jobs", len(raws))
		return &resolved{provider: model.ProviderScraper, slug: careersURL, jobs: scraper.NormalizeAll(raws, domain)}, nil
	}
	return nil, errNotDiscovered
}
