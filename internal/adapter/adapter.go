package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/amishk599/atsprobe/internal/model"
	"github.com/amishk599/atsprobe/internal/ratelimit"
)

// Adapter speaks one ATS provider's public job-board dialect.
//
// Probe answers "does this company use this provider?" by trying the slug
// guesses for the domain. Any failure is treated as absence: Probe never
// returns an error. Fetch retrieves postings for a known slug and does return
// errors, so callers refreshing a cached account can retry on them.
type Adapter interface {
	Provider() model.Provider
	Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool)
	Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error)
}

// DefaultProbeTimeout bounds a single slug attempt during probing.
const DefaultProbeTimeout = 5 * time.Second

// DefaultOrder is the provider priority used to pick a winner when several
// providers report jobs for the same domain.
var DefaultOrder = []model.Provider{
	model.ProviderGreenhouse,
	model.ProviderLever,
	model.ProviderAshby,
	model.ProviderWorkable,
	model.ProviderSmartRecruiters,
	model.ProviderRecruitee,
	model.ProviderBambooHR,
	model.ProviderGem,
	model.ProviderPersonio,
	model.ProviderTeamtailor,
	model.ProviderComeet,
	model.ProviderPaylocity,
	model.ProviderWorkday,
}

// DefaultRateLimits holds the minimum delay between requests for providers
// that throttle aggressively.
var DefaultRateLimits = map[model.Provider]time.Duration{
	model.ProviderWorkable: 500 * time.Millisecond,
}

// Options configures adapter construction.
type Options struct {
	Client       *http.Client
	Logger       *slog.Logger
	ProbeTimeout time.Duration
	// RateLimits overrides DefaultRateLimits per provider. A zero value
	// removes the limit for that provider.
	RateLimits map[model.Provider]time.Duration

	// pages coalesces concurrent careers-page fetches across adapters built by NewSet.
	pages *singleflight.Group
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = DefaultProbeTimeout
	}
	if o.pages == nil {
		o.pages = new(singleflight.Group)
	}
	return o
}

// clientFor returns the client for p, rate limited when a delay is configured.
func (o Options) clientFor(p model.Provider) *http.Client {
	delay, ok := o.RateLimits[p]
	if !ok {
		delay = DefaultRateLimits[p]
	}
	if delay <= 0 {
		return o.Client
	}
	return ratelimit.WrapClient(o.Client, ratelimit.NewLimiter(string(p), delay))
}

// New builds the adapter for a single provider.
func New(p model.Provider, opts Options) (Adapter, error) {
	switch p {
	case model.ProviderGreenhouse:
		return NewGreenhouseAdapter(opts), nil
	case model.ProviderLever:
		return NewLeverAdapter(opts), nil
	case model.ProviderAshby:
		return NewAshbyAdapter(opts), nil
	case model.ProviderGem:
		return NewGemAdapter(opts), nil
	case model.ProviderWorkable:
		return NewWorkableAdapter(opts), nil
	case model.ProviderSmartRecruiters:
		return NewSmartRecruitersAdapter(opts), nil
	case model.ProviderRecruitee:
		return NewRecruiteeAdapter(opts), nil
	case model.ProviderBambooHR:
		return NewBambooHRAdapter(opts), nil
	case model.ProviderPersonio:
		return NewPersonioAdapter(opts), nil
	case model.ProviderTeamtailor:
		return NewTeamtailorAdapter(opts), nil
	case model.ProviderComeet:
		return NewComeetAdapter(opts), nil
	case model.ProviderPaylocity:
		return NewPaylocityAdapter(opts), nil
	case model.ProviderWorkday:
		return NewWorkdayAdapter(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}
}

// NewSet builds adapters in the given priority order. An empty order uses DefaultOrder.
func NewSet(order []model.Provider, opts Options) ([]Adapter, error) {
	if len(order) == 0 {
		order = DefaultOrder
	}
	opts = opts.withDefaults()
	adapters := make([]Adapter, 0, len(order))
	for _, p := range order {
		a, err := New(p, opts)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

// base carries what every adapter needs: a client, a logger and the probe bound.
type base struct {
	provider     model.Provider
	client       *http.Client
	logger       *slog.Logger
	probeTimeout time.Duration
	pages        *singleflight.Group
}

func newBase(p model.Provider, opts Options) base {
	opts = opts.withDefaults()
	return base{
		provider:     p,
		client:       opts.clientFor(p),
		logger:       opts.Logger,
		probeTimeout: opts.ProbeTimeout,
		pages:        opts.pages,
	}
}

// Provider returns the provider this adapter speaks.
func (b base) Provider() model.Provider {
	return b.provider
}

// fetchFunc is the Fetch method of a concrete adapter.
type fetchFunc func(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error)

// probeSlugs tries each candidate in order, each bounded by the probe timeout,
// and returns the first one yielding at least one job. Errors are logged at
// debug level and otherwise ignored.
func (b base) probeSlugs(ctx context.Context, companyDomain string, candidates []string, fetch fetchFunc) (*model.DiscoveryResult, bool) {
	for _, slug := range candidates {
		if ctx.Err() != nil {
			return nil, false
		}

		attemptCtx, cancel := context.WithTimeout(ctx, b.probeTimeout)
		jobs, err := fetch(attemptCtx, slug, companyDomain)
		cancel()

		if err != nil {
			b.logger.Debug("probe miss", "provider", b.provider, "domain", companyDomain, "slug", slug, "error", err)
			continue
		}
		if len(jobs) == 0 {
			b.logger.Debug("probe empty", "provider", b.provider, "domain", companyDomain, "slug", slug)
			continue
		}

		b.logger.Debug("probe hit", "provider", b.provider, "domain", companyDomain, "slug", slug, "jobs", len(jobs))
		return &model.DiscoveryResult{
			Provider: b.provider,
			Slug:     slug,
			JobCount: len(jobs),
			Jobs:     jobs,
		}, true
	}
	return nil, false
}
