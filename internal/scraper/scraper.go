package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/atsprobe/internal/model"
)

// Stage names, in cascade order.
const (
	StageStatic    = "static"
	StageIntercept = "intercept"
	StageRender    = "render"
)

const (
	// DefaultPageTimeout bounds the static fetch of one careers page.
	DefaultPageTimeout = 10 * time.Second
	// DefaultMaxPageBytes rejects pages larger than this, declared or decoded.
	DefaultMaxPageBytes = 5 << 20
)

// Browser is a headless browser capability. Implementations that cannot run
// on the host report Available() == false and the scraper skips the browser
// stages.
type Browser interface {
	Available() bool
	// CaptureJSON loads the page and returns the JSON XHR/fetch responses it made.
	CaptureJSON(ctx context.Context, pageURL string) ([]CapturedResponse, error)
	// RenderHTML loads the page, waits for client-side rendering to settle and
	// returns the resulting document.
	RenderHTML(ctx context.Context, pageURL string) (string, error)
}

// CapturedResponse is one network response recorded during a browser load.
type CapturedResponse struct {
	URL         string
	ContentType string
	Body        []byte
}

// Report records how a scrape went, stage by stage.
type Report struct {
	URL string
	// Stage is the stage that produced the jobs, empty when none did.
	Stage string
	// Loaded is set once the page itself was retrieved, even if no stage
	// found listings on it.
	Loaded   bool
	Failures []string
}

// Unreachable reports whether the scrape produced nothing because the page
// could not be retrieved, as opposed to a page without listings.
func (r Report) Unreachable() bool {
	return r.Stage == "" && !r.Loaded && len(r.Failures) > 0
}

func (r *Report) fail(stage string, err error) {
	r.Failures = append(r.Failures, stage+": "+err.Error())
}

// Options configures a Scraper.
type Options struct {
	Client       *http.Client
	Browser      Browser
	Logger       *slog.Logger
	PageTimeout  time.Duration
	MaxPageBytes int64
	// Delay returns the pause taken before each browser navigation.
	// Nil picks a random duration between 1.5s and 3s.
	Delay func() time.Duration
}

// Scraper extracts job listings from an arbitrary careers page when no ATS
// adapter recognized the company.
type Scraper struct {
	client       *http.Client
	browser      Browser
	logger       *slog.Logger
	pageTimeout  time.Duration
	maxPageBytes int64
	delay        func() time.Duration

	degradeOnce sync.Once
}

// New creates a Scraper.
func New(opts Options) *Scraper {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if opts.MaxPageBytes <= 0 {
		opts.MaxPageBytes = DefaultMaxPageBytes
	}
	if opts.Delay == nil {
		opts.Delay = humanDelay
	}
	return &Scraper{
		client:       opts.Client,
		browser:      opts.Browser,
		logger:       opts.Logger,
		pageTimeout:  opts.PageTimeout,
		maxPageBytes: opts.MaxPageBytes,
		delay:        opts.Delay,
	}
}

func humanDelay() time.Duration {
	return 1500*time.Millisecond + rand.N(1500*time.Millisecond)
}

// Scrape runs the extraction cascade against careersURL and returns the first
// plausible result. Finding nothing is not an error: the jobs are empty and
// the report explains why each stage failed.
func (s *Scraper) Scrape(ctx context.Context, careersURL string) ([]model.RawJob, Report) {
	report := Report{URL: careersURL}

	body, err := s.fetchPage(ctx, careersURL)
	if err == nil {
		report.Loaded = true
		var jobs []model.RawJob
		if jobs, err = extractHTML(body, careersURL); err == nil {
			report.Stage = StageStatic
			return jobs, report
		}
	}
	report.fail(StageStatic, err)

	if s.browser == nil || !s.browser.Available() {
		s.degradeOnce.Do(func() {
			s.logger.Warn("headless browser unavailable, scraping static html only")
		})
		report.fail("browser", fmt.Errorf("unavailable"))
	} else {
		for _, stage := range []struct {
			name string
			run  func(context.Context, string, *Report) ([]model.RawJob, error)
		}{
			{StageIntercept, s.scrapeIntercept},
			{StageRender, s.scrapeRendered},
		} {
			if ctx.Err() != nil {
				report.fail(stage.name, ctx.Err())
				break
			}
			jobs, err := stage.run(ctx, careersURL, &report)
			if err == nil {
				report.Stage = stage.name
				return jobs, report
			}
			report.fail(stage.name, err)
		}
	}

	s.logger.Warn("scraper found no jobs", "url", careersURL, "failures", strings.Join(report.Failures, "; "))
	return nil, report
}

func (s *Scraper) scrapeIntercept(ctx context.Context, pageURL string, report *Report) ([]model.RawJob, error) {
	if err := s.pause(ctx); err != nil {
		return nil, err
	}
	responses, err := s.browser.CaptureJSON(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	report.Loaded = true
	return extractIntercepted(responses, pageURL)
}

func (s *Scraper) scrapeRendered(ctx context.Context, pageURL string, report *Report) ([]model.RawJob, error) {
	if err := s.pause(ctx); err != nil {
		return nil, err
	}
	rendered, err := s.browser.RenderHTML(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	report.Loaded = true
	return extractHTML([]byte(rendered), pageURL)
}

// pause waits the navigation delay unless ctx ends first.
func (s *Scraper) pause(ctx context.Context) error {
	d := s.delay()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
