// Package browser drives a headless Chrome for the scraper's browser stages.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/scraper"
)

const (
	// DefaultPageTimeout bounds one browser navigation including the settle time.
	DefaultPageTimeout = 15 * time.Second
	// settleDelay gives client-side rendering and XHR traffic time to finish.
	settleDelay = 2 * time.Second
	// maxCapturedBody skips captured responses larger than this.
	maxCapturedBody = 2 << 20
)

// execCandidates are looked up on PATH when no executable is configured.
var execCandidates = []string{
	"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell", "chrome",
}

// ErrUnavailable is returned when no Chrome executable was found.
var ErrUnavailable = errors.New("browser: no chrome executable found")

// Options configures Chrome.
type Options struct {
	// ExecPath is the Chrome binary. Empty searches PATH.
	ExecPath    string
	PageTimeout time.Duration
	Logger      *slog.Logger
}

// Chrome implements scraper.Browser with chromedp. Each call starts its own
// browser process so concurrent scrapes never share state.
type Chrome struct {
	execPath    string
	pageTimeout time.Duration
	logger      *slog.Logger
}

var _ scraper.Browser = (*Chrome)(nil)

// NewChrome resolves the Chrome executable once. A missing executable is not
// an error: Available reports false and the scraper degrades.
func NewChrome(opts Options) *Chrome {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Chrome{
		execPath:    findExec(opts.ExecPath),
		pageTimeout: opts.PageTimeout,
		logger:      opts.Logger,
	}
}

func findExec(configured string) string {
	if configured != "" {
		if p, err := exec.LookPath(configured); err == nil {
			return p
		}
		return ""
	}
	for _, name := range execCandidates {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// Available reports whether a Chrome executable was found.
func (c *Chrome) Available() bool {
	return c.execPath != ""
}

// newTab starts a headless browser and returns a tab context bounded by the page timeout.
func (c *Chrome) newTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if !c.Available() {
		return nil, nil, ErrUnavailable
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(c.execPath),
		chromedp.UserAgent(adapter.BrowserUserAgent),
		chromedp.DisableGPU,
		chromedp.WindowSize(1366, 900),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	timeoutCtx, cancelTimeout := context.WithTimeout(tabCtx, c.pageTimeout)

	return timeoutCtx, func() {
		cancelTimeout()
		cancelTab()
		cancelAlloc()
	}, nil
}

type capturedMeta struct {
	id       network.RequestID
	url      string
	mimeType string
}

// CaptureJSON loads pageURL and returns the JSON bodies of the XHR and fetch
// responses the page made while loading, in the order they arrived.
func (c *Chrome) CaptureJSON(ctx context.Context, pageURL string) ([]scraper.CapturedResponse, error) {
	tabCtx, cancel, err := c.newTab(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var (
		mu   sync.Mutex
		seen []capturedMeta
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*network.EventResponseReceived)
		if !ok || (e.Type != network.ResourceTypeXHR && e.Type != network.ResourceTypeFetch) {
			return
		}
		if !strings.Contains(strings.ToLower(e.Response.MimeType), "json") {
			return
		}
		mu.Lock()
		seen = append(seen, capturedMeta{id: e.RequestID, url: e.Response.URL, mimeType: e.Response.MimeType})
		mu.Unlock()
	})

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settleDelay),
	); err != nil {
		return nil, fmt.Errorf("browser capture %s: %w", pageURL, err)
	}

	mu.Lock()
	metas := append([]capturedMeta(nil), seen...)
	mu.Unlock()

	out := make([]scraper.CapturedResponse, 0, len(metas))
	for _, m := range metas {
		var body []byte
		err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			body, err = network.GetResponseBody(m.id).Do(ctx)
			return err
		}))
		if err != nil {
			c.logger.Debug("captured response body unavailable", "url", m.url, "error", err)
			continue
		}
		if len(body) > maxCapturedBody {
			continue
		}
		out = append(out, scraper.CapturedResponse{URL: m.url, ContentType: m.mimeType, Body: body})
	}
	return out, nil
}

// RenderHTML loads pageURL, waits for rendering to settle and returns the
// document's outer HTML.
func (c *Chrome) RenderHTML(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel, err := c.newTab(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()

	var rendered string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("browser render %s: %w", pageURL, err)
	}
	return rendered, nil
}
