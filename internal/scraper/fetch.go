package scraper

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/model"
)

// fetchPage GETs one careers page as a browser would and returns its body.
// Non-HTML content and pages over the size cap are rejected.
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", adapter.BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode),
		}
	}

	if ct := resp.Header.Get("Content-Type"); !isHTMLContentType(ct) {
		return nil, fmt.Errorf("fetch %s: content type %q is not html", pageURL, ct)
	}
	if resp.ContentLength > s.maxPageBytes {
		return nil, fmt.Errorf("fetch %s: content length %d exceeds %d bytes", pageURL, resp.ContentLength, s.maxPageBytes)
	}

	// The transport has already undone any gzip encoding, so this bounds the decoded size.
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxPageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", pageURL, err)
	}
	if int64(len(body)) > s.maxPageBytes {
		return nil, fmt.Errorf("fetch %s: page exceeds %d bytes", pageURL, s.maxPageBytes)
	}
	return body, nil
}

// isHTMLContentType accepts html, xhtml and any text/* type. A missing header
// is given the benefit of the doubt.
func isHTMLContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(ct))
	}
	return strings.HasPrefix(mediaType, "text/") || strings.Contains(mediaType, "html")
}
