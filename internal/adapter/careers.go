package adapter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CareersPaths are the paths tried, in order, when looking for a company's careers page.
var CareersPaths = []string{"/careers", "/jobs", "/careers/", "/join-us", "/company/careers", "/about/careers"}

// careersPage is one fetched careers page prepared for credential mining.
type careersPage struct {
	URL string
	// Haystack is the raw HTML followed by every data-* attribute, script src,
	// iframe src and anchor href as attr="value" lines, so one regex can
	// match embed snippets written either way.
	Haystack string
}

// careersHosts returns the hosts to try for a domain: the bare domain and its www form.
func careersHosts(companyDomain string) []string {
	d := NormalizeDomain(companyDomain)
	return []string{d, "www." + d}
}

// scanCareersPages fetches candidate careers pages and hands each one to
// visit until it reports a match. Every fetch is bounded by the probe timeout;
// failures are skipped.
func (b base) scanCareersPages(ctx context.Context, companyDomain string, visit func(careersPage) bool) bool {
	seen := make(map[string]bool)
	for _, host := range careersHosts(companyDomain) {
		for _, path := range CareersPaths {
			if ctx.Err() != nil {
				return false
			}
			url := "https://" + host + path
			page, err := b.fetchCareersPage(ctx, url)
			if err != nil {
				b.logger.Debug("careers page miss", "provider", b.provider, "url", url, "error", err)
				continue
			}
			// Redirect targets often coincide; mine identical bodies once.
			if seen[page.Haystack] {
				continue
			}
			seen[page.Haystack] = true
			if visit(page) {
				return true
			}
		}
	}
	return false
}

// fetchCareersPage fetches and prepares one page. Concurrent requests for the
// same URL from different adapters share a single fetch.
func (b base) fetchCareersPage(ctx context.Context, url string) (careersPage, error) {
	v, err, _ := b.pages.Do(url, func() (any, error) {
		return b.loadCareersPage(ctx, url)
	})
	if err != nil {
		return careersPage{}, err
	}
	return v.(careersPage), nil
}

func (b base) loadCareersPage(ctx context.Context, url string) (careersPage, error) {
	pageCtx, cancel := context.WithTimeout(ctx, b.probeTimeout)
	defer cancel()

	body, err := getBody(pageCtx, b.client, url, "careers page "+url)
	if err != nil {
		return careersPage{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return careersPage{}, fmt.Errorf("careers page %s: parse: %w", url, err)
	}

	var hay strings.Builder
	hay.Write(body)
	hay.WriteByte('\n')
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			interesting := strings.HasPrefix(key, "data-") ||
				(key == "src" && (node.Data == "script" || node.Data == "iframe")) ||
				(key == "href" && node.Data == "a")
			if interesting {
				fmt.Fprintf(&hay, "%s=%q\n", key, attr.Val)
			}
		}
	})

	return careersPage{URL: url, Haystack: hay.String()}, nil
}
