package scraper

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

// analyticsHosts are tracking endpoints whose responses are never job data.
var analyticsHosts = []string{
	"google-analytics.com", "googletagmanager.com", "doubleclick.net",
	"segment.io", "segment.com", "mixpanel.com", "amplitude.com", "hotjar.com",
	"hotjar.io", "facebook.com", "facebook.net", "clarity.ms", "sentry.io",
	"datadoghq.com", "nr-data.net", "newrelic.com", "intercom.io", "hubspot.com",
	"hs-analytics.net", "fullstory.com", "heap.io", "heapanalytics.com",
	"optimizely.com", "onetrust.com", "cookielaw.org", "cookiebot.com",
	"linkedin.com", "licdn.com", "bing.com", "tiktok.com",
}

// wrapperKeys are the object keys job arrays are conventionally nested under.
var wrapperKeys = []string{"jobs", "data", "results", "positions", "postings", "openings", "items", "vacancies"}

var (
	titleKeys      = []string{"title", "name", "jobTitle", "job_title", "position", "text", "positionName"}
	locationKeys   = []string{"location", "locationName", "location_name", "locations", "city", "office", "offices"}
	departmentKeys = []string{"department", "departmentName", "team", "category", "function"}
	urlKeys        = []string{"url", "absolute_url", "applyUrl", "apply_url", "hostedUrl", "jobUrl", "job_url", "link", "href"}
)

const (
	// jobSampleSize is how many array items are inspected for title-like fields.
	jobSampleSize = 10
	// minTitledFraction of the sample must carry a title for an array to count as jobs.
	minTitledFraction = 0.5
)

var errNoJobResponses = errors.New("no job-like json responses")

// extractIntercepted looks through captured JSON responses for an array of
// job-like objects and returns the first one that validates.
func extractIntercepted(responses []CapturedResponse, pageURL string) ([]model.RawJob, error) {
	base, _ := url.Parse(pageURL)

	var lastErr error
	for _, r := range responses {
		if isAnalytics(r.URL) {
			continue
		}
		var v any
		if err := json.Unmarshal(r.Body, &v); err != nil {
			continue
		}
		items := findJobArray(v)
		if items == nil {
			continue
		}
		jobs, err := validate(jobsFromItems(items, base))
		if err == nil {
			return jobs, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errNoJobResponses
}

func isAnalytics(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range analyticsHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// findJobArray returns v itself when it is a job-like array, or a job-like
// array under a wrapper key up to one nested level.
func findJobArray(v any) []any {
	switch t := v.(type) {
	case []any:
		if looksLikeJobs(t) {
			return t
		}
	case map[string]any:
		for _, key := range wrapperKeys {
			switch child := t[key].(type) {
			case []any:
				if looksLikeJobs(child) {
					return child
				}
			case map[string]any:
				for _, inner := range wrapperKeys {
					if arr, ok := child[inner].([]any); ok && looksLikeJobs(arr) {
						return arr
					}
				}
			}
		}
	}
	return nil
}

func looksLikeJobs(items []any) bool {
	n := min(len(items), jobSampleSize)
	if n == 0 {
		return false
	}
	titled := 0
	for _, item := range items[:n] {
		if obj, ok := item.(map[string]any); ok && firstString(obj, titleKeys) != "" {
			titled++
		}
	}
	return float64(titled)/float64(n) >= minTitledFraction
}

func jobsFromItems(items []any, base *url.URL) []model.RawJob {
	jobs := make([]model.RawJob, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title := firstString(obj, titleKeys)
		if title == "" {
			continue
		}
		jobs = append(jobs, model.RawJob{
			Title:      collapseSpace(title),
			Location:   firstString(obj, locationKeys),
			Department: firstString(obj, departmentKeys),
			URL:        resolveURL(base, firstString(obj, urlKeys)),
		})
	}
	return jobs
}

// firstString returns the first non-empty value among keys, rendered as text.
func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringOf(obj[k]); s != "" {
			return s
		}
	}
	return ""
}
