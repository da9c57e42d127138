package scraper

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/atsprobe/internal/model"
)

// jsonLDContainerKeys are followed when looking for JobPosting nodes.
var jsonLDContainerKeys = []string{"@graph", "itemListElement", "item", "mainEntity"}

// extractJSONLD returns every schema.org JobPosting found in the page's
// ld+json blocks. Malformed blocks are skipped.
func extractJSONLD(doc *goquery.Document, base *url.URL) []model.RawJob {
	var jobs []model.RawJob
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return
		}
		walkJSONLD(v, func(posting map[string]any) {
			if job, ok := jobFromPosting(posting, base); ok {
				jobs = append(jobs, job)
			}
		})
	})
	return jobs
}

func walkJSONLD(v any, visit func(map[string]any)) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			walkJSONLD(item, visit)
		}
	case map[string]any:
		if isJobPostingType(t["@type"]) {
			visit(t)
			return
		}
		for _, key := range jsonLDContainerKeys {
			if child, ok := t[key]; ok {
				walkJSONLD(child, visit)
			}
		}
	}
}

func isJobPostingType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "JobPosting")
	case []any:
		for _, item := range t {
			if isJobPostingType(item) {
				return true
			}
		}
	}
	return false
}

func jobFromPosting(p map[string]any, base *url.URL) (model.RawJob, bool) {
	title := stringOf(p["title"])
	if title == "" {
		title = stringOf(p["name"])
	}
	if title == "" {
		return model.RawJob{}, false
	}

	location := postingLocation(p["jobLocation"])
	if strings.EqualFold(stringOf(p["jobLocationType"]), "TELECOMMUTE") && !strings.Contains(strings.ToLower(location), "remote") {
		if location == "" {
			location = "Remote"
		} else {
			location = "Remote; " + location
		}
	}

	link := stringOf(p["url"])
	if link == "" {
		link = stringOf(p["sameAs"])
	}

	return model.RawJob{
		Title:      collapseSpace(title),
		Location:   location,
		Department: stringOf(p["occupationalCategory"]),
		URL:        resolveURL(base, link),
	}, true
}

// postingLocation renders a jobLocation (a Place or a list of them) as
// "locality, region, country" strings joined by "; ".
func postingLocation(v any) string {
	var places []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if loc := postingLocation(item); loc != "" {
				places = append(places, loc)
			}
		}
	case map[string]any:
		addr, ok := t["address"].(map[string]any)
		if !ok {
			return stringOf(t["address"])
		}
		var parts []string
		for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			if s := stringOf(addr[key]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case string:
		return strings.TrimSpace(t)
	}
	return strings.Join(places, "; ")
}

// stringOf renders a loosely typed JSON value as text: strings as is, objects
// by their name-like field, lists joined by ", ".
func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, key := range []string{"name", "label", "title", "value", "city"} {
			if s := stringOf(t[key]); s != "" {
				return s
			}
		}
	case []any:
		var parts []string
		for _, item := range t {
			if s := stringOf(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
