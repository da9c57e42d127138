package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/atsprobe/internal/filter"
	"github.com/amishk599/atsprobe/internal/model"
)

// extractLinks is the last resort: every anchor whose text names a role and
// whose target looks like a job detail page. Validation reuses the title
// check, so the target is what keeps footers and menus out.
func extractLinks(doc *goquery.Document, base *url.URL) []model.RawJob {
	var jobs []model.RawJob
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := visibleText(s)
		if text == "" || len(text) > maxTitleChars || !filter.JobTitles.Match(text) {
			return
		}
		href, _ := s.Attr("href")
		link := resolveURL(base, href)
		if link == "" {
			return
		}
		if !filter.JobPathSegments.Match(strings.ToLower(link)) {
			return
		}
		markup, _ := goquery.OuterHtml(s)
		jobs = append(jobs, model.RawJob{
			Title: text,
			URL:   link,
			HTML:  truncate(markup, maxDebugHTML),
		})
	})
	return jobs
}
