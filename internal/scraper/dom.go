package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/amishk599/atsprobe/internal/filter"
	"github.com/amishk599/atsprobe/internal/model"
)

// candidateSelectors are tried in order; the first one whose repeating
// elements produce a plausible job list wins.
var candidateSelectors = []string{
	"[class*='job'], [class*='Job']",
	"[class*='position'], [class*='Position']",
	"[class*='opening'], [class*='Opening']",
	"[class*='vacanc'], [class*='Vacanc']",
	"[class*='posting'], [class*='Posting']",
	"[class*='career'], [class*='Career']",
	"[data-job-id], [data-job], [data-position-id]",
	"article",
	"tr",
	"li",
	"[class*='card'], [class*='Card']",
}

const (
	titleSelector      = "h1, h2, h3, h4, h5, h6, [class*='title'], [class*='Title'], [class*='name'], [class*='Name']"
	headingSelector    = "h1, h2, h3, h4, h5, h6, [class*='title'], [class*='Title']"
	inlineSelector     = "span, p, small, time, em"
	locationSelector   = "[class*='location'], [class*='Location'], [class*='city'], [class*='City'], [class*='place'], [data-location]"
	departmentSelector = "[class*='department'], [class*='Department'], [class*='team'], [class*='Team'], [class*='category'], [class*='Category']"
)

// maxTitleChars rejects candidate titles that are really paragraphs.
const maxTitleChars = 150

// Score weights for one candidate element.
const (
	scoreLink       = 2
	scoreTitle      = 3
	scoreLocation   = 1
	scoreCSS        = 2
	scoreCard       = 1
	scoreEmployment = 2
	scoreJobPath    = 3
)

// extractDOM scans repeating elements selector by selector and returns the
// first selector's plausible jobs.
func extractDOM(doc *goquery.Document, base *url.URL) []model.RawJob {
	for _, selector := range candidateSelectors {
		if jobs := extractWithSelector(doc, selector, base); len(jobs) >= 2 {
			return jobs
		}
	}
	return nil
}

// extractWithSelector groups the selector's matches by tag, class and parent
// shape, keeps the groups that repeat, and scores each element. Groups that do
// not validate on their own are dropped so one navigation list cannot dilute
// a real job list.
func extractWithSelector(doc *goquery.Document, selector string, base *url.URL) []model.RawJob {
	groups, order := groupRepeating(doc.Find(selector))
	members := make(map[*html.Node]string)
	for _, sig := range order {
		for _, n := range groups[sig] {
			members[n] = sig
		}
	}
	dropContainers(members)

	var jobs []model.RawJob
	for _, sig := range order {
		var groupJobs []model.RawJob
		for _, n := range groups[sig] {
			if _, ok := members[n]; !ok || hasMemberAncestor(n, members) {
				continue
			}
			job, score := scoreElement(doc.FindNodes(n), base)
			if score > 0 && job.Title != "" {
				groupJobs = append(groupJobs, job)
			}
		}
		if len(groupJobs) < 2 {
			continue
		}
		if _, err := validate(groupJobs); err != nil {
			continue
		}
		jobs = append(jobs, groupJobs...)
	}
	return jobs
}

// groupRepeating buckets elements by signature and returns the buckets with
// at least two members, in order of first appearance.
func groupRepeating(sel *goquery.Selection) (map[string][]*html.Node, []string) {
	all := make(map[string][]*html.Node)
	var seen []string
	for _, n := range sel.Nodes {
		sig := signature(n)
		if _, ok := all[sig]; !ok {
			seen = append(seen, sig)
		}
		all[sig] = append(all[sig], n)
	}

	groups := make(map[string][]*html.Node)
	var order []string
	for _, sig := range seen {
		if len(all[sig]) >= 2 {
			groups[sig] = all[sig]
			order = append(order, sig)
		}
	}
	return groups, order
}

func signature(n *html.Node) string {
	sig := n.Data + "." + attr(n, "class")
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		sig = p.Data + "." + attr(p, "class") + ">" + sig
	}
	return sig
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// dropContainers removes members that wrap two or more members of one other
// group: those are list wrappers, not listings.
func dropContainers(members map[*html.Node]string) {
	counts := make(map[*html.Node]map[string]int)
	for n, sig := range members {
		for a := n.Parent; a != nil; a = a.Parent {
			if _, ok := members[a]; !ok {
				continue
			}
			if counts[a] == nil {
				counts[a] = make(map[string]int)
			}
			counts[a][sig]++
		}
	}
	for n, bySig := range counts {
		for _, c := range bySig {
			if c >= 2 {
				delete(members, n)
				break
			}
		}
	}
}

func hasMemberAncestor(n *html.Node, members map[*html.Node]string) bool {
	for a := n.Parent; a != nil; a = a.Parent {
		if _, ok := members[a]; ok {
			return true
		}
	}
	return false
}

// scoreElement extracts a job from one candidate element and scores how much
// it looks like a listing.
func scoreElement(s *goquery.Selection, base *url.URL) (model.RawJob, int) {
	text := visibleText(s)
	score := 0

	link := s
	if goquery.NodeName(s) != "a" {
		link = s.Find("a[href]").First()
	}
	href := ""
	if v, ok := link.Attr("href"); ok {
		href = resolveURL(base, v)
	}
	if href != "" {
		score += scoreLink
		if filter.JobPathSegments.Match(href) {
			score += scoreJobPath
		}
	}

	title := elementTitle(s, link, text)
	if filter.JobTitles.Match(title) {
		score += scoreTitle
	}

	location := visibleText(s.Find(locationSelector).First())
	if location != "" || filter.Locations.Match(text) {
		score += scoreLocation
	}

	id, _ := s.Attr("id")
	class, _ := s.Attr("class")
	if filter.JobCSSTerms.Match(class + " " + id) {
		score += scoreCSS
	}

	if s.Find(headingSelector).Length() > 0 && s.Find(inlineSelector).Length() > 0 {
		score += scoreCard
	}

	if filter.EmploymentTypes.Match(text) {
		score += scoreEmployment
	}

	markup, _ := goquery.OuterHtml(s)
	return model.RawJob{
		Title:      title,
		Location:   location,
		Department: visibleText(s.Find(departmentSelector).First()),
		URL:        href,
		HTML:       truncate(markup, maxDebugHTML),
	}, score
}

// elementTitle picks the element's title: the first heading or title-classed
// child, else the link text, else the first chunk of text.
func elementTitle(s, link *goquery.Selection, text string) string {
	candidates := []string{visibleText(s.Find(titleSelector).First())}
	if link.Length() > 0 {
		candidates = append(candidates, visibleText(link))
	}
	candidates = append(candidates, text)

	for _, c := range candidates {
		if c != "" && len(c) <= maxTitleChars {
			return c
		}
	}
	return ""
}
