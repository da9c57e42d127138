package adapter

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const comeetBaseURL = "https://www.comeet.co/careers-api/2.0/company"

// Comeet embeds appear as window.COMEET_UID = "...", comeet.init({"company-uid": "..."})
// or data-company-uid="..." attributes; the token follows the same shapes.
var (
	comeetUIDRegex   = regexp.MustCompile(`(?i)(?:company[-_]?uid|comeet_uid)["']?\s*[:=]\s*["']([0-9a-z]{2}\.[0-9a-z]{2,6})["']`)
	comeetTokenRegex = regexp.MustCompile(`(?i)(?:comeet_token|["']token["']|data-token|\btoken)\s*[:=]\s*["']([0-9a-z]{12,64})["']`)
	// comeetURLRegex matches hosted career pages: comeet.com/jobs/{name}/{uid}.
	comeetURLRegex = regexp.MustCompile(`(?i)comeet\.com/jobs/[a-z0-9_-]+/([0-9a-z]{2}\.[0-9a-z]{2,6})`)
)

type comeetPosition struct {
	UID            string         `json:"uid"`
	Name           string         `json:"name"`
	Department     string         `json:"department"`
	Location       comeetLocation `json:"location"`
	EmploymentType string         `json:"employment_type"`
	WorkplaceType  string         `json:"workplace_type"`
	URLHostedPage  string         `json:"url_comeet_hosted_page"`
	URLActivePage  string         `json:"url_active_page"`
	Details        []comeetDetail `json:"details"`
}

type comeetLocation struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	IsRemote bool   `json:"is_remote"`
}

type comeetDetail struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ComeetAdapter fetches jobs from the Comeet careers API. Comeet accounts are
// keyed by a company UID and an API token, both mined from the company's own
// careers page; the slug stores them as "uid:token".
type ComeetAdapter struct {
	base
}

// NewComeetAdapter creates a new Comeet adapter.
func NewComeetAdapter(opts Options) *ComeetAdapter {
	return &ComeetAdapter{base: newBase(model.ProviderComeet, opts)}
}

// Probe mines the careers pages for a UID and token and verifies each
// candidate with a real fetch.
func (a *ComeetAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	var result *model.DiscoveryResult
	a.scanCareersPages(ctx, companyDomain, func(page careersPage) bool {
		creds := comeetCredentials(page.Haystack)
		if len(creds) == 0 {
			return false
		}
		res, ok := a.probeSlugs(ctx, companyDomain, creds, a.Fetch)
		if ok {
			result = res
		}
		return ok
	})
	return result, result != nil
}

// comeetCredentials returns every uid:token pairing found in the haystack.
func comeetCredentials(haystack string) []string {
	var uids, tokens []string
	for _, m := range comeetUIDRegex.FindAllStringSubmatch(haystack, -1) {
		uids = append(uids, strings.ToUpper(m[1]))
	}
	for _, m := range comeetURLRegex.FindAllStringSubmatch(haystack, -1) {
		uids = append(uids, strings.ToUpper(m[1]))
	}
	for _, m := range comeetTokenRegex.FindAllStringSubmatch(haystack, -1) {
		tokens = append(tokens, m[1])
	}

	seen := make(map[string]bool)
	var creds []string
	for _, uid := range uids {
		for _, token := range tokens {
			c := uid + ":" + token
			if !seen[c] {
				seen[c] = true
				creds = append(creds, c)
			}
		}
	}
	return creds
}

// Fetch retrieves positions for a "uid:token" credential.
func (a *ComeetAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	uid, token, ok := strings.Cut(slug, ":")
	if !ok || uid == "" || token == "" {
		return nil, fmt.Errorf("comeet fetch for %s: credential must be uid:token", slug)
	}

	endpoint := fmt.Sprintf("%s/%s/positions?token=%s&details=true", comeetBaseURL, url.PathEscape(uid), url.QueryEscape(token))

	var positions []comeetPosition
	if err := getJSON(ctx, a.client, endpoint, "comeet fetch for "+uid, &positions); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(positions))
	for _, p := range positions {
		jobs = append(jobs, normalizeComeet(p, uid, companyDomain))
	}
	return jobs, nil
}

// Position UIDs are only unique within a company, so the id carries the company UID.
func normalizeComeet(p comeetPosition, companyUID, companyDomain string) model.CanonicalJob {
	location := p.Location.Name
	if location == "" {
		location = joinNonEmpty(", ", p.Location.City, p.Location.Country)
	}

	var desc strings.Builder
	for _, d := range p.Details {
		if d.Name != "" {
			desc.WriteString("<h3>" + d.Name + "</h3>")
		}
		desc.WriteString(d.Value)
	}

	applyURL := p.URLActivePage
	if applyURL == "" {
		applyURL = p.URLHostedPage
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(p.Name),
		Description:    desc.String(),
		Department:     p.Department,
		Location:       location,
		WorkType:       ClassifyWorkType(boolPtr(p.Location.IsRemote), p.WorkplaceType, location),
		EmploymentType: ClassifyEmployment(p.EmploymentType),
		ApplyURL:       applyURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderComeet,
		ExternalID:     model.ExternalID(model.ProviderComeet, companyUID+"/"+p.UID),
	}
}
