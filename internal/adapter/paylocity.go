package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const paylocityFeedURL = "https://recruiting.paylocity.com/recruiting/v2/api/feed/jobs"

// paylocityGUIDRegex finds the company GUID in links or embeds pointing at
// recruiting.paylocity.com, e.g. /Recruiting/Jobs/All/{guid}/Acme-Inc.
var paylocityGUIDRegex = regexp.MustCompile(`(?i)recruiting\.paylocity\.com/[^"'\s<>]*?([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`)

type paylocityJob struct {
	JobID            flexString        `json:"jobId"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	HiringDepartment string            `json:"hiringDepartment"`
	JobLocation      paylocityLocation `json:"jobLocation"`
	IsRemote         bool              `json:"isRemote"`
	EmploymentType   string            `json:"employmentType"`
	ApplyURL         string            `json:"applyUrl"`
	DisplayURL       string            `json:"displayUrl"`
}

type paylocityLocation struct {
	Name                string `json:"name"`
	City                string `json:"city"`
	State               string `json:"state"`
	Country             string `json:"country"`
	LocationDisplayName string `json:"locationDisplayName"`
}

type paylocityResponse struct {
	Jobs []paylocityJob `json:"jobs"`
}

// PaylocityAdapter fetches jobs from the Paylocity recruiting feed. The slug is
// the company GUID found on the company's careers page.
type PaylocityAdapter struct {
	base
}

// NewPaylocityAdapter creates a new Paylocity adapter.
func NewPaylocityAdapter(opts Options) *PaylocityAdapter {
	return &PaylocityAdapter{base: newBase(model.ProviderPaylocity, opts)}
}

// Probe mines the careers pages for a Paylocity GUID and verifies it with a real fetch.
func (a *PaylocityAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	var result *model.DiscoveryResult
	a.scanCareersPages(ctx, companyDomain, func(page careersPage) bool {
		guids := paylocityGUIDs(page.Haystack)
		if len(guids) == 0 {
			return false
		}
		res, ok := a.probeSlugs(ctx, companyDomain, guids, a.Fetch)
		if ok {
			result = res
		}
		return ok
	})
	return result, result != nil
}

func paylocityGUIDs(haystack string) []string {
	seen := make(map[string]bool)
	var guids []string
	for _, m := range paylocityGUIDRegex.FindAllStringSubmatch(haystack, -1) {
		g := strings.ToLower(m[1])
		if !seen[g] {
			seen[g] = true
			guids = append(guids, g)
		}
	}
	return guids
}

// Fetch retrieves the job feed for a company GUID.
func (a *PaylocityAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("%s/%s", paylocityFeedURL, slug)

	var resp paylocityResponse
	if err := getJSON(ctx, a.client, url, "paylocity fetch for "+slug, &resp); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(resp.Jobs))
	for _, pj := range resp.Jobs {
		jobs = append(jobs, normalizePaylocity(pj, companyDomain))
	}
	return jobs, nil
}

func normalizePaylocity(pj paylocityJob, companyDomain string) model.CanonicalJob {
	location := pj.JobLocation.LocationDisplayName
	if location == "" {
		location = joinNonEmpty(", ", pj.JobLocation.City, pj.JobLocation.State, pj.JobLocation.Country)
	}
	if location == "" {
		location = pj.JobLocation.Name
	}

	applyURL := pj.DisplayURL
	if applyURL == "" {
		applyURL = pj.ApplyURL
	}
	if applyURL == "" {
		applyURL = fmt.Sprintf("https://recruiting.paylocity.com/Recruiting/Jobs/Details/%s", pj.JobID)
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(pj.Title),
		Description:    pj.Description,
		Department:     pj.HiringDepartment,
		Location:       location,
		WorkType:       ClassifyWorkType(boolPtr(pj.IsRemote), "", location),
		EmploymentType: ClassifyEmployment(pj.EmploymentType),
		ApplyURL:       applyURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderPaylocity,
		ExternalID:     model.ExternalID(model.ProviderPaylocity, string(pj.JobID)),
	}
}
