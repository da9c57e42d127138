package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const workableBaseURL = "https://apply.workable.com/api/v1/widget/accounts"

type workableJob struct {
	Title          string             `json:"title"`
	Shortcode      string             `json:"shortcode"`
	EmploymentType string             `json:"employment_type"`
	Telecommuting  bool               `json:"telecommuting"`
	Department     string             `json:"department"`
	URL            string             `json:"url"`
	ShortLink      string             `json:"shortlink"`
	Description    string             `json:"description"`
	City           string             `json:"city"`
	State          string             `json:"state"`
	Country        string             `json:"country"`
	Locations      []workableLocation `json:"locations"`
}

type workableLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Hidden  bool   `json:"hidden"`
}

type workableResponse struct {
	Name string        `json:"name"`
	Jobs []workableJob `json:"jobs"`
}

// WorkableAdapter fetches jobs from the Workable widget API. Workable throttles
// hard, so its client is rate limited by default.
type WorkableAdapter struct {
	base
}

// NewWorkableAdapter creates a new Workable adapter.
func NewWorkableAdapter(opts Options) *WorkableAdapter {
	return &WorkableAdapter{base: newBase(model.ProviderWorkable, opts)}
}

// Probe tries the slug guesses for the domain as account names.
func (a *WorkableAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves the published jobs for the account.
func (a *WorkableAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("%s/%s", workableBaseURL, slug)

	var resp workableResponse
	if err := getJSON(ctx, a.client, url, "workable fetch for "+slug, &resp); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(resp.Jobs))
	for _, wj := range resp.Jobs {
		jobs = append(jobs, normalizeWorkable(wj, companyDomain))
	}
	return jobs, nil
}

func normalizeWorkable(wj workableJob, companyDomain string) model.CanonicalJob {
	var locations []string
	for _, l := range wj.Locations {
		if l.Hidden {
			continue
		}
		if loc := joinNonEmpty(", ", l.City, l.Region, l.Country); loc != "" {
			locations = append(locations, loc)
		}
	}
	location := strings.Join(locations, "; ")
	if location == "" {
		location = joinNonEmpty(", ", wj.City, wj.State, wj.Country)
	}

	applyURL := wj.URL
	if applyURL == "" {
		applyURL = wj.ShortLink
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(wj.Title),
		Description:    wj.Description,
		Department:     wj.Department,
		Location:       location,
		WorkType:       ClassifyWorkType(boolPtr(wj.Telecommuting), "", location),
		EmploymentType: ClassifyEmployment(wj.EmploymentType),
		ApplyURL:       applyURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderWorkable,
		ExternalID:     model.ExternalID(model.ProviderWorkable, wj.Shortcode),
	}
}
