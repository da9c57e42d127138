package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

type leverSalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID            string            `json:"id"`
	Text          string            `json:"text"`
	Description   string            `json:"description"`
	Categories    leverCategories   `json:"categories"`
	WorkplaceType string            `json:"workplaceType"`
	HostedURL     string            `json:"hostedUrl"`
	ApplyURL      string            `json:"applyUrl"`
	SalaryRange   *leverSalaryRange `json:"salaryRange"`
}

// LeverAdapter fetches jobs from the Lever public postings API.
type LeverAdapter struct {
	base
}

// NewLeverAdapter creates a new Lever adapter.
func NewLeverAdapter(opts Options) *LeverAdapter {
	return &LeverAdapter{base: newBase(model.ProviderLever, opts)}
}

// Probe tries the slug guesses for the domain as Lever site names.
func (a *LeverAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves all published postings for the site.
func (a *LeverAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, slug)

	var postings []leverJob
	if err := getJSON(ctx, a.client, url, "lever fetch for "+slug, &postings); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(postings))
	for _, lj := range postings {
		jobs = append(jobs, normalizeLever(lj, companyDomain))
	}
	return jobs, nil
}

func normalizeLever(lj leverJob, companyDomain string) model.CanonicalJob {
	// Use allLocations when available, fall back to the single location field.
	location := lj.Categories.Location
	if len(lj.Categories.AllLocations) > 0 {
		location = strings.Join(lj.Categories.AllLocations, "; ")
	}

	department := lj.Categories.Department
	if department == "" {
		department = lj.Categories.Team
	}

	applyURL := lj.HostedURL
	if applyURL == "" {
		applyURL = lj.ApplyURL
	}

	job := model.CanonicalJob{
		Title:          strings.TrimSpace(lj.Text),
		Description:    lj.Description,
		Department:     department,
		Location:       location,
		WorkType:       ClassifyWorkType(nil, lj.WorkplaceType, location),
		EmploymentType: ClassifyEmployment(lj.Categories.Commitment),
		ApplyURL:       applyURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderLever,
		ExternalID:     model.ExternalID(model.ProviderLever, lj.ID),
	}
	if lj.SalaryRange != nil {
		job.Salary = salaryFrom(lj.SalaryRange.Min, lj.SalaryRange.Max, lj.SalaryRange.Currency)
	}
	return job
}
