package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const ashbyBaseURL = "https://api.ashbyhq.com/posting-api/job-board"

// ashbyJob represents a single job in the Ashby API response.
type ashbyJob struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Department      string             `json:"department"`
	Team            string             `json:"team"`
	EmploymentType  string             `json:"employmentType"`
	Location        string             `json:"location"`
	IsRemote        bool               `json:"isRemote"`
	WorkplaceType   string             `json:"workplaceType"`
	IsListed        bool               `json:"isListed"`
	DescriptionHTML string             `json:"descriptionHtml"`
	JobURL          string             `json:"jobUrl"`
	ApplyURL        string             `json:"applyUrl"`
	Compensation    *ashbyCompensation `json:"compensation"`
}

type ashbyCompensation struct {
	SummaryComponents []ashbyCompComponent `json:"summaryComponents"`
}

type ashbyCompComponent struct {
	CompensationType string  `json:"compensationType"`
	MinValue         float64 `json:"minValue"`
	MaxValue         float64 `json:"maxValue"`
	CurrencyCode     string  `json:"currencyCode"`
}

// ashbyResponse is the top-level Ashby job board API response.
type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

// AshbyAdapter fetches jobs from the Ashby public job board API.
type AshbyAdapter struct {
	base
}

// NewAshbyAdapter creates a new Ashby adapter.
func NewAshbyAdapter(opts Options) *AshbyAdapter {
	return &AshbyAdapter{base: newBase(model.ProviderAshby, opts)}
}

// Probe tries the slug guesses for the domain as job board names.
func (a *AshbyAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves the listed jobs on the board. Unlisted jobs are skipped.
func (a *AshbyAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("%s/%s?includeCompensation=true", ashbyBaseURL, slug)

	var resp ashbyResponse
	if err := getJSON(ctx, a.client, url, "ashby fetch for "+slug, &resp); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(resp.Jobs))
	for _, aj := range resp.Jobs {
		if !aj.IsListed {
			continue
		}
		jobs = append(jobs, normalizeAshby(aj, companyDomain))
	}
	return jobs, nil
}

func normalizeAshby(aj ashbyJob, companyDomain string) model.CanonicalJob {
	department := aj.Department
	if department == "" {
		department = aj.Team
	}
	applyURL := aj.JobURL
	if applyURL == "" {
		applyURL = aj.ApplyURL
	}

	job := model.CanonicalJob{
		Title:          strings.TrimSpace(aj.Title),
		Description:    aj.DescriptionHTML,
		Department:     department,
		Location:       aj.Location,
		WorkType:       ClassifyWorkType(boolPtr(aj.IsRemote), aj.WorkplaceType, aj.Location),
		EmploymentType: ClassifyEmployment(aj.EmploymentType),
		ApplyURL:       applyURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderAshby,
		ExternalID:     model.ExternalID(model.ProviderAshby, aj.ID),
	}
	if aj.Compensation != nil {
		for _, c := range aj.Compensation.SummaryComponents {
			if strings.EqualFold(c.CompensationType, "Salary") {
				job.Salary = salaryFrom(c.MinValue, c.MaxValue, c.CurrencyCode)
				break
			}
		}
	}
	return job
}
