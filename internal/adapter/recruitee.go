package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

type recruiteeOffer struct {
	ID                 flexString       `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Requirements       string           `json:"requirements"`
	Location           string           `json:"location"`
	City               string           `json:"city"`
	Country            string           `json:"country"`
	Remote             bool             `json:"remote"`
	Hybrid             bool             `json:"hybrid"`
	OnSite             bool             `json:"on_site"`
	Department         string           `json:"department"`
	EmploymentTypeCode string           `json:"employment_type_code"`
	CareersURL         string           `json:"careers_url"`
	CareersApplyURL    string           `json:"careers_apply_url"`
	Salary             *recruiteeSalary `json:"salary"`
}

type recruiteeSalary struct {
	Min      flexFloat `json:"min"`
	Max      flexFloat `json:"max"`
	Currency string    `json:"currency"`
}

type recruiteeResponse struct {
	Offers []recruiteeOffer `json:"offers"`
}

// RecruiteeAdapter fetches jobs from a Recruitee careers site API.
type RecruiteeAdapter struct {
	base
}

// NewRecruiteeAdapter creates a new Recruitee adapter.
func NewRecruiteeAdapter(opts Options) *RecruiteeAdapter {
	return &RecruiteeAdapter{base: newBase(model.ProviderRecruitee, opts)}
}

// Probe tries the slug guesses for the domain as careers subdomains.
func (a *RecruiteeAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves the published offers for the subdomain.
func (a *RecruiteeAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("https://%s.recruitee.com/api/offers/", slug)

	var resp recruiteeResponse
	if err := getJSON(ctx, a.client, url, "recruitee fetch for "+slug, &resp); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		jobs = append(jobs, normalizeRecruitee(o, companyDomain))
	}
	return jobs, nil
}

func normalizeRecruitee(o recruiteeOffer, companyDomain string) model.CanonicalJob {
	location := o.Location
	if location == "" {
		location = joinNonEmpty(", ", o.City, o.Country)
	}

	var workplace string
	switch {
	case o.Hybrid:
		workplace = "hybrid"
	case o.OnSite:
		workplace = "onsite"
	}

	description := o.Description
	if o.Requirements != "" {
		description += o.Requirements
	}

	applyURL := o.CareersURL
	if applyURL == "" {
		applyURL = o.CareersApplyURL
	}

	job := model.CanonicalJob{
		Title:          strings.TrimSpace(o.Title),
		Description:    description,
		Department:     o.Department,
		Location:       location,
		WorkType:       ClassifyWorkType(boolPtr(o.Remote), workplace, location),
		EmploymentType: ClassifyEmployment(o.EmploymentTypeCode),
		ApplyURL:       applyURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderRecruitee,
		ExternalID:     model.ExternalID(model.ProviderRecruitee, string(o.ID)),
	}
	if o.Salary != nil {
		job.Salary = salaryFrom(float64(o.Salary.Min), float64(o.Salary.Max), o.Salary.Currency)
	}
	return job
}
