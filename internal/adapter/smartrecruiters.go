package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const (
	smartRecruitersBaseURL  = "https://api.smartrecruiters.com/v1/companies"
	smartRecruitersPageSize = 100
	smartRecruitersMaxPages = 10
)

type smartRecruitersPosting struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	Company          smartRecruitersCompany  `json:"company"`
	Location         smartRecruitersLocation `json:"location"`
	Department       smartRecruitersLabel    `json:"department"`
	TypeOfEmployment smartRecruitersLabel    `json:"typeOfEmployment"`
}

type smartRecruitersCompany struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

type smartRecruitersLocation struct {
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	FullLocation string `json:"fullLocation"`
	Remote       bool   `json:"remote"`
	Hybrid       bool   `json:"hybrid"`
}

type smartRecruitersLabel struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type smartRecruitersResponse struct {
	Offset     int                      `json:"offset"`
	Limit      int                      `json:"limit"`
	TotalFound int                      `json:"totalFound"`
	Content    []smartRecruitersPosting `json:"content"`
}

// SmartRecruitersAdapter fetches jobs from the SmartRecruiters public postings API.
type SmartRecruitersAdapter struct {
	base
}

// NewSmartRecruitersAdapter creates a new SmartRecruiters adapter.
func NewSmartRecruitersAdapter(opts Options) *SmartRecruitersAdapter {
	return &SmartRecruitersAdapter{base: newBase(model.ProviderSmartRecruiters, opts)}
}

// Probe tries the slug guesses for the domain as company identifiers.
func (a *SmartRecruitersAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch pages through the company's postings up to a fixed page cap.
func (a *SmartRecruitersAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	var jobs []model.CanonicalJob
	offset := 0

	for page := 0; page < smartRecruitersMaxPages; page++ {
		url := fmt.Sprintf("%s/%s/postings?limit=%d&offset=%d", smartRecruitersBaseURL, slug, smartRecruitersPageSize, offset)

		var resp smartRecruitersResponse
		if err := getJSON(ctx, a.client, url, "smartrecruiters fetch for "+slug, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Content {
			jobs = append(jobs, normalizeSmartRecruiters(p, slug, companyDomain))
		}

		offset += len(resp.Content)
		if len(resp.Content) == 0 || offset >= resp.TotalFound {
			break
		}
	}

	return jobs, nil
}

func normalizeSmartRecruiters(p smartRecruitersPosting, slug, companyDomain string) model.CanonicalJob {
	location := p.Location.FullLocation
	if location == "" {
		location = joinNonEmpty(", ", p.Location.City, p.Location.Region, strings.ToUpper(p.Location.Country))
	}

	workplace := ""
	if p.Location.Hybrid {
		workplace = "hybrid"
	}

	company := p.Company.Identifier
	if company == "" {
		company = slug
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(p.Name),
		Department:     p.Department.Label,
		Location:       location,
		WorkType:       ClassifyWorkType(boolPtr(p.Location.Remote), workplace, location),
		EmploymentType: ClassifyEmployment(p.TypeOfEmployment.Label),
		ApplyURL:       fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", company, p.ID),
		CompanyDomain:  companyDomain,
		Source:         model.ProviderSmartRecruiters,
		ExternalID:     model.ExternalID(model.ProviderSmartRecruiters, p.ID),
	}
}
