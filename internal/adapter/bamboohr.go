package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

type bambooHRJob struct {
	ID                    flexString       `json:"id"`
	JobOpeningName        string           `json:"jobOpeningName"`
	DepartmentLabel       string           `json:"departmentLabel"`
	EmploymentStatusLabel string           `json:"employmentStatusLabel"`
	Location              bambooHRLocation `json:"location"`
	ATSLocation           bambooHRLocation `json:"atsLocation"`
	IsRemote              *bool            `json:"isRemote"`
	LocationType          flexString       `json:"locationType"`
}

type bambooHRLocation struct {
	City     string `json:"city"`
	State    string `json:"state"`
	Province string `json:"province"`
	Country  string `json:"country"`
}

func (l bambooHRLocation) String() string {
	region := l.State
	if region == "" {
		region = l.Province
	}
	return joinNonEmpty(", ", l.City, region, l.Country)
}

type bambooHRResponse struct {
	Result []bambooHRJob `json:"result"`
}

// bambooHRLocationTypes maps BambooHR's numeric location type onto workplace text.
var bambooHRLocationTypes = map[string]string{
	"0": "onsite",
	"1": "remote",
	"2": "hybrid",
}

// BambooHRAdapter fetches jobs from a BambooHR careers site.
type BambooHRAdapter struct {
	base
}

// NewBambooHRAdapter creates a new BambooHR adapter.
func NewBambooHRAdapter(opts Options) *BambooHRAdapter {
	return &BambooHRAdapter{base: newBase(model.ProviderBambooHR, opts)}
}

// Probe tries the slug guesses for the domain as BambooHR subdomains.
func (a *BambooHRAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves the open positions listed on the careers site.
func (a *BambooHRAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("https://%s.bamboohr.com/careers/list", slug)

	var resp bambooHRResponse
	if err := getJSON(ctx, a.client, url, "bamboohr fetch for "+slug, &resp); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(resp.Result))
	for _, bj := range resp.Result {
		jobs = append(jobs, normalizeBambooHR(bj, slug, companyDomain))
	}
	return jobs, nil
}

func normalizeBambooHR(bj bambooHRJob, slug, companyDomain string) model.CanonicalJob {
	location := bj.ATSLocation.String()
	if location == "" {
		location = bj.Location.String()
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(bj.JobOpeningName),
		Department:     bj.DepartmentLabel,
		Location:       location,
		WorkType:       ClassifyWorkType(bj.IsRemote, bambooHRLocationTypes[string(bj.LocationType)], location),
		EmploymentType: ClassifyEmployment(bj.EmploymentStatusLabel),
		ApplyURL:       fmt.Sprintf("https://%s.bamboohr.com/careers/%s", slug, bj.ID),
		CompanyDomain:  companyDomain,
		Source:         model.ProviderBambooHR,
		ExternalID:     model.ExternalID(model.ProviderBambooHR, slug+"/"+string(bj.ID)),
	}
}
