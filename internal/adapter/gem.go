package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const gemBaseURL = "https://api.gem.com/job_board/v0"

type gemJob struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Location       gemLocation     `json:"location"`
	LocationType   string          `json:"location_type"`
	EmploymentType string          `json:"employment_type"`
	Departments    []gemDepartment `json:"departments"`
	AbsoluteURL    string          `json:"absolute_url"`
	Content        string          `json:"content"`
}

type gemLocation struct {
	Name string `json:"name"`
}

type gemDepartment struct {
	Name string `json:"name"`
}

// GemAdapter fetches jobs from the Gem public job board API.
type GemAdapter struct {
	base
}

// NewGemAdapter creates a new Gem adapter.
func NewGemAdapter(opts Options) *GemAdapter {
	return &GemAdapter{base: newBase(model.ProviderGem, opts)}
}

// Probe tries the slug guesses for the domain as board tokens.
func (a *GemAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves all job posts on the board.
func (a *GemAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("%s/%s/job_posts/", gemBaseURL, slug)

	var posts []gemJob
	if err := getJSON(ctx, a.client, url, "gem fetch for "+slug, &posts); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(posts))
	for _, gj := range posts {
		jobs = append(jobs, normalizeGem(gj, companyDomain))
	}
	return jobs, nil
}

func normalizeGem(gj gemJob, companyDomain string) model.CanonicalJob {
	department := ""
	if len(gj.Departments) > 0 {
		department = gj.Departments[0].Name
	}
	return model.CanonicalJob{
		Title:          strings.TrimSpace(gj.Title),
		Description:    gj.Content,
		Department:     department,
		Location:       gj.Location.Name,
		WorkType:       ClassifyWorkType(nil, gj.LocationType, gj.Location.Name),
		EmploymentType: ClassifyEmployment(gj.EmploymentType),
		ApplyURL:       gj.AbsoluteURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderGem,
		ExternalID:     model.ExternalID(model.ProviderGem, gj.ID),
	}
}
