package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Location    greenhouseLocation   `json:"location"`
	AbsoluteURL string               `json:"absolute_url"`
	Content     string               `json:"content"`
	Departments []greenhouseNamed    `json:"departments"`
	Metadata    []greenhouseMetadata `json:"metadata"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseNamed struct {
	Name string `json:"name"`
}

// greenhouseMetadata is a custom field. Value is a string, a list or null
// depending on the field type.
type greenhouseMetadata struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func (m greenhouseMetadata) text() string {
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(m.Value, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches jobs from the Greenhouse public boards API.
type GreenhouseAdapter struct {
	base
}

// NewGreenhouseAdapter creates a new Greenhouse adapter.
func NewGreenhouseAdapter(opts Options) *GreenhouseAdapter {
	return &GreenhouseAdapter{base: newBase(model.ProviderGreenhouse, opts)}
}

// Probe tries the slug guesses for the domain as board tokens.
func (a *GreenhouseAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch retrieves all jobs on the board, with content, and normalizes them.
func (a *GreenhouseAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, slug)

	var resp greenhouseResponse
	if err := getJSON(ctx, a.client, url, "greenhouse fetch for "+slug, &resp); err != nil {
		return nil, err
	}

	jobs := make([]model.CanonicalJob, 0, len(resp.Jobs))
	for _, gj := range resp.Jobs {
		jobs = append(jobs, normalizeGreenhouse(gj, companyDomain))
	}
	return jobs, nil
}

func normalizeGreenhouse(gj greenhouseJob, companyDomain string) model.CanonicalJob {
	var employment, workplace string
	for _, m := range gj.Metadata {
		name := strings.ToLower(m.Name)
		switch {
		case strings.Contains(name, "employment") || strings.Contains(name, "job type"):
			employment = m.text()
		case strings.Contains(name, "workplace") || strings.Contains(name, "remote") || strings.Contains(name, "location type"):
			workplace = m.text()
		}
	}

	department := ""
	if len(gj.Departments) > 0 {
		department = gj.Departments[0].Name
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(gj.Title),
		Description:    html.UnescapeString(gj.Content),
		Department:     department,
		Location:       gj.Location.Name,
		WorkType:       ClassifyWorkType(nil, workplace, gj.Location.Name),
		EmploymentType: ClassifyEmployment(employment),
		ApplyURL:       gj.AbsoluteURL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderGreenhouse,
		ExternalID:     model.ExternalID(model.ProviderGreenhouse, strconv.FormatInt(gj.ID, 10)),
	}
}
