package adapter

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/amishk599/atsprobe/internal/model"
)

// teamtailorJobIDRegex pulls the numeric id out of a job URL such as
// https://acme.teamtailor.com/jobs/123456-backend-engineer.
var teamtailorJobIDRegex = regexp.MustCompile(`/jobs/(\d+)`)

// TeamtailorAdapter reads jobs from a Teamtailor careers site RSS feed.
type TeamtailorAdapter struct {
	base
}

// NewTeamtailorAdapter creates a new Teamtailor adapter.
func NewTeamtailorAdapter(opts Options) *TeamtailorAdapter {
	return &TeamtailorAdapter{base: newBase(model.ProviderTeamtailor, opts)}
}

// Probe tries the slug guesses for the domain as careers subdomains.
func (a *TeamtailorAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch parses the jobs feed for the subdomain.
func (a *TeamtailorAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("https://%s.teamtailor.com/jobs.rss", slug)
	body, err := getBody(ctx, a.client, url, "teamtailor fetch for "+slug)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("teamtailor decode for %s: %w", slug, err)
	}

	jobs := make([]model.CanonicalJob, 0, len(feed.Items))
	for _, item := range feed.Items {
		jobs = append(jobs, normalizeTeamtailor(item, companyDomain))
	}
	return jobs, nil
}

func normalizeTeamtailor(item *gofeed.Item, companyDomain string) model.CanonicalJob {
	tt := item.Extensions["tt"]

	var locations []string
	for _, group := range tt["locations"] {
		for _, loc := range group.Children["location"] {
			city := extValue(loc.Children, "city")
			country := extValue(loc.Children, "country")
			name := joinNonEmpty(", ", city, country)
			if name == "" {
				name = extValue(loc.Children, "name")
			}
			if name != "" {
				locations = append(locations, name)
			}
		}
	}
	location := strings.Join(locations, "; ")

	nativeID := item.GUID
	if m := teamtailorJobIDRegex.FindStringSubmatch(item.Link); m != nil {
		nativeID = m[1]
	}
	if nativeID == "" {
		nativeID = item.Link
	}

	description := item.Content
	if description == "" {
		description = item.Description
	}

	title := strings.TrimSpace(item.Title)
	return model.CanonicalJob{
		Title:          title,
		Description:    description,
		Department:     extValue(tt, "department"),
		Location:       location,
		WorkType:       ClassifyWorkType(nil, extValue(tt, "remoteStatus"), location),
		EmploymentType: ClassifyTitleEmployment(title),
		ApplyURL:       item.Link,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderTeamtailor,
		ExternalID:     model.ExternalID(model.ProviderTeamtailor, nativeID),
	}
}

// extValue returns the trimmed text of the first extension element with the given name.
func extValue(m map[string][]ext.Extension, name string) string {
	if vals := m[name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0].Value)
	}
	return ""
}
