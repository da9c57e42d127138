package adapter

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/amishk599/atsprobe/internal/model"
)

// personioHosts are the feed hosts; accounts live on either TLD.
var personioHosts = []string{"jobs.personio.de", "jobs.personio.com"}

type personioFeed struct {
	XMLName   xml.Name           `xml:"workzag-jobs"`
	Positions []personioPosition `xml:"position"`
}

type personioPosition struct {
	ID                string                `xml:"id"`
	Subcompany        string                `xml:"subcompany"`
	Office            string                `xml:"office"`
	AdditionalOffices []string              `xml:"additionalOffices>office"`
	Department        string                `xml:"department"`
	Name              string                `xml:"name"`
	Descriptions      []personioDescription `xml:"jobDescriptions>jobDescription"`
	EmploymentType    string                `xml:"employmentType"`
	Schedule          string                `xml:"schedule"`
	Keywords          string                `xml:"keywords"`
}

type personioDescription struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

// PersonioAdapter fetches jobs from a Personio XML job feed.
type PersonioAdapter struct {
	base
}

// NewPersonioAdapter creates a new Personio adapter.
func NewPersonioAdapter(opts Options) *PersonioAdapter {
	return &PersonioAdapter{base: newBase(model.ProviderPersonio, opts)}
}

// Probe tries the slug guesses for the domain against both feed hosts.
func (a *PersonioAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	return a.probeSlugs(ctx, companyDomain, SlugGuesses(companyDomain), a.Fetch)
}

// Fetch reads the feed from the first host that serves it.
func (a *PersonioAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	var errs []error
	for _, host := range personioHosts {
		jobs, err := a.fetchFeed(ctx, slug, host, companyDomain)
		if err == nil {
			return jobs, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

func (a *PersonioAdapter) fetchFeed(ctx context.Context, slug, host, companyDomain string) ([]model.CanonicalJob, error) {
	url := fmt.Sprintf("https://%s.%s/xml", slug, host)
	body, err := getBody(ctx, a.client, url, "personio fetch for "+slug)
	if err != nil {
		return nil, err
	}

	// Personio serves an HTML page with status 200 for unknown accounts.
	if !bytes.Contains(body, []byte("<workzag-jobs")) {
		return nil, fmt.Errorf("personio fetch for %s: %s did not return a job feed", slug, host)
	}

	var feed personioFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("personio decode for %s: %w", slug, err)
	}

	jobs := make([]model.CanonicalJob, 0, len(feed.Positions))
	for _, p := range feed.Positions {
		jobs = append(jobs, normalizePersonio(p, slug, host, companyDomain))
	}
	return jobs, nil
}

func normalizePersonio(p personioPosition, slug, host, companyDomain string) model.CanonicalJob {
	offices := append([]string{p.Office}, p.AdditionalOffices...)
	location := html.UnescapeString(joinNonEmpty("; ", offices...))

	var desc strings.Builder
	for _, d := range p.Descriptions {
		if name := strings.TrimSpace(html.UnescapeString(d.Name)); name != "" {
			desc.WriteString("<h3>" + html.EscapeString(name) + "</h3>")
		}
		desc.WriteString(strings.TrimSpace(d.Value))
	}

	// "full-or-part-time" says nothing definite about the schedule.
	employment := p.EmploymentType
	if !strings.EqualFold(p.Schedule, "full-or-part-time") {
		employment += " " + p.Schedule
	}

	return model.CanonicalJob{
		Title:          extractText(p.Name),
		Description:    desc.String(),
		Department:     extractText(p.Department),
		Location:       location,
		WorkType:       ClassifyWorkType(nil, "", location+" "+p.Keywords),
		EmploymentType: ClassifyEmployment(employment),
		ApplyURL:       fmt.Sprintf("https://%s.%s/job/%s", slug, host, p.ID),
		CompanyDomain:  companyDomain,
		Source:         model.ProviderPersonio,
		ExternalID:     model.ExternalID(model.ProviderPersonio, p.ID),
	}
}
