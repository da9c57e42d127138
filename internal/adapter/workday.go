package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/atsprobe/internal/model"
)

const (
	workdayPageSize = 20
	// workdayMaxPostings stops pagination on very large tenants.
	workdayMaxPostings = 500
	// workdayMaxGuesses caps guessed tenant/datacenter/site combinations per domain.
	workdayMaxGuesses = 96
	// workdayConcurrency bounds in-flight guesses within one datacenter.
	workdayConcurrency = 6
)

// workdayDatacenters are tried in order; most public tenants live on these.
var workdayDatacenters = []string{"wd1", "wd3", "wd5", "wd12"}

// workdaySiteNames are common career site names appended to guessed tenants.
var workdaySiteNames = []string{"External", "Careers", "careers", "External_Careers"}

// workdaySiteRegex finds a Workday career site URL on a careers page, e.g.
// https://acme.wd5.myworkdayjobs.com/en-US/AcmeCareers.
var workdaySiteRegex = regexp.MustCompile(`(?i)https?://([a-z0-9-]+)\.(wd\d+)\.myworkdayjobs\.com/(?:[a-z]{2}-[a-z]{2}/)?([a-z0-9_-]+)`)

var ambiguousLocationRegex = regexp.MustCompile(`^\d+ Locations?$`)

// workdayListingResponse is the response from the Workday jobs listing endpoint.
type workdayListingResponse struct {
	Total       int              `json:"total"`
	JobPostings []workdayListing `json:"jobPostings"`
}

type workdayListing struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	RemoteType    string   `json:"remoteType"`
	BulletFields  []string `json:"bulletFields"`
}

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// workdaySite identifies one career site. Slugs are stored as "tenant.dc/site".
type workdaySite struct {
	Tenant     string
	Datacenter string
	Site       string
}

func (s workdaySite) slug() string {
	return s.Tenant + "." + s.Datacenter + "/" + s.Site
}

func (s workdaySite) host() string {
	return s.Tenant + "." + s.Datacenter + ".myworkdayjobs.com"
}

func parseWorkdaySlug(slug string) (workdaySite, error) {
	hostPart, site, ok := strings.Cut(slug, "/")
	if !ok || site == "" {
		return workdaySite{}, fmt.Errorf("workday slug %q: want tenant.dc/site", slug)
	}
	tenant, dc, ok := strings.Cut(hostPart, ".")
	if !ok || tenant == "" || dc == "" {
		return workdaySite{}, fmt.Errorf("workday slug %q: want tenant.dc/site", slug)
	}
	return workdaySite{Tenant: tenant, Datacenter: dc, Site: site}, nil
}

// WorkdayAdapter fetches jobs from Workday career sites. Unlike the other
// providers a Workday account is three coordinates (tenant, datacenter and
// site name), so probing searches a grid of guesses.
type WorkdayAdapter struct {
	base
}

// NewWorkdayAdapter creates a new Workday adapter.
func NewWorkdayAdapter(opts Options) *WorkdayAdapter {
	return &WorkdayAdapter{base: newBase(model.ProviderWorkday, opts)}
}

// Probe first looks for a Workday link on the company's careers pages, then
// searches datacenters in order. Within a datacenter guesses run concurrently
// and the first hit cancels the rest.
func (a *WorkdayAdapter) Probe(ctx context.Context, companyDomain string) (*model.DiscoveryResult, bool) {
	var result *model.DiscoveryResult
	a.scanCareersPages(ctx, companyDomain, func(page careersPage) bool {
		slugs := workdaySlugsFromPage(page.Haystack)
		if len(slugs) == 0 {
			return false
		}
		res, ok := a.probeSlugs(ctx, companyDomain, slugs, a.Fetch)
		if ok {
			result = res
		}
		return ok
	})
	if result != nil {
		return result, true
	}

	remaining := workdayMaxGuesses
	for _, dc := range workdayDatacenters {
		if remaining <= 0 || ctx.Err() != nil {
			break
		}
		sites := workdayGuesses(companyDomain, dc)
		if len(sites) > remaining {
			sites = sites[:remaining]
		}
		remaining -= len(sites)

		if res, ok := a.probeDatacenter(ctx, companyDomain, sites); ok {
			return res, true
		}
	}
	return nil, false
}

func (a *WorkdayAdapter) probeDatacenter(ctx context.Context, companyDomain string, sites []workdaySite) (*model.DiscoveryResult, bool) {
	dcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		result *model.DiscoveryResult
	)

	g := new(errgroup.Group)
	g.SetLimit(workdayConcurrency)
	for _, site := range sites {
		g.Go(func() error {
			if dcCtx.Err() != nil {
				return nil
			}
			res, ok := a.probeSlugs(dcCtx, companyDomain, []string{site.slug()}, a.Fetch)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if result == nil {
				result = res
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()

	return result, result != nil
}

// workdayTenantGuesses is how many slug guesses are tried as tenant names.
const workdayTenantGuesses = 3

// workdayGuesses builds tenant × site combinations for one datacenter.
func workdayGuesses(companyDomain, dc string) []workdaySite {
	tenants := SlugGuesses(companyDomain)
	if len(tenants) > workdayTenantGuesses {
		tenants = tenants[:workdayTenantGuesses]
	}

	var sites []workdaySite
	for _, tenant := range tenants {
		names := append([]string{}, workdaySiteNames...)
		names = append(names, tenant, tenant+"_Careers")
		for _, name := range names {
			sites = append(sites, workdaySite{Tenant: tenant, Datacenter: dc, Site: name})
		}
	}
	return sites
}

func workdaySlugsFromPage(haystack string) []string {
	seen := make(map[string]bool)
	var slugs []string
	for _, m := range workdaySiteRegex.FindAllStringSubmatch(haystack, -1) {
		s := workdaySite{Tenant: strings.ToLower(m[1]), Datacenter: strings.ToLower(m[2]), Site: m[3]}.slug()
		if !seen[s] {
			seen[s] = true
			slugs = append(slugs, s)
		}
	}
	return slugs
}

// Fetch pages through the site's listings up to the posting ceiling.
func (a *WorkdayAdapter) Fetch(ctx context.Context, slug, companyDomain string) ([]model.CanonicalJob, error) {
	site, err := parseWorkdaySlug(slug)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/wday/cxs/%s/%s/jobs", site.host(), site.Tenant, site.Site)

	var jobs []model.CanonicalJob
	offset := 0
	for offset < workdayMaxPostings {
		body := workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
			SearchText:    "",
		}

		var listResp workdayListingResponse
		if err := postJSON(ctx, a.client, url, "workday listing fetch for "+slug, body, &listResp); err != nil {
			return nil, err
		}

		for _, l := range listResp.JobPostings {
			jobs = append(jobs, normalizeWorkday(l, site, companyDomain))
		}

		offset += workdayPageSize
		if len(listResp.JobPostings) == 0 || offset >= listResp.Total {
			break
		}
	}

	return jobs, nil
}

func normalizeWorkday(l workdayListing, site workdaySite, companyDomain string) model.CanonicalJob {
	// "2 Locations" carries no place; leave the location blank rather than store it.
	location := l.LocationsText
	if isAmbiguousLocation(location) {
		location = ""
	}

	return model.CanonicalJob{
		Title:          strings.TrimSpace(l.Title),
		Location:       location,
		WorkType:       ClassifyWorkType(nil, l.RemoteType, location),
		EmploymentType: ClassifyEmployment(strings.Join(l.BulletFields, " ")),
		ApplyURL:       "https://" + site.host() + "/" + site.Site + l.ExternalPath,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderWorkday,
		ExternalID:     model.ExternalID(model.ProviderWorkday, site.Tenant+l.ExternalPath),
	}
}

// isAmbiguousLocation returns true for Workday location strings like
// "2 Locations" or "5 Locations" where the actual location is unknown.
func isAmbiguousLocation(loc string) bool {
	return ambiguousLocationRegex.MatchString(loc)
}
