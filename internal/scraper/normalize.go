package scraper

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/amishk599/atsprobe/internal/adapter"
	"github.com/amishk599/atsprobe/internal/model"
)

// NormalizeRaw turns a scraped listing into a CanonicalJob. Scraped pages
// carry no native id, so the id is derived from the company domain and the
// listing's dedup key: the same listing keeps its id across runs.
func NormalizeRaw(raw model.RawJob, companyDomain string) model.CanonicalJob {
	sum := sha256.Sum256([]byte(companyDomain + "|" + DedupKey(raw.Title, raw.Location)))
	return model.CanonicalJob{
		Title:          collapseSpace(raw.Title),
		Department:     collapseSpace(raw.Department),
		Location:       collapseSpace(raw.Location),
		WorkType:       adapter.ClassifyWorkType(nil, "", raw.Location),
		EmploymentType: adapter.ClassifyTitleEmployment(raw.Title),
		ApplyURL:       raw.URL,
		CompanyDomain:  companyDomain,
		Source:         model.ProviderScraper,
		ExternalID:     model.ExternalID(model.ProviderScraper, hex.EncodeToString(sum[:])[:16]),
	}
}

// NormalizeAll normalizes and dedupes scraped listings for one company.
func NormalizeAll(raws []model.RawJob, companyDomain string) []model.CanonicalJob {
	raws = Dedupe(raws)
	jobs := make([]model.CanonicalJob, 0, len(raws))
	for _, r := range raws {
		jobs = append(jobs, NormalizeRaw(r, companyDomain))
	}
	return jobs
}
