package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amishk599/atsprobe/internal/filter"
	"github.com/amishk599/atsprobe/internal/model"
)

// minTitleMatchFraction is the share of titles that must read like job
// titles before a result set is believed.
const minTitleMatchFraction = 0.25

var errNoJobs = errors.New("no jobs found")

// validate dedupes jobs and rejects sets whose titles mostly do not look like
// job titles.
func validate(jobs []model.RawJob) ([]model.RawJob, error) {
	jobs = Dedupe(jobs)
	if len(jobs) == 0 {
		return nil, errNoJobs
	}

	titles := make([]string, len(jobs))
	for i, j := range jobs {
		titles[i] = j.Title
	}
	if frac := filter.JobTitles.MatchFraction(titles); frac < minTitleMatchFraction {
		return nil, fmt.Errorf("only %.0f%% of %d titles look like jobs", frac*100, len(jobs))
	}
	return jobs, nil
}

// DedupKey is the identity of a scraped listing: its title and location,
// lowercased with whitespace collapsed.
func DedupKey(title, location string) string {
	return strings.ToLower(collapseSpace(title)) + "|" + strings.ToLower(collapseSpace(location))
}

// Dedupe drops jobs whose DedupKey was already seen. The first occurrence wins.
func Dedupe(jobs []model.RawJob) []model.RawJob {
	seen := make(map[string]bool, len(jobs))
	out := make([]model.RawJob, 0, len(jobs))
	for _, j := range jobs {
		if strings.TrimSpace(j.Title) == "" {
			continue
		}
		key := DedupKey(j.Title, j.Location)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, j)
	}
	return out
}
