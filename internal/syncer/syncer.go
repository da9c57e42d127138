// Package syncer reconciles freshly fetched postings against the job store.
package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/amishk599/atsprobe/internal/model"
)

// Engine applies upsert-by-external-id and close-by-absence for one
// (company, source) pair at a time.
type Engine struct {
	store  model.JobStore
	logger *slog.Logger
}

// New creates an Engine over store.
func New(store model.JobStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{store: store, logger: logger}
}

// Sync makes the store's active postings for (companyDomain, source) match
// jobs. Every fresh posting is upserted and forced active; every previously
// active posting missing from jobs is closed. Running Sync twice with the
// same input changes nothing the second time.
//
// An upsert failure stops the sync before anything is closed, so a partial
// write never deactivates postings that were merely not reached.
func (e *Engine) Sync(ctx context.Context, companyDomain string, source model.Provider, jobs []model.CanonicalJob) (model.SyncDelta, error) {
	var delta model.SyncDelta

	active, err := e.store.ActiveJobs(ctx, companyDomain, source)
	if err != nil {
		return delta, fmt.Errorf("sync %s/%s: %w", companyDomain, source, err)
	}

	fresh := make(map[string]bool, len(jobs))
	for _, job := range jobs {
		if job.ExternalID == "" {
			e.logger.Warn("skipping job without external id", "domain", companyDomain, "source", source, "title", job.Title)
			continue
		}
		if fresh[job.ExternalID] {
			continue
		}
		fresh[job.ExternalID] = true

		job.CompanyDomain = companyDomain
		job.Source = source
		res, err := e.store.UpsertJob(ctx, job)
		if err != nil {
			return delta, fmt.Errorf("sync %s/%s: %w", companyDomain, source, err)
		}
		switch {
		case res.Created:
			delta.Created++
		case res.Updated:
			delta.Updated++
		}
	}

	var gone []string
	for _, j := range active {
		if !fresh[j.ExternalID] {
			gone = append(gone, j.ExternalID)
		}
	}
	if len(gone) > 0 {
		n, err := e.store.CloseJobs(ctx, companyDomain, source, gone)
		if err != nil {
			return delta, fmt.Errorf("sync %s/%s: %w", companyDomain, source, err)
		}
		delta.Deactivated = n
	}

	e.logger.Debug("sync complete",
		"domain", companyDomain,
		"source", source,
		"fetched", len(jobs),
		"created", delta.Created,
		"updated", delta.Updated,
		"deactivated", delta.Deactivated,
	)
	return delta, nil
}
