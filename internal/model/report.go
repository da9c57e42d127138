package model

import "context"

// SyncDelta counts the persistence operations one sync produced.
type SyncDelta struct {
	Created     int
	Updated     int
	Deactivated int
}

// Add accumulates other into d.
func (d *SyncDelta) Add(other SyncDelta) {
	d.Created += other.Created
	d.Updated += other.Updated
	d.Deactivated += other.Deactivated
}

// IsZero reports whether the delta recorded no changes.
func (d SyncDelta) IsZero() bool {
	return d.Created == 0 && d.Updated == 0 && d.Deactivated == 0
}

// CompanyReport is the per-domain outcome of a discovery or sync run.
type CompanyReport struct {
	Domain   string
	Provider Provider // empty when nothing was discovered
	Slug     string
	Fetched  int
	Delta    SyncDelta
	Err      string // non-empty when the company failed outright
}

// BatchReport aggregates a batch invocation.
type BatchReport struct {
	Processed  int
	Discovered int
	Skipped    int // already cached or over the per-run ceiling
	Errors     int
	Totals     SyncDelta
	Companies  []CompanyReport
}

// Notifier delivers a batch summary somewhere a human will see it.
type Notifier interface {
	Notify(ctx context.Context, report BatchReport) error
}
