package model

import (
	"context"
	"time"
)

// Provider identifies the ATS platform a job came from.
type Provider string

const (
	ProviderGreenhouse      Provider = "greenhouse"
	ProviderLever           Provider = "lever"
	ProviderAshby           Provider = "ashby"
	ProviderGem             Provider = "gem"
	ProviderWorkable        Provider = "workable"
	ProviderSmartRecruiters Provider = "smartrecruiters"
	ProviderRecruitee       Provider = "recruitee"
	ProviderBambooHR        Provider = "bamboohr"
	ProviderPersonio        Provider = "personio"
	ProviderTeamtailor      Provider = "teamtailor"
	ProviderComeet          Provider = "comeet"
	ProviderPaylocity       Provider = "paylocity"
	ProviderWorkday         Provider = "workday"

	// ProviderScraper marks jobs produced by the fallback careers-page scraper.
	ProviderScraper Provider = "scraper"
)

// WorkType describes where the work happens.
type WorkType string

const (
	WorkRemote  WorkType = "remote"
	WorkHybrid  WorkType = "hybrid"
	WorkOnsite  WorkType = "onsite"
	WorkUnknown WorkType = "unknown"
)

// EmploymentType is the canonical employment classification.
type EmploymentType string

const (
	FullTime   EmploymentType = "full_time"
	PartTime   EmploymentType = "part_time"
	Contract   EmploymentType = "contract"
	Internship EmploymentType = "internship"
)

// Salary is an optional pay range. Either bound may be missing.
type Salary struct {
	Min      *float64
	Max      *float64
	Currency string
}

// CanonicalJob is the normalized, provider-agnostic job record every adapter produces.
// Instances are built per fetch cycle and never mutated afterwards.
type CanonicalJob struct {
	Title          string
	Description    string // markup or plain text, best effort
	Department     string
	Location       string
	WorkType       WorkType
	EmploymentType EmploymentType
	ApplyURL       string
	CompanyDomain  string
	Source         Provider
	ExternalID     string // "{provider}:{nativeId}"
	Salary         *Salary
}

// ExternalID builds the globally unique id for a native posting. The same
// provider and native id always yield the same value.
func ExternalID(p Provider, nativeID string) string {
	return string(p) + ":" + nativeID
}

// RawJob is the provider-agnostic output of the fallback scraper. It carries no
// external id or employment classification until normalized.
type RawJob struct {
	Title      string
	Location   string
	Department string
	URL        string
	HTML       string // debug only
}

// DiscoveryResult is the output of one successful probe.
type DiscoveryResult struct {
	Provider Provider
	Slug     string // verified account slug or credential
	JobCount int
	Jobs     []CanonicalJob
}

// ProviderAccount records which provider/slug was last confirmed for a domain.
type ProviderAccount struct {
	CompanyDomain string
	Provider      Provider
	Slug          string
	JobCount      int
	LastCheckedAt time.Time
	LastSyncedAt  time.Time
}

// JobStatus is the persisted lifecycle state of a posting.
type JobStatus string

const (
	StatusActive JobStatus = "active"
	StatusClosed JobStatus = "closed"
)

// StoredJob is a persisted posting as read back from a JobStore.
type StoredJob struct {
	CanonicalJob
	Status    JobStatus
	UpdatedAt time.Time
}

// UpsertResult reports what an upsert did to a single posting.
type UpsertResult struct {
	Created bool
	Updated bool // mutable fields changed or the posting was reactivated
}

// JobStore is the persistence contract consumed by the sync engine.
type JobStore interface {
	// ActiveJobs returns postings for (companyDomain, source) currently marked active.
	ActiveJobs(ctx context.Context, companyDomain string, source Provider) ([]StoredJob, error)
	// UpsertJob inserts or updates by ExternalID and forces the status to active.
	UpsertJob(ctx context.Context, job CanonicalJob) (UpsertResult, error)
	// CloseJobs marks the given postings closed and returns how many flipped.
	CloseJobs(ctx context.Context, companyDomain string, source Provider, externalIDs []string) (int, error)
	// ListJobs returns all postings for a domain regardless of status.
	ListJobs(ctx context.Context, companyDomain string) ([]StoredJob, error)
}

// AccountCache is the persistence contract for confirmed provider accounts.
type AccountCache interface {
	// GetAccount returns nil, nil when the domain has no cached account.
	GetAccount(ctx context.Context, companyDomain string) (*ProviderAccount, error)
	PutAccount(ctx context.Context, account ProviderAccount) error
	ListAccounts(ctx context.Context) ([]ProviderAccount, error)
}
