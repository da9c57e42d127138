package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/atsprobe/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	external_id     TEXT NOT NULL,
	company_domain  TEXT NOT NULL,
	source          TEXT NOT NULL,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	department      TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	work_type       TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT '',
	apply_url       TEXT NOT NULL DEFAULT '',
	salary_min      DOUBLE PRECISION,
	salary_max      DOUBLE PRECISION,
	salary_currency TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	first_seen      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (company_domain, external_id)
);
CREATE INDEX IF NOT EXISTS idx_jobs_company_source ON jobs (company_domain, source, status);

CREATE TABLE IF NOT EXISTS provider_accounts (
	company_domain  TEXT PRIMARY KEY,
	provider        TEXT NOT NULL,
	slug            TEXT NOT NULL,
	job_count       INTEGER NOT NULL DEFAULT 0,
	last_checked_at TIMESTAMPTZ NOT NULL,
	last_synced_at  TIMESTAMPTZ NOT NULL
);`

// PostgresStore persists jobs and provider accounts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var (
	_ model.JobStore     = (*PostgresStore)(nil)
	_ model.AccountCache = (*PostgresStore)(nil)
)

// NewPostgresStore connects to databaseURL, verifies the connection and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating postgres schema: %w", err)
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// ActiveJobs returns postings for (companyDomain, source) currently marked active.
func (s *PostgresStore) ActiveJobs(ctx context.Context, companyDomain string, source model.Provider) ([]model.StoredJob, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE company_domain = $1 AND source = $2 AND status = $3 ORDER BY external_id",
		companyDomain, string(source), string(model.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("listing active jobs for %s/%s: %w", companyDomain, source, err)
	}
	return collectJobs(rows)
}

// ListJobs returns all postings for a domain regardless of status.
func (s *PostgresStore) ListJobs(ctx context.Context, companyDomain string) ([]model.StoredJob, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE company_domain = $1 ORDER BY source, external_id",
		companyDomain)
	if err != nil {
		return nil, fmt.Errorf("listing jobs for %s: %w", companyDomain, err)
	}
	return collectJobs(rows)
}

// UpsertJob inserts or updates a posting by company and external id. The existing row is
// locked for the duration of the transaction.
func (s *PostgresStore) UpsertJob(ctx context.Context, job model.CanonicalJob) (model.UpsertResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("upserting job %s: %w", job.ExternalID, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE company_domain = $1 AND external_id = $2 FOR UPDATE",
		job.CompanyDomain, job.ExternalID)
	existing, err := scanJob(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return model.UpsertResult{}, fmt.Errorf("reading job %s: %w", job.ExternalID, err)
	}

	var result model.UpsertResult
	now := s.now()
	salMin, salMax, currency := salaryColumns(job.Salary)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// A concurrent insert of the same posting wins; this one only reasserts its status.
		_, err = tx.Exec(ctx, `INSERT INTO jobs (`+jobColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (company_domain, external_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
			job.ExternalID, job.CompanyDomain, string(job.Source), job.Title, job.Description,
			job.Department, job.Location, string(job.WorkType), string(job.EmploymentType),
			job.ApplyURL, salMin, salMax, currency, string(model.StatusActive), now)
		result.Created = true
	case needsUpdate(existing, job):
		_, err = tx.Exec(ctx, `UPDATE jobs SET title = $1, description = $2,
			department = $3, location = $4, work_type = $5, employment_type = $6, apply_url = $7,
			salary_min = $8, salary_max = $9, salary_currency = $10, status = $11, updated_at = $12
			WHERE company_domain = $13 AND external_id = $14`,
			job.Title, job.Description, job.Department, job.Location,
			string(job.WorkType), string(job.EmploymentType), job.ApplyURL, salMin, salMax, currency,
			string(model.StatusActive), now, job.CompanyDomain, job.ExternalID)
		result.Updated = true
	default:
		return result, nil
	}
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("writing job %s: %w", job.ExternalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.UpsertResult{}, fmt.Errorf("committing job %s: %w", job.ExternalID, err)
	}
	return result, nil
}

// CloseJobs marks the given active postings closed in a single statement and
// returns how many flipped.
func (s *PostgresStore) CloseJobs(ctx context.Context, companyDomain string, source model.Provider, externalIDs []string) (int, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, updated_at = $2
		 WHERE company_domain = $3 AND source = $4 AND status = $5 AND external_id = ANY($6)`,
		string(model.StatusClosed), s.now(), companyDomain, string(source), string(model.StatusActive), externalIDs)
	if err != nil {
		return 0, fmt.Errorf("closing jobs for %s/%s: %w", companyDomain, source, err)
	}
	return int(tag.RowsAffected()), nil
}

// PruneClosed deletes closed postings that have not changed for longer than olderThan.
func (s *PostgresStore) PruneClosed(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM jobs WHERE status = $1 AND updated_at < $2",
		string(model.StatusClosed), s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("pruning closed jobs older than %v: %w", olderThan, err)
	}
	return int(tag.RowsAffected()), nil
}

// GetAccount returns the cached account for a domain, or nil when there is none.
func (s *PostgresStore) GetAccount(ctx context.Context, companyDomain string) (*model.ProviderAccount, error) {
	var a model.ProviderAccount
	var provider string
	err := s.pool.QueryRow(ctx,
		`SELECT company_domain, provider, slug, job_count, last_checked_at, last_synced_at
		 FROM provider_accounts WHERE company_domain = $1`, companyDomain,
	).Scan(&a.CompanyDomain, &provider, &a.Slug, &a.JobCount, &a.LastCheckedAt, &a.LastSyncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account for %s: %w", companyDomain, err)
	}
	a.Provider = model.Provider(provider)
	return &a, nil
}

// PutAccount inserts or replaces the cached account for its domain.
func (s *PostgresStore) PutAccount(ctx context.Context, a model.ProviderAccount) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO provider_accounts (company_domain, provider, slug, job_count, last_checked_at, last_synced_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (company_domain) DO UPDATE SET
			provider = EXCLUDED.provider, slug = EXCLUDED.slug, job_count = EXCLUDED.job_count,
			last_checked_at = EXCLUDED.last_checked_at, last_synced_at = EXCLUDED.last_synced_at`,
		a.CompanyDomain, string(a.Provider), a.Slug, a.JobCount, a.LastCheckedAt, a.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("saving account for %s: %w", a.CompanyDomain, err)
	}
	return nil
}

// ListAccounts returns every cached account ordered by domain.
func (s *PostgresStore) ListAccounts(ctx context.Context) ([]model.ProviderAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_domain, provider, slug, job_count, last_checked_at, last_synced_at
		 FROM provider_accounts ORDER BY company_domain`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.ProviderAccount
	for rows.Next() {
		var a model.ProviderAccount
		var provider string
		if err := rows.Scan(&a.CompanyDomain, &provider, &a.Slug, &a.JobCount, &a.LastCheckedAt, &a.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.Provider = model.Provider(provider)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func collectJobs(rows pgx.Rows) ([]model.StoredJob, error) {
	defer rows.Close()
	var jobs []model.StoredJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
