package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/atsprobe/internal/model"
)

const sqliteSchema = `
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
	salary_min      REAL,
	salary_max      REAL,
	salary_currency TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	first_seen      DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL,
	PRIMARY KEY (company_domain, external_id)
);
CREATE INDEX IF NOT EXISTS idx_jobs_company_source ON jobs (company_domain, source, status);

CREATE TABLE IF NOT EXISTS provider_accounts (
	company_domain  TEXT PRIMARY KEY,
	provider        TEXT NOT NULL,
	slug            TEXT NOT NULL,
	job_count       INTEGER NOT NULL DEFAULT 0,
	last_checked_at DATETIME NOT NULL,
	last_synced_at  DATETIME NOT NULL
);`

const jobColumns = `external_id, company_domain, source, title, description, department, location,
	work_type, employment_type, apply_url, salary_min, salary_max, salary_currency, status, updated_at`

// SQLiteStore persists jobs and provider accounts in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ model.JobStore     = (*SQLiteStore)(nil)
	_ model.AccountCache = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs and provider_accounts tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite allows one writer; a single connection serializes upsert transactions.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// ActiveJobs returns postings for (companyDomain, source) currently marked active.
func (s *SQLiteStore) ActiveJobs(ctx context.Context, companyDomain string, source model.Provider) ([]model.StoredJob, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE company_domain = ? AND source = ? AND status = ? ORDER BY external_id",
		companyDomain, string(source), string(model.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("listing active jobs for %s/%s: %w", companyDomain, source, err)
	}
	return scanJobs(rows)
}

// ListJobs returns all postings for a domain regardless of status.
func (s *SQLiteStore) ListJobs(ctx context.Context, companyDomain string) ([]model.StoredJob, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE company_domain = ? ORDER BY source, external_id",
		companyDomain)
	if err != nil {
		return nil, fmt.Errorf("listing jobs for %s: %w", companyDomain, err)
	}
	return scanJobs(rows)
}

// UpsertJob inserts or updates a posting by company and external id inside one
// transaction and forces its status to active.
func (s *SQLiteStore) UpsertJob(ctx context.Context, job model.CanonicalJob) (model.UpsertResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.UpsertResult{}, fmt.Errorf("upserting job %s: %w", job.ExternalID, err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE company_domain = ? AND external_id = ?",
		job.CompanyDomain, job.ExternalID)
	existing, err := scanJob(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.UpsertResult{}, fmt.Errorf("reading job %s: %w", job.ExternalID, err)
	}

	var result model.UpsertResult
	now := s.now()
	salMin, salMax, currency := salaryColumns(job.Salary)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			job.ExternalID, job.CompanyDomain, string(job.Source), job.Title, job.Description,
			job.Department, job.Location, string(job.WorkType), string(job.EmploymentType),
			job.ApplyURL, salMin, salMax, currency, string(model.StatusActive), now)
		result.Created = true
	case needsUpdate(existing, job):
		_, err = tx.ExecContext(ctx, `UPDATE jobs SET title = ?, description = ?,
			department = ?, location = ?, work_type = ?, employment_type = ?, apply_url = ?,
			salary_min = ?, salary_max = ?, salary_currency = ?, status = ?, updated_at = ?
			WHERE company_domain = ? AND external_id = ?`,
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

	if err := tx.Commit(); err != nil {
		return model.UpsertResult{}, fmt.Errorf("committing job %s: %w", job.ExternalID, err)
	}
	return result, nil
}

// CloseJobs marks the given active postings closed in a single statement and
// returns how many flipped.
func (s *SQLiteStore) CloseJobs(ctx context.Context, companyDomain string, source model.Provider, externalIDs []string) (int, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}

	args := []any{string(model.StatusClosed), s.now(), companyDomain, string(source), string(model.StatusActive)}
	for _, id := range externalIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(externalIDs)), ", ")

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ?
		 WHERE company_domain = ? AND source = ? AND status = ? AND external_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("closing jobs for %s/%s: %w", companyDomain, source, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("closing jobs for %s/%s: %w", companyDomain, source, err)
	}
	return int(n), nil
}

// PruneClosed deletes closed postings that have not changed for longer than olderThan.
func (s *SQLiteStore) PruneClosed(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE status = ? AND updated_at < ?", string(model.StatusClosed), cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning closed jobs older than %v: %w", olderThan, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning closed jobs older than %v: %w", olderThan, err)
	}
	return int(n), nil
}

// GetAccount returns the cached account for a domain, or nil when there is none.
func (s *SQLiteStore) GetAccount(ctx context.Context, companyDomain string) (*model.ProviderAccount, error) {
	var a model.ProviderAccount
	var provider string
	err := s.db.QueryRowContext(ctx,
		`SELECT company_domain, provider, slug, job_count, last_checked_at, last_synced_at
		 FROM provider_accounts WHERE company_domain = ?`, companyDomain,
	).Scan(&a.CompanyDomain, &provider, &a.Slug, &a.JobCount, &a.LastCheckedAt, &a.LastSyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account for %s: %w", companyDomain, err)
	}
	a.Provider = model.Provider(provider)
	return &a, nil
}

// PutAccount inserts or replaces the cached account for its domain.
func (s *SQLiteStore) PutAccount(ctx context.Context, a model.ProviderAccount) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO provider_accounts (company_domain, provider, slug, job_count, last_checked_at, last_synced_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(company_domain) DO UPDATE SET
			provider = excluded.provider, slug = excluded.slug, job_count = excluded.job_count,
			last_checked_at = excluded.last_checked_at, last_synced_at = excluded.last_synced_at`,
		a.CompanyDomain, string(a.Provider), a.Slug, a.JobCount, a.LastCheckedAt.UTC(), a.LastSyncedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving account for %s: %w", a.CompanyDomain, err)
	}
	return nil
}

// ListAccounts returns every cached account ordered by domain.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.ProviderAccount, error) {
	rows, err := s.db.QueryContext(ctx,
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

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (model.StoredJob, error) {
	var (
		j                                    model.StoredJob
		source, workType, employment, status string
		salaryMin, salaryMax                 sql.NullFloat64
		currency                             string
	)
	err := row.Scan(&j.ExternalID, &j.CompanyDomain, &source, &j.Title, &j.Description,
		&j.Department, &j.Location, &workType, &employment, &j.ApplyURL,
		&salaryMin, &salaryMax, &currency, &status, &j.UpdatedAt)
	if err != nil {
		return model.StoredJob{}, err
	}
	j.Source = model.Provider(source)
	j.WorkType = model.WorkType(workType)
	j.EmploymentType = model.EmploymentType(employment)
	j.Status = model.JobStatus(status)
	j.Salary = salaryFromColumns(salaryMin, salaryMax, currency)
	return j, nil
}

func scanJobs(rows *sql.Rows) ([]model.StoredJob, error) {
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
