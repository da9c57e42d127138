package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/atsprobe/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_JobStore(t *testing.T) {
	runJobStoreSuite(t, newTestStore(t))
}

func TestSQLiteStore_AccountCache(t *testing.T) {
	runAccountCacheSuite(t, newTestStore(t))
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if _, err := s.UpsertJob(context.Background(), testJob("9", "Site Reliability Engineer")); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	jobs, err := s.ListJobs(context.Background(), "acme.com")
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("got %d jobs after reopen, want 1", len(jobs))
	}
}

func TestPruneClosedRemovesOldKeepsFresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := testJob("old", "Backend Engineer")
	fresh := testJob("fresh", "Frontend Engineer")
	for _, j := range []model.CanonicalJob{old, fresh} {
		if _, err := s.UpsertJob(ctx, j); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
	}

	// Close the old job as if it happened two days ago.
	realNow := s.now
	s.now = func() time.Time { return realNow().Add(-48 * time.Hour) }
	if _, err := s.CloseJobs(ctx, "acme.com", model.ProviderGreenhouse, []string{old.ExternalID}); err != nil {
		t.Fatalf("CloseJobs old: %v", err)
	}
	s.now = realNow
	if _, err := s.CloseJobs(ctx, "acme.com", model.ProviderGreenhouse, []string{fresh.ExternalID}); err != nil {
		t.Fatalf("CloseJobs fresh: %v", err)
	}

	n, err := s.PruneClosed(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneClosed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d jobs, want 1", n)
	}

	jobs, err := s.ListJobs(ctx, "acme.com")
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ExternalID != fresh.ExternalID {
		t.Errorf("remaining jobs = %+v, want only the fresh one", jobs)
	}
}

func TestNopStore(t *testing.T) {
	s := NewNopStore()
	ctx := context.Background()

	res, err := s.UpsertJob(ctx, testJob("1", "Backend Engineer"))
	if err != nil || !res.Created {
		t.Errorf("UpsertJob = %+v, %v; want created", res, err)
	}
	if acct, err := s.GetAccount(ctx, "acme.com"); err != nil || acct != nil {
		t.Errorf("GetAccount = %+v, %v; want nil", acct, err)
	}
}
