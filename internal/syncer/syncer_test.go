package syncer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
	"github.com/amishk599/atsprobe/internal/store"
)

// memStore is an in-memory JobStore keyed like the SQL stores, by company and external id.
type memStore struct {
	mu        sync.Mutex
	jobs      map[string]model.StoredJob
	upsertErr error
	closeErr  error
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]model.StoredJob)}
}

func memKey(companyDomain, externalID string) string {
	return companyDomain + "|" + externalID
}

func (m *memStore) ActiveJobs(ctx context.Context, companyDomain string, source model.Provider) ([]model.StoredJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StoredJob
	for _, j := range m.jobs {
		if j.CompanyDomain == companyDomain && j.Source == source && j.Status == model.StatusActive {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ExternalID < out[b].ExternalID })
	return out, nil
}

func (m *memStore) UpsertJob(ctx context.Context, job model.CanonicalJob) (model.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return model.UpsertResult{}, m.upsertErr
	}
	key := memKey(job.CompanyDomain, job.ExternalID)
	existing, ok := m.jobs[key]
	m.jobs[key] = model.StoredJob{CanonicalJob: job, Status: model.StatusActive}
	switch {
	case !ok:
		return model.UpsertResult{Created: true}, nil
	case existing.Status != model.StatusActive || existing.Title != job.Title ||
		existing.Location != job.Location || existing.Department != job.Department ||
		existing.WorkType != job.WorkType || existing.ApplyURL != job.ApplyURL:
		return model.UpsertResult{Updated: true}, nil
	}
	return model.UpsertResult{}, nil
}

func (m *memStore) CloseJobs(ctx context.Context, companyDomain string, source model.Provider, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closeErr != nil {
		return 0, m.closeErr
	}
	n := 0
	for _, id := range ids {
		j, ok := m.jobs[memKey(companyDomain, id)]
		if ok && j.CompanyDomain == companyDomain && j.Source == source && j.Status == model.StatusActive {
			j.Status = model.StatusClosed
			m.jobs[memKey(companyDomain, id)] = j
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListJobs(ctx context.Context, companyDomain string) ([]model.StoredJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StoredJob
	for _, j := range m.jobs {
		if j.CompanyDomain == companyDomain {
			out = append(out, j)
		}
	}
	return out, nil
}

func job(id, title string) model.CanonicalJob {
	return model.CanonicalJob{
		Title:          title,
		Location:       "Remote",
		WorkType:       model.WorkRemote,
		EmploymentType: model.FullTime,
		ApplyURL:       "https://jobs.lever.co/acme/" + id,
		CompanyDomain:  "acme.com",
		Source:         model.ProviderLever,
		ExternalID:     model.ExternalID(model.ProviderLever, id),
	}
}

func TestSync_CreatedUpdatedDeactivated(t *testing.T) {
	for _, tc := range []struct {
		name  string
		store func(t *testing.T) model.JobStore
	}{
		{"memory", func(t *testing.T) model.JobStore { return newMemStore() }},
		{"sqlite", func(t *testing.T) model.JobStore {
			s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "sync.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			js := tc.store(t)
			e := New(js, nil)

			// Four active postings, three of which change and one of which vanishes.
			var initial []model.CanonicalJob
			for i := 1; i <= 4; i++ {
				initial = append(initial, job(fmt.Sprint(i), fmt.Sprintf("Engineer %d", i)))
			}
			if _, err := e.Sync(ctx, "acme.com", model.ProviderLever, initial); err != nil {
				t.Fatalf("initial sync: %v", err)
			}

			fresh := []model.CanonicalJob{
				job("1", "Senior Engineer 1"),
				job("2", "Senior Engineer 2"),
				job("3", "Senior Engineer 3"),
				job("5", "Engineer 5"),
			}
			delta, err := e.Sync(ctx, "acme.com", model.ProviderLever, fresh)
			if err != nil {
				t.Fatalf("sync: %v", err)
			}
			want := model.SyncDelta{Created: 1, Updated: 3, Deactivated: 1}
			if delta != want {
				t.Errorf("delta = %+v, want %+v", delta, want)
			}

			again, err := e.Sync(ctx, "acme.com", model.ProviderLever, fresh)
			if err != nil {
				t.Fatalf("repeat sync: %v", err)
			}
			if !again.IsZero() {
				t.Errorf("repeat sync delta = %+v, want zero", again)
			}
		})
	}
}

func TestSync_TwoCompaniesSharingANativeID(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "sync.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	e := New(s, nil)

	posting := func(domain, title string) model.CanonicalJob {
		j := job("7", title)
		j.CompanyDomain = domain
		j.Source = model.ProviderBambooHR
		j.ExternalID = model.ExternalID(model.ProviderBambooHR, "7")
		return j
	}
	acme := []model.CanonicalJob{posting("acme.com", "Backend Engineer")}
	globex := []model.CanonicalJob{posting("globex.com", "Sales Manager")}

	for round := 1; round <= 2; round++ {
		da, err := e.Sync(ctx, "acme.com", model.ProviderBambooHR, acme)
		if err != nil {
			t.Fatalf("round %d acme: %v", round, err)
		}
		dg, err := e.Sync(ctx, "globex.com", model.ProviderBambooHR, globex)
		if err != nil {
			t.Fatalf("round %d globex: %v", round, err)
		}
		if round == 2 && (!da.IsZero() || !dg.IsZero()) {
			t.Errorf("second round: acme=%+v globex=%+v, want no changes", da, dg)
		}
	}

	for domain, title := range map[string]string{"acme.com": "Backend Engineer", "globex.com": "Sales Manager"} {
		active, err := s.ActiveJobs(ctx, domain, model.ProviderBambooHR)
		if err != nil {
			t.Fatalf("ActiveJobs(%s): %v", domain, err)
		}
		if len(active) != 1 || active[0].Title != title {
			t.Errorf("%s active = %+v, want its own posting", domain, active)
		}
	}
}

func TestSync_ReappearingPostingIsReactivated(t *testing.T) {
	ctx := context.Background()
	js := newMemStore()
	e := New(js, nil)

	a, b := job("a", "Backend Engineer"), job("b", "Frontend Engineer")
	if _, err := e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{a, b}); err != nil {
		t.Fatal(err)
	}

	delta, err := e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{a})
	if err != nil {
		t.Fatal(err)
	}
	if delta.Deactivated != 1 {
		t.Fatalf("deactivated = %d, want 1", delta.Deactivated)
	}

	// Still gone: nothing closes twice.
	delta, err = e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{a})
	if err != nil {
		t.Fatal(err)
	}
	if !delta.IsZero() {
		t.Errorf("delta = %+v, want zero", delta)
	}

	delta, err = e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if delta.Created != 0 || delta.Updated != 1 {
		t.Errorf("delta = %+v, want b reactivated as an update", delta)
	}
	if got := js.jobs[memKey("acme.com", b.ExternalID)]; got.Status != model.StatusActive {
		t.Errorf("status = %q, want active", got.Status)
	}
}

func TestSync_DuplicateAndMissingIDs(t *testing.T) {
	js := newMemStore()
	e := New(js, nil)

	noID := job("x", "Data Engineer")
	noID.ExternalID = ""
	delta, err := e.Sync(context.Background(), "acme.com", model.ProviderLever, []model.CanonicalJob{
		job("1", "Backend Engineer"),
		job("1", "Backend Engineer (duplicate)"),
		noID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if delta.Created != 1 || delta.Updated != 0 {
		t.Errorf("delta = %+v, want one created", delta)
	}
	if got := js.jobs[memKey("acme.com", model.ExternalID(model.ProviderLever, "1"))].Title; got != "Backend Engineer" {
		t.Errorf("title = %q, want the first occurrence", got)
	}
}

func TestSync_EmptyFetchClosesEverything(t *testing.T) {
	ctx := context.Background()
	js := newMemStore()
	e := New(js, nil)

	if _, err := e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{job("1", "Engineer"), job("2", "Designer")}); err != nil {
		t.Fatal(err)
	}
	delta, err := e.Sync(ctx, "acme.com", model.ProviderLever, nil)
	if err != nil {
		t.Fatal(err)
	}
	if delta.Deactivated != 2 {
		t.Errorf("deactivated = %d, want 2", delta.Deactivated)
	}
}

func TestSync_OtherSourcesUntouched(t *testing.T) {
	ctx := context.Background()
	js := newMemStore()
	e := New(js, nil)

	gh := job("1", "Engineer")
	gh.Source = model.ProviderGreenhouse
	gh.ExternalID = model.ExternalID(model.ProviderGreenhouse, "1")
	if _, err := e.Sync(ctx, "acme.com", model.ProviderGreenhouse, []model.CanonicalJob{gh}); err != nil {
		t.Fatal(err)
	}

	delta, err := e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{job("1", "Engineer")})
	if err != nil {
		t.Fatal(err)
	}
	if delta.Deactivated != 0 {
		t.Errorf("deactivated = %d, want greenhouse postings untouched", delta.Deactivated)
	}
	if js.jobs[memKey("acme.com", gh.ExternalID)].Status != model.StatusActive {
		t.Error("greenhouse posting was closed by a lever sync")
	}
}

func TestSync_UpsertFailureClosesNothing(t *testing.T) {
	ctx := context.Background()
	js := newMemStore()
	e := New(js, nil)

	if _, err := e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{job("1", "Engineer")}); err != nil {
		t.Fatal(err)
	}

	js.upsertErr = errors.New("disk full")
	if _, err := e.Sync(ctx, "acme.com", model.ProviderLever, []model.CanonicalJob{job("2", "Designer")}); err == nil {
		t.Fatal("expected error")
	}
	if js.jobs[memKey("acme.com", model.ExternalID(model.ProviderLever, "1"))].Status != model.StatusActive {
		t.Error("posting closed despite the failed sync")
	}
}
