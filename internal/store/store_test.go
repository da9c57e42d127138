package store

import (
	"context"
	"testing"
	"time"

	"github.com/amishk599/atsprobe/internal/model"
)

func testJob(id, title string) model.CanonicalJob {
	return model.CanonicalJob{
		Title:          title,
		Department:     "Engineering",
		Location:       "Berlin",
		WorkType:       model.WorkHybrid,
		EmploymentType: model.FullTime,
		ApplyURL:       "https://boards.greenhouse.io/acme/jobs/" + id,
		CompanyDomain:  "acme.com",
		Source:         model.ProviderGreenhouse,
		ExternalID:     model.ExternalID(model.ProviderGreenhouse, id),
	}
}

// runJobStoreSuite exercises the JobStore contract against any implementation.
func runJobStoreSuite(t *testing.T, s model.JobStore) {
	ctx := context.Background()

	t.Run("insert then unchanged then update", func(t *testing.T) {
		job := testJob("1", "Backend Engineer")
		lo, hi := 90000.0, 120000.0
		job.Salary = &model.Salary{Min: &lo, Max: &hi, Currency: "EUR"}

		res, err := s.UpsertJob(ctx, job)
		if err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
		if !res.Created || res.Updated {
			t.Errorf("first upsert = %+v, want created", res)
		}

		res, err = s.UpsertJob(ctx, job)
		if err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
		if res.Created || res.Updated {
			t.Errorf("identical upsert = %+v, want no-op", res)
		}

		job.Title = "Senior Backend Engineer"
		res, err = s.UpsertJob(ctx, job)
		if err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
		if res.Created || !res.Updated {
			t.Errorf("changed upsert = %+v, want updated", res)
		}

		active, err := s.ActiveJobs(ctx, "acme.com", model.ProviderGreenhouse)
		if err != nil {
			t.Fatalf("ActiveJobs: %v", err)
		}
		if len(active) != 1 || active[0].Title != "Senior Backend Engineer" {
			t.Fatalf("active = %+v", active)
		}
		if sal := active[0].Salary; sal == nil || *sal.Min != lo || *sal.Max != hi || sal.Currency != "EUR" {
			t.Errorf("salary = %+v", sal)
		}
	})

	t.Run("close once and reactivate", func(t *testing.T) {
		job := testJob("2", "Data Analyst")
		if _, err := s.UpsertJob(ctx, job); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}

		n, err := s.CloseJobs(ctx, "acme.com", model.ProviderGreenhouse, []string{job.ExternalID})
		if err != nil || n != 1 {
			t.Fatalf("CloseJobs = %d, %v; want 1", n, err)
		}
		n, err = s.CloseJobs(ctx, "acme.com", model.ProviderGreenhouse, []string{job.ExternalID})
		if err != nil || n != 0 {
			t.Fatalf("second CloseJobs = %d, %v; want 0", n, err)
		}

		active, err := s.ActiveJobs(ctx, "acme.com", model.ProviderGreenhouse)
		if err != nil {
			t.Fatalf("ActiveJobs: %v", err)
		}
		for _, j := range active {
			if j.ExternalID == job.ExternalID {
				t.Fatal("closed job still listed as active")
			}
		}

		res, err := s.UpsertJob(ctx, job)
		if err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
		if res.Created || !res.Updated {
			t.Errorf("reactivation = %+v, want updated", res)
		}

		all, err := s.ListJobs(ctx, "acme.com")
		if err != nil {
			t.Fatalf("ListJobs: %v", err)
		}
		count := 0
		for _, j := range all {
			if j.ExternalID == job.ExternalID {
				count++
				if j.Status != model.StatusActive {
					t.Errorf("status = %q, want active", j.Status)
				}
			}
		}
		if count != 1 {
			t.Errorf("found %d rows for %s, want 1", count, job.ExternalID)
		}
	})

	t.Run("close is scoped to domain and source", func(t *testing.T) {
		job := testJob("3", "Product Designer")
		if _, err := s.UpsertJob(ctx, job); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
		n, err := s.CloseJobs(ctx, "globex.com", model.ProviderGreenhouse, []string{job.ExternalID})
		if err != nil || n != 0 {
			t.Errorf("CloseJobs other domain = %d, %v; want 0", n, err)
		}
		n, err = s.CloseJobs(ctx, "acme.com", model.ProviderLever, []string{job.ExternalID})
		if err != nil || n != 0 {
			t.Errorf("CloseJobs other source = %d, %v; want 0", n, err)
		}
		if n, err := s.CloseJobs(ctx, "acme.com", model.ProviderGreenhouse, nil); err != nil || n != 0 {
			t.Errorf("CloseJobs empty = %d, %v; want 0", n, err)
		}
	})

	t.Run("same external id at two companies", func(t *testing.T) {
		acme := testJob("4", "Backend Engineer")
		globex := testJob("4", "Sales Manager")
		globex.CompanyDomain = "globex.com"

		for round := 1; round <= 2; round++ {
			for _, job := range []model.CanonicalJob{acme, globex} {
				res, err := s.UpsertJob(ctx, job)
				if err != nil {
					t.Fatalf("UpsertJob: %v", err)
				}
				if round == 2 && (res.Created || res.Updated) {
					t.Errorf("round 2 upsert for %s = %+v, want no-op", job.CompanyDomain, res)
				}
			}
		}

		active, err := s.ActiveJobs(ctx, "globex.com", model.ProviderGreenhouse)
		if err != nil {
			t.Fatalf("ActiveJobs: %v", err)
		}
		if len(active) != 1 || active[0].Title != "Sales Manager" {
			t.Errorf("globex active = %+v", active)
		}
		all, err := s.ListJobs(ctx, "acme.com")
		if err != nil {
			t.Fatalf("ListJobs: %v", err)
		}
		found := false
		for _, j := range all {
			if j.ExternalID == acme.ExternalID {
				found = j.Title == "Backend Engineer" && j.Status == model.StatusActive
			}
		}
		if !found {
			t.Errorf("acme lost its posting %s: %+v", acme.ExternalID, all)
		}
	})
}

// runAccountCacheSuite exercises the AccountCache contract against any implementation.
func runAccountCacheSuite(t *testing.T, c model.AccountCache) {
	ctx := context.Background()

	got, err := c.GetAccount(ctx, "acme.com")
	if err != nil || got != nil {
		t.Fatalf("GetAccount on empty cache = %+v, %v; want nil, nil", got, err)
	}

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acct := model.ProviderAccount{
		CompanyDomain: "acme.com",
		Provider:      model.ProviderLever,
		Slug:          "acme",
		JobCount:      12,
		LastCheckedAt: checked,
		LastSyncedAt:  checked,
	}
	if err := c.PutAccount(ctx, acct); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}

	acct.Slug = "acme-inc"
	acct.JobCount = 14
	if err := c.PutAccount(ctx, acct); err != nil {
		t.Fatalf("PutAccount overwrite: %v", err)
	}
	if err := c.PutAccount(ctx, model.ProviderAccount{CompanyDomain: "beta.io", Provider: model.ProviderAshby, Slug: "beta", LastCheckedAt: checked, LastSyncedAt: checked}); err != nil {
		t.Fatalf("PutAccount second: %v", err)
	}

	got, err = c.GetAccount(ctx, "acme.com")
	if err != nil || got == nil {
		t.Fatalf("GetAccount = %+v, %v", got, err)
	}
	if got.Provider != model.ProviderLever || got.Slug != "acme-inc" || got.JobCount != 14 {
		t.Errorf("account = %+v", got)
	}
	if !got.LastCheckedAt.Equal(checked) {
		t.Errorf("last checked = %v, want %v", got.LastCheckedAt, checked)
	}

	all, err := c.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(all) != 2 || all[0].CompanyDomain != "acme.com" || all[1].CompanyDomain != "beta.io" {
		t.Errorf("accounts = %+v", all)
	}
}
