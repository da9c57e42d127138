package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
)

func TestLeverFetch_Success(t *testing.T) {
	payload := `[
		{
			"id": "abc-123",
			"text": "Senior Backend Engineer",
			"description": "<div>Build the platform.</div>",
			"categories": {
				"team": "Platform",
				"department": "Engineering",
				"location": "San Francisco, CA",
				"commitment": "Full-time",
				"allLocations": ["San Francisco, CA", "New York, NY"]
			},
			"workplaceType": "hybrid",
			"hostedUrl": "https://jobs.lever.co/acme/abc-123",
			"applyUrl": "https://jobs.lever.co/acme/abc-123/apply",
			"salaryRange": {"min": 150000, "max": 200000, "currency": "usd", "interval": "per-year-salary"}
		},
		{
			"id": "def-456",
			"text": "Summer Intern",
			"categories": {"team": "Design", "location": "Remote", "commitment": "Intern"},
			"workplaceType": "unspecified",
			"applyUrl": "https://jobs.lever.co/acme/def-456/apply"
		}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/postings/acme" || r.URL.Query().Get("mode") != "json" {
			t.Errorf("unexpected request %s", r.URL)
		}
		jsonHandler(payload)(w, r)
	}))
	defer srv.Close()

	jobs, err := NewLeverAdapter(testOptions(srv)).Fetch(context.Background(), "acme", "acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.ExternalID != "lever:abc-123" {
		t.Errorf("unexpected external id %s", j.ExternalID)
	}
	if j.Location != "San Francisco, CA; New York, NY" {
		t.Errorf("expected allLocations joined, got %s", j.Location)
	}
	if j.Department != "Engineering" {
		t.Errorf("expected department Engineering, got %s", j.Department)
	}
	if j.WorkType != model.WorkHybrid || j.EmploymentType != model.FullTime {
		t.Errorf("unexpected classification %s/%s", j.WorkType, j.EmploymentType)
	}
	if j.ApplyURL != "https://jobs.lever.co/acme/abc-123" {
		t.Errorf("expected hosted URL, got %s", j.ApplyURL)
	}
	if j.Salary == nil || *j.Salary.Min != 150000 || *j.Salary.Max != 200000 || j.Salary.Currency != "USD" {
		t.Errorf("unexpected salary %+v", j.Salary)
	}

	j = jobs[1]
	if j.Department != "Design" {
		t.Errorf("expected team fallback, got %s", j.Department)
	}
	if j.Location != "Remote" || j.WorkType != model.WorkRemote {
		t.Errorf("expected remote from location, got %s/%s", j.Location, j.WorkType)
	}
	if j.EmploymentType != model.Internship {
		t.Errorf("expected internship, got %s", j.EmploymentType)
	}
	if j.ApplyURL != "https://jobs.lever.co/acme/def-456/apply" || j.Salary != nil {
		t.Errorf("unexpected apply url/salary %s %+v", j.ApplyURL, j.Salary)
	}
}

func TestLeverFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error":"Document not found"}`))
	}))
	defer srv.Close()

	_, err := NewLeverAdapter(testOptions(srv)).Fetch(context.Background(), "missing", "missing.com")
	var httpErr *model.HTTPError
	if !isHTTPError(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected HTTPError 404, got %v", err)
	}
}
