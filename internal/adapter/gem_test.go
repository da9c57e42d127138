package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
)

func TestGemFetch_Success(t *testing.T) {
	payload := `[
		{
			"id": "gem-001",
			"title": "Staff Engineer",
			"location": {"name": "New York, NY"},
			"location_type": "in_office",
			"employment_type": "full_time",
			"departments": [{"id": "d1", "name": "Infrastructure"}],
			"absolute_url": "https://jobs.gem.com/retool/gem-001",
			"content": "<p>Scale it.</p>"
		},
		{
			"id": "gem-002",
			"title": "Contract Recruiter",
			"location": {"name": "Anywhere"},
			"location_type": "remote",
			"employment_type": "contract",
			"absolute_url": "https://jobs.gem.com/retool/gem-002"
		}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/job_board/v0/retool/job_posts/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		jsonHandler(payload)(w, r)
	}))
	defer srv.Close()

	jobs, err := NewGemAdapter(testOptions(srv)).Fetch(context.Background(), "retool", "retool.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].WorkType != model.WorkOnsite || jobs[0].Department != "Infrastructure" {
		t.Errorf("unexpected first job %+v", jobs[0])
	}
	if jobs[1].WorkType != model.WorkRemote || jobs[1].EmploymentType != model.Contract {
		t.Errorf("unexpected second job %+v", jobs[1])
	}
	if jobs[1].ExternalID != "gem:gem-002" {
		t.Errorf("unexpected external id %s", jobs[1].ExternalID)
	}
}

func TestGemFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewGemAdapter(testOptions(srv)).Fetch(context.Background(), "fail-co", "fail.co")
	var httpErr *model.HTTPError
	if !isHTTPError(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected HTTPError with status 500, got: %v", err)
	}
}
