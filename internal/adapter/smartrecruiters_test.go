package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
)

func TestSmartRecruitersFetch_Paginates(t *testing.T) {
	const total = 150
	var requests atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/v1/companies/acme/postings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		var content []string
		for i := offset; i < total && i < offset+limit; i++ {
			content = append(content, fmt.Sprintf(`{
				"id": "%d",
				"name": "Engineer %d",
				"company": {"identifier": "Acme1", "name": "Acme"},
				"location": {"city": "Austin", "region": "TX", "country": "us", "remote": false, "hybrid": true},
				"department": {"id": "1", "label": "R&D"},
				"typeOfEmployment": {"id": "permanent", "label": "Full-time"}
			}`, i, i))
		}
		body := fmt.Sprintf(`{"offset": %d, "limit": %d, "totalFound": %d, "content": [%s]}`,
			offset, limit, total, joinNonEmpty(",", content...))
		jsonHandler(body)(w, r)
	}))
	defer srv.Close()

	jobs, err := NewSmartRecruitersAdapter(testOptions(srv)).Fetch(context.Background(), "acme", "acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != total {
		t.Fatalf("expected %d jobs, got %d", total, len(jobs))
	}
	if n := requests.Load(); n != 2 {
		t.Errorf("expected 2 page requests, got %d", n)
	}

	j := jobs[0]
	if j.Location != "Austin, TX, US" {
		t.Errorf("unexpected location %q", j.Location)
	}
	if j.WorkType != model.WorkHybrid || j.Department != "R&D" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.ApplyURL != "https://jobs.smartrecruiters.com/Acme1/0" {
		t.Errorf("unexpected apply url %s", j.ApplyURL)
	}
}

func TestSmartRecruitersFetch_UnknownCompanyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"offset": 0, "limit": 100, "totalFound": 0, "content": []}`))
	defer srv.Close()

	a := NewSmartRecruitersAdapter(testOptions(srv))
	if _, ok := a.Probe(context.Background(), "nobody.com"); ok {
		t.Fatal("empty postings must not count as a probe hit")
	}
}
