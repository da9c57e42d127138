package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
)

func TestAshbyFetch_Success(t *testing.T) {
	payload := `{
		"apiVersion": "1",
		"jobs": [
			{
				"id": "a1",
				"title": "Product Designer",
				"department": "Design",
				"employmentType": "PartTime",
				"location": "Berlin",
				"isRemote": true,
				"workplaceType": "OnSite",
				"isListed": true,
				"descriptionHtml": "<p>Design.</p>",
				"jobUrl": "https://jobs.ashbyhq.com/acme/a1",
				"compensation": {
					"summaryComponents": [
						{"compensationType": "EquityPercentage", "minValue": 0.1, "maxValue": 0.2},
						{"compensationType": "Salary", "minValue": 90000, "maxValue": 120000, "currencyCode": "EUR"}
					]
				}
			},
			{
				"id": "a2",
				"title": "Hidden Role",
				"isListed": false
			},
			{
				"id": "a3",
				"title": "Account Executive",
				"team": "Sales",
				"employmentType": "FullTime",
				"location": "London",
				"isRemote": false,
				"workplaceType": "Hybrid",
				"isListed": true,
				"applyUrl": "https://jobs.ashbyhq.com/acme/a3/application"
			}
		]
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("includeCompensation") != "true" {
			t.Errorf("expected includeCompensation=true, got %s", r.URL.RawQuery)
		}
		jsonHandler(payload)(w, r)
	}))
	defer srv.Close()

	jobs, err := NewAshbyAdapter(testOptions(srv)).Fetch(context.Background(), "acme", "acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 listed jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.WorkType != model.WorkRemote {
		t.Errorf("isRemote should beat workplaceType, got %s", j.WorkType)
	}
	if j.EmploymentType != model.PartTime {
		t.Errorf("expected part_time, got %s", j.EmploymentType)
	}
	if j.Salary == nil || *j.Salary.Min != 90000 || j.Salary.Currency != "EUR" {
		t.Errorf("expected salary component, got %+v", j.Salary)
	}
	if j.ExternalID != "ashby:a1" {
		t.Errorf("unexpected external id %s", j.ExternalID)
	}

	j = jobs[1]
	if j.WorkType != model.WorkHybrid || j.Department != "Sales" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.ApplyURL != "https://jobs.ashbyhq.com/acme/a3/application" {
		t.Errorf("expected applyUrl fallback, got %s", j.ApplyURL)
	}
}

func TestAshbyFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewAshbyAdapter(testOptions(srv)).Fetch(context.Background(), "acme", "acme.com")
	var httpErr *model.HTTPError
	if !isHTTPError(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected HTTPError 502, got %v", err)
	}
}
