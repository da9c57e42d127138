package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
)

func TestBambooHRFetch_Success(t *testing.T) {
	payload := `{
		"meta": {"totalCount": 3},
		"result": [
			{
				"id": "17",
				"jobOpeningName": "Warehouse Associate",
				"departmentLabel": "Operations",
				"employmentStatusLabel": "Part-Time",
				"location": {"city": "Reno", "state": "Nevada"},
				"isRemote": null,
				"locationType": "0"
			},
			{
				"id": 18,
				"jobOpeningName": "Data Analyst",
				"departmentLabel": "Finance",
				"employmentStatusLabel": "Full-Time",
				"location": {"city": null, "state": null},
				"atsLocation": {"country": "United States", "state": "Utah", "city": "Lehi"},
				"isRemote": true,
				"locationType": "1"
			},
			{
				"id": "19",
				"jobOpeningName": "Designer",
				"employmentStatusLabel": "Contractor",
				"location": {"city": "Provo", "state": "Utah"},
				"isRemote": false,
				"locationType": "2"
			}
		]
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Host != "acme.bamboohr.com" || r.URL.Path != "/careers/list" {
			t.Errorf("unexpected request %s%s", r.Host, r.URL.Path)
		}
		jsonHandler(payload)(w, r)
	}))
	defer srv.Close()

	jobs, err := NewBambooHRAdapter(testOptions(srv)).Fetch(context.Background(), "acme", "acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}

	tests := []struct {
		id         string
		location   string
		work       model.WorkType
		employment model.EmploymentType
	}{
		{"bamboohr:acme/17", "Reno, Nevada", model.WorkOnsite, model.PartTime},
		{"bamboohr:acme/18", "Lehi, Utah, United States", model.WorkRemote, model.FullTime},
		{"bamboohr:acme/19", "Provo, Utah", model.WorkHybrid, model.Contract},
	}
	for i, tc := range tests {
		j := jobs[i]
		if j.ExternalID != tc.id || j.Location != tc.location || j.WorkType != tc.work || j.EmploymentType != tc.employment {
			t.Errorf("job %d = {%s %q %s %s}, want {%s %q %s %s}",
				i, j.ExternalID, j.Location, j.WorkType, j.EmploymentType,
				tc.id, tc.location, tc.work, tc.employment)
		}
	}
	if jobs[0].ApplyURL != "https://acme.bamboohr.com/careers/17" {
		t.Errorf("unexpected apply url %s", jobs[0].ApplyURL)
	}
}

func TestBambooHRFetch_IDsScopedByAccount(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(`{"result": [{"id": "7", "jobOpeningName": "Backend Engineer"}]}`))
	defer srv.Close()

	a := NewBambooHRAdapter(testOptions(srv))
	acme, err := a.Fetch(context.Background(), "acme", "acme.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	globex, err := a.Fetch(context.Background(), "globex", "globex.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acme[0].ExternalID != "bamboohr:acme/7" || globex[0].ExternalID != "bamboohr:globex/7" {
		t.Errorf("ids = %q, %q; want them scoped by account", acme[0].ExternalID, globex[0].ExternalID)
	}
}
