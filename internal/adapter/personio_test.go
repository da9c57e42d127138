package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/atsprobe/internal/model"
)

const personioFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<workzag-jobs>
  <position>
    <id>1001</id>
    <subcompany>Acme GmbH</subcompany>
    <office>M&#252;nchen</office>
    <additionalOffices><office>Remote</office></additionalOffices>
    <department>R&amp;D</department>
    <name>Senior Backend Engineer (m/w/d)</name>
    <jobDescriptions>
      <jobDescription>
        <name>Your tasks</name>
        <value><![CDATA[<ul><li>Build APIs</li></ul>]]></value>
      </jobDescription>
    </jobDescriptions>
    <employmentType>permanent</employmentType>
    <schedule>full-time</schedule>
  </position>
  <position>
    <id>1002</id>
    <office>Berlin</office>
    <name>Werkstudent Marketing</name>
    <employmentType>working_student</employmentType>
    <schedule>part-time</schedule>
  </position>
  <position>
    <id>1003</id>
    <office>Berlin</office>
    <name>Praktikum Design</name>
    <employmentType>intern</employmentType>
    <schedule>full-or-part-time</schedule>
  </position>
</workzag-jobs>`

func TestPersonioFetch_FallsBackToComTLD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Host {
		case "acme.jobs.personio.de":
			// Unknown accounts get a regular HTML page.
			w.Write([]byte("<html><body>Not here</body></html>"))
		case "acme.jobs.personio.com":
			w.Header().Set("Content-Type", "application/xml")
			w.Write([]byte(personioFeedXML))
		default:
			t.Errorf("unexpected host %s", r.Host)
		}
	}))
	defer srv.Close()

	jobs, err := NewPersonioAdapter(testOptions(srv)).Fetch(context.Background(), "acme", "acme.de")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.ExternalID != "personio:1001" {
		t.Errorf("unexpected external id %s", j.ExternalID)
	}
	if j.Location != "München; Remote" {
		t.Errorf("unexpected location %q", j.Location)
	}
	if j.Department != "R&D" {
		t.Errorf("expected decoded department, got %q", j.Department)
	}
	if j.Description != "<h3>Your tasks</h3><ul><li>Build APIs</li></ul>" {
		t.Errorf("unexpected description %q", j.Description)
	}
	if j.WorkType != model.WorkRemote || j.EmploymentType != model.FullTime {
		t.Errorf("unexpected classification %s/%s", j.WorkType, j.EmploymentType)
	}
	if j.ApplyURL != "https://acme.jobs.personio.com/job/1001" {
		t.Errorf("unexpected apply url %s", j.ApplyURL)
	}

	if jobs[1].EmploymentType != model.PartTime {
		t.Errorf("expected part_time, got %s", jobs[1].EmploymentType)
	}
	if jobs[2].EmploymentType != model.Internship {
		t.Errorf("expected internship, got %s", jobs[2].EmploymentType)
	}
}

func TestPersonioFetch_BothHostsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewPersonioAdapter(testOptions(srv)).Fetch(context.Background(), "ghost", "ghost.de")
	var httpErr *model.HTTPError
	if !isHTTPError(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected joined HTTPError 404, got %v", err)
	}
}
