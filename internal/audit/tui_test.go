package audit

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/atsprobe/internal/model"
)

func testSnapshot() Snapshot {
	job := func(id, title, dept string) model.CanonicalJob {
		return model.CanonicalJob{
			Title:         title,
			Department:    dept,
			Location:      "Remote",
			WorkType:      model.WorkRemote,
			CompanyDomain: "acme.com",
			Source:        model.ProviderLever,
			ExternalID:    model.ExternalID(model.ProviderLever, id),
			ApplyURL:      "https://jobs.lever.co/acme/" + id,
		}
	}
	return Snapshot{
		Domain: "acme.com",
		Result: &model.DiscoveryResult{
			Provider: model.ProviderLever,
			Slug:     "acme",
			Jobs: []model.CanonicalJob{
				job("2", "Product Designer", "Design"),
				job("1", "Backend Engineer", "Engineering"),
			},
		},
		Stored: []model.StoredJob{
			{CanonicalJob: job("1", "Backend Engineer", "Engineering"), Status: model.StatusActive},
			{CanonicalJob: job("9", "Recruiter", "People"), Status: model.StatusClosed},
		},
	}
}

func TestNewAuditModel_TagsAndOrder(t *testing.T) {
	m := newAuditModel(testSnapshot())
	fetched, stored := m.panes[paneFetched].rows, m.panes[paneStored].rows

	if len(fetched) != 2 || fetched[0].job.Title != "Product Designer" {
		t.Fatalf("fetched = %+v, want department order", fetched)
	}
	if fetched[0].tag != "new" || fetched[1].tag != "" {
		t.Errorf("tags = %q, %q; want only the unseen posting marked new", fetched[0].tag, fetched[1].tag)
	}
	if stored[1].tag != "closed" {
		t.Errorf("stored tag = %q, want closed", stored[1].tag)
	}
	if got := countTag(fetched, "new"); got != 1 {
		t.Errorf("new count = %d", got)
	}
}

func TestAuditModel_Navigation(t *testing.T) {
	var tm tea.Model = newAuditModel(testSnapshot())
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyDown})
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m := tm.(auditModel)
	if m.view != viewDetail || m.detail.job.Title != "Backend Engineer" {
		t.Fatalf("view = %v detail = %q", m.view, m.detail.job.Title)
	}
	if !strings.Contains(m.renderDetail(), "lever:1") {
		t.Error("detail should show the external id")
	}

	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = tm.(auditModel)
	if m.view != viewList || m.focus != paneStored {
		t.Errorf("view = %v focus = %d", m.view, m.focus)
	}
	if !strings.Contains(m.View(), "Stored (2)") {
		t.Error("list view should show the stored count")
	}
}

func TestAuditModel_NothingDiscovered(t *testing.T) {
	m := newAuditModel(Snapshot{Domain: "nowhere.com"})
	fetched := m.panes[paneFetched].rows
	if len(fetched) != 0 || m.sourceLabel() != "not discovered" {
		t.Errorf("fetched = %d label = %q", len(fetched), m.sourceLabel())
	}
	if got := renderRows(fetched, 0, true); got != "  (no jobs)" {
		t.Errorf("renderRows = %q", got)
	}
}

func TestFormatSalary(t *testing.T) {
	lo, hi := 90000.0, 120000.0
	if got := formatSalary(model.Salary{Min: &lo, Max: &hi, Currency: "EUR"}); got != "EUR 90000 - 120000" {
		t.Errorf("formatSalary = %q", got)
	}
	if got := formatSalary(model.Salary{Min: &lo}); got != "USD 90000 - ?" {
		t.Errorf("formatSalary = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	if got := plainText("<p>Build <b>things</b></p>"); got != "Build things" {
		t.Errorf("plainText = %q", got)
	}
	if got := plainText("already plain"); got != "already plain" {
		t.Errorf("plainText = %q", got)
	}
}

func TestWordWrap(t *testing.T) {
	if got := wordWrap("one two three four", 9); got != "one two\nthree\nfour" {
		t.Errorf("wordWrap = %q", got)
	}
	if got := wordWrap("supercalifragilistic ok", 5); got != "supercalifragilistic\nok" {
		t.Errorf("wordWrap long word = %q", got)
	}
	if got := wordWrap("   ", 5); got != "" {
		t.Errorf("wordWrap blank = %q", got)
	}
}

func TestAuditModel_CursorStaysInBounds(t *testing.T) {
	var tm tea.Model = newAuditModel(testSnapshot())
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	for range 5 {
		tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyUp})
	}
	m := tm.(auditModel)
	if m.panes[paneFetched].cursor != 0 {
		t.Errorf("cursor = %d after moving up past the top", m.panes[paneFetched].cursor)
	}
	for range 5 {
		tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m = tm.(auditModel)
	if m.panes[paneFetched].cursor != 1 {
		t.Errorf("cursor = %d after moving down past the end", m.panes[paneFetched].cursor)
	}
}
