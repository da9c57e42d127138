package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/atsprobe/internal/model"
)

// rowHeight is the number of lines one posting takes in a pane.
const rowHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneFetched = iota
	paneStored
)

const (
	colorAccent = lipgloss.Color("39")
	colorDim    = lipgloss.Color("240")
	colorMuted  = lipgloss.Color("245")
	colorText   = lipgloss.Color("252")
	colorBright = lipgloss.Color("15")
	colorSelect = lipgloss.Color("24")
	colorBar    = lipgloss.Color("236")
)

var (
	statusBarStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(colorText).Background(colorBar)

	rowTitleStyle         = lipgloss.NewStyle().Bold(true)
	rowMetaStyle          = lipgloss.NewStyle().Foreground(colorMuted)
	selectedRowTitleStyle = rowTitleStyle.Foreground(colorBright).Background(colorSelect)
	selectedRowMetaStyle  = lipgloss.NewStyle().Foreground(colorText).Background(colorSelect)

	tagStyles = map[string]lipgloss.Style{
		"new":                      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		string(model.StatusClosed): lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Width(16)
	detailHeading   = lipgloss.NewStyle().Bold(true).Foreground(colorBright).MarginBottom(1)
	ruleStyle       = lipgloss.NewStyle().Foreground(colorDim)
	hintStyle       = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	bodyStyle       = lipgloss.NewStyle().Foreground(colorText)
)

// frameStyle is the rounded border around a pane, highlighted when focused.
func frameStyle(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	if focused {
		s = s.BorderForeground(colorAccent)
	}
	return s
}

func paneHeaderStyle(focused bool) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(colorDim)
	if focused {
		s = s.Foreground(colorAccent)
	}
	return s
}

// row is one posting in a pane. tag is "new" for fetched postings the store
// does not hold as active, and the stored status in the stored pane.
type row struct {
	job model.CanonicalJob
	tag string
}

// pane is a scrollable list of postings with its own cursor.
type pane struct {
	title  string
	rows   []row
	cursor int
	vp     viewport.Model
}

func (p *pane) move(delta int) {
	p.cursor = clamp(p.cursor+delta, 0, max(len(p.rows)-1, 0))
}

// follow scrolls the viewport so the cursor row is fully visible.
func (p *pane) follow() {
	top := p.cursor * rowHeight
	bottom := top + rowHeight - 1
	switch {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case bottom >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(bottom - p.vp.Height + 1)
	}
}

func (p *pane) redraw(focused bool) {
	p.vp.SetContent(renderRows(p.rows, p.cursor, focused))
}

func (p pane) selected() (row, bool) {
	if len(p.rows) == 0 {
		return row{}, false
	}
	return p.rows[p.cursor], true
}

type auditModel struct {
	snap   Snapshot
	panes  [2]pane
	focus  int
	width  int
	height int
	ready  bool

	view            viewState
	detail          row
	detailVP        viewport.Model
	showDescription bool

	wantQuit bool
}

func newAuditModel(snap Snapshot) auditModel {
	active := make(map[string]bool, len(snap.Stored))
	stored := make([]row, 0, len(snap.Stored))
	for _, s := range snap.Stored {
		if s.Status == model.StatusActive {
			active[s.ExternalID] = true
		}
		stored = append(stored, row{job: s.CanonicalJob, tag: string(s.Status)})
	}

	var fetched []row
	if snap.Result != nil {
		for _, j := range snap.Result.Jobs {
			r := row{job: j}
			if !active[j.ExternalID] {
				r.tag = "new"
			}
			fetched = append(fetched, r)
		}
	}

	sortRows(fetched)
	sortRows(stored)
	m := auditModel{snap: snap}
	m.panes[paneFetched] = pane{title: "Fetched", rows: fetched}
	m.panes[paneStored] = pane{title: "Stored", rows: stored}
	return m
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.view == viewDetail {
			m.detailVP.Width, m.detailVP.Height = m.width-4, m.height-4
			m.detailVP.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.handleDetailKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m auditModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.focus]
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		return m, tea.Quit
	case "tab", "left", "right":
		m.focus = 1 - m.focus
		m.redraw()
		return m, nil
	case "up", "k", "down", "j":
		delta := 1
		if s := msg.String(); s == "up" || s == "k" {
			delta = -1
		}
		p.move(delta)
		p.redraw(true)
		p.follow()
		return m, nil
	case "enter":
		r, ok := p.selected()
		if !ok {
			return m, nil
		}
		m.view = viewDetail
		m.detail = r
		m.showDescription = false
		m.detailVP = viewport.New(m.width-4, m.height-4)
		m.detailVP.SetContent(m.renderDetail())
		return m, nil
	}

	// pgup/pgdn/home/end scroll the focused pane
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return m, cmd
}

func (m auditModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		openURL(m.detail.job.ApplyURL)
		return m, nil
	case "r":
		if m.detail.job.Description != "" {
			m.showDescription = !m.showDescription
			m.detailVP.SetContent(m.renderDetail())
			m.detailVP.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailVP, cmd = m.detailVP.Update(msg)
	return m, cmd
}

// layout sizes both panes to share the window: two borders each plus a one
// column gap across, and header, borders and status bar down.
func (m *auditModel) layout() {
	w := max((m.width-5)/2, 20)
	h := max(m.height-4, 5)
	for i := range m.panes {
		if m.ready {
			m.panes[i].vp.Width, m.panes[i].vp.Height = w, h
		} else {
			m.panes[i].vp = viewport.New(w, h)
		}
	}
	m.ready = true
	m.redraw()
}

func (m *auditModel) redraw() {
	for i := range m.panes {
		m.panes[i].redraw(i == m.focus)
	}
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m auditModel) sourceLabel() string {
	if m.snap.Result == nil {
		return "not discovered"
	}
	return fmt.Sprintf("%s/%s", m.snap.Result.Provider, m.snap.Result.Slug)
}

func (m auditModel) viewList() string {
	var headers, frames []string
	for i, p := range m.panes {
		focused := i == m.focus
		if i > 0 {
			headers = append(headers, " ")
			frames = append(frames, " ")
		}
		header := paneHeaderStyle(focused).Render(fmt.Sprintf(" %s (%d)", p.title, len(p.rows)))
		headers = append(headers, lipgloss.NewStyle().Width(p.vp.Width+2).Render(header))
		frames = append(frames, frameStyle(focused).Width(p.vp.Width).Render(p.vp.View()))
	}

	status := fmt.Sprintf(" %s | %s | %d new | %s    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		m.snap.Domain, m.sourceLabel(), countTag(m.panes[paneFetched].rows, "new"), m.snap.Duration.Round(100*time.Millisecond))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, headers...),
		lipgloss.JoinHorizontal(lipgloss.Top, frames...),
		statusBarStyle.Width(m.width).Render(status),
	)
}

func (m auditModel) viewDetail() string {
	keys := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detail.job.Description != "" {
		keys = " o open URL  r description  esc/backspace back  ↑/↓ scroll  q quit"
	}
	return detailHeading.Render("Posting") + "\n" +
		frameStyle(true).Width(m.width-2).Render(m.detailVP.View()) + "\n" +
		statusBarStyle.Width(m.width).Render(keys)
}

func (m auditModel) renderDetail() string {
	j := m.detail.job
	var b strings.Builder

	section := func(fields ...[2]string) {
		wrote := false
		for _, f := range fields {
			if f[1] == "" {
				continue
			}
			b.WriteString(fieldLabelStyle.Render(f[0]) + f[1] + "\n")
			wrote = true
		}
		if wrote {
			b.WriteByte('\n')
		}
	}

	salary := ""
	if j.Salary != nil {
		salary = formatSalary(*j.Salary)
	}
	section(
		[2]string{"Title", j.Title},
		[2]string{"Company", j.CompanyDomain},
		[2]string{"Department", j.Department},
		[2]string{"Location", j.Location},
		[2]string{"Work Type", string(j.WorkType)},
		[2]string{"Employment", string(j.EmploymentType)},
	)
	section(
		[2]string{"Source", string(j.Source)},
		[2]string{"External ID", j.ExternalID},
		[2]string{"Status", m.detail.tag},
		[2]string{"Salary", salary},
	)
	section([2]string{"Apply URL", j.ApplyURL})

	if j.Description == "" {
		return b.String()
	}
	width := max(m.width-8, 20)
	if !m.showDescription {
		b.WriteString(hintStyle.Render("  press r to read the description") + "\n")
		return b.String()
	}
	const label = "── Description "
	b.WriteString(ruleStyle.Render(label+strings.Repeat("─", max(width-len(label), 3))) + "\n\n")
	b.WriteString(bodyStyle.Render(wordWrap(plainText(j.Description), width)) + "\n")
	return b.String()
}

// formatSalary renders a salary range; missing bounds are shown as "?".
func formatSalary(s model.Salary) string {
	bound := func(v *float64) string {
		if v == nil {
			return "?"
		}
		return strconv.FormatFloat(*v, 'f', 0, 64)
	}
	currency := s.Currency
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %s - %s", currency, bound(s.Min), bound(s.Max))
}

// plainText strips markup from an HTML description.
func plainText(desc string) string {
	if !strings.Contains(desc, "<") {
		return desc
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err != nil {
		return desc
	}
	return doc.Text()
}

func renderRows(rows []row, cursor int, focused bool) string {
	if len(rows) == 0 {
		return "  (no jobs)"
	}

	lines := make([]string, 0, len(rows)*rowHeight)
	for i, r := range rows {
		prefix, title, meta := "  ", rowTitleStyle, rowMetaStyle
		if focused && i == cursor {
			prefix, title, meta = "> ", selectedRowTitleStyle, selectedRowMetaStyle
		}

		heading := prefix + title.Render(r.job.Title)
		if st, ok := tagStyles[r.tag]; ok {
			heading += " " + st.Render(r.tag)
		}
		location := r.job.Location
		if location == "" {
			location = "n/a"
		}
		lines = append(lines, heading, prefix+meta.Render(location+" · "+string(r.job.WorkType)))
		if i < len(rows)-1 {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

// sortRows orders by department, then title.
func sortRows(rows []row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].job, rows[j].job
		if a.Department != b.Department {
			return a.Department < b.Department
		}
		return a.Title < b.Title
	})
}

func countTag(rows []row, tag string) int {
	n := 0
	for _, r := range rows {
		if r.tag == tag {
			n++
		}
	}
	return n
}

// wordWrap breaks text on spaces so no line exceeds width, unless a single
// word is longer.
func wordWrap(text string, width int) string {
	var b strings.Builder
	col := 0
	for _, w := range strings.Fields(text) {
		switch {
		case col == 0:
		case col+1+len(w) <= width:
			b.WriteByte(' ')
			col++
		default:
			b.WriteByte('\n')
			col = 0
		}
		b.WriteString(w)
		col += len(w)
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// openURL hands url to the platform's opener and does not wait for it.
func openURL(url string) {
	if url == "" {
		return
	}
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return
	}
	_ = exec.Command(name, append(args, url)...).Start()
}

// RunAuditTUI shows fetched postings next to stored ones. It reports
// wantQuit when the user quit outright rather than going back to the picker.
func RunAuditTUI(snap Snapshot) (bool, error) {
	result, err := tea.NewProgram(newAuditModel(snap), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return result.(auditModel).wantQuit, nil
}
