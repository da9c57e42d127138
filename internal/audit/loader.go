package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/atsprobe/internal/model"
)

// Snapshot is what the audit view compares: a live discovery and the stored postings.
type Snapshot struct {
	Domain   string
	Result   *model.DiscoveryResult // nil when nothing was discovered
	Stored   []model.StoredJob
	Duration time.Duration
}

type loadDoneMsg struct {
	snap Snapshot
	err  error
}

type loaderModel struct {
	domain  string
	loadFn  func(ctx context.Context) (Snapshot, error)
	spinner spinner.Model
	result  Snapshot
	err     error
	done    bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doLoad(), m.spinner.Tick)
}

func (m loaderModel) doLoad() tea.Cmd {
	loadFn := m.loadFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		start := time.Now()
		snap, err := loadFn(ctx)
		snap.Duration = time.Since(start)
		return loadDoneMsg{snap: snap, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDoneMsg:
		m.result = msg.snap
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = fmt.Errorf("cancelled")
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Discovering jobs for %s...\n", m.spinner.View(), m.domain)
}

// RunLoader shows a spinner while loadFn runs. It renders inline (no alt screen).
func RunLoader(domain string, loadFn func(ctx context.Context) (Snapshot, error)) (Snapshot, error) {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	m := loaderModel{
		domain:  domain,
		loadFn:  loadFn,
		spinner: sp,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return Snapshot{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
