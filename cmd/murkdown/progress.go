package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murkdown/internal/mdlog"
)

var (
	styleProgressTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).Padding(0, 1)
	styleProgressDone  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1)
	styleProgressErr   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)
)

// pathDoneMsg reports that one document's build finished (or failed).
type pathDoneMsg struct {
	path string
	err  error
}

// buildFinishedMsg fires if the events channel closes without every path
// having reported in (a panic recovered elsewhere, for instance).
type buildFinishedMsg struct{}

type progressModel struct {
	bar      progress.Model
	total    int
	finished int
	failed   []string
	events   <-chan pathDoneMsg
	err      error
	quitting bool
}

func newProgressModel(total int, events <-chan pathDoneMsg) progressModel {
	return progressModel{
		bar:    progress.New(progress.WithDefaultGradient()),
		total:  total,
		events: events,
	}
}

func (m progressModel) Init() tea.Cmd {
	return waitForNext(m.events)
}

func waitForNext(events <-chan pathDoneMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return buildFinishedMsg{}
		}
		return msg
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case pathDoneMsg:
		m.finished++
		if msg.err != nil {
			m.failed = append(m.failed, msg.path)
			if m.err == nil {
				m.err = msg.err
			}
		}
		if m.finished >= m.total {
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForNext(m.events)
	case buildFinishedMsg:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	pct := float64(m.finished) / float64(max(m.total, 1))
	title := styleProgressTitle.Render(fmt.Sprintf("building %d document(s)", m.total))
	bar := m.bar.ViewAs(pct)
	status := styleProgressDone.Render(fmt.Sprintf("%d/%d done", m.finished, m.total))
	if len(m.failed) > 0 {
		status = styleProgressErr.Render(fmt.Sprintf("%d/%d done, %d failed", m.finished, m.total, len(m.failed)))
	}
	return title + "\n" + bar + "\n" + status + "\n"
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// runBuildWithProgress drives buildAll's per-document work through a
// bubbletea full-screen progress view instead of the plain logger, used
// for `--log tui` builds of more than one path (spec §6 domain stack).
func runBuildWithProgress(paths []string, logger *mdlog.Logger) error {
	events := make(chan pathDoneMsg, len(paths))
	errCh := make(chan error, 1)

	go func() {
		errCh <- buildAllReporting(paths, logger, events)
		close(events)
	}()

	p := tea.NewProgram(newProgressModel(len(paths), events))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("murkdown: progress view: %w", err)
	}
	return <-errCh
}
