package main

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/chainkeeper/internal/watch"
	"github.com/vanderheijden86/chainkeeper/pkg/catalog"
	"github.com/vanderheijden86/chainkeeper/pkg/session"
)

const statusRefreshInterval = 500 * time.Millisecond

// tickMsg triggers a reload of the current session, the same periodic-poll
// shape as the teacher's workerPollTickCmd (pkg/ui/model.go).
type tickMsg time.Time

func statusTickCmd() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// statusWatchModel is a minimal bubbletea program that polls the session
// store and re-renders the chain progress view until the user quits. It
// also surfaces catalog-file changes detected by internal/watch, so an
// operator editing skills.yaml mid-session sees the reload happen.
type statusWatchModel struct {
	store             *session.Store
	state             *session.State
	loadErr           error
	width             int
	catalogReloadedAt time.Time
}

func newStatusWatchModel(store *session.Store) statusWatchModel {
	return statusWatchModel{store: store}
}

// catalogChangedMsg is sent (via tea.Program.Send) by the internal/watch
// watcher started in runStatusWatch, outside bubbletea's own event loop.
type catalogChangedMsg struct{ at time.Time }

func (m statusWatchModel) Init() tea.Cmd {
	return tea.Batch(statusTickCmd(), m.reload())
}

func (m statusWatchModel) reload() tea.Cmd {
	return func() tea.Msg {
		s, err := m.store.LoadCurrent()
		if err != nil {
			return reloadErrMsg{err}
		}
		return reloadedMsg{s}
	}
}

type reloadedMsg struct{ state *session.State }
type reloadErrMsg struct{ err error }

func (m statusWatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(statusTickCmd(), m.reload())
	case reloadedMsg:
		m.state = msg.state
		m.loadErr = nil
		return m, nil
	case reloadErrMsg:
		m.loadErr = msg.err
		return m, nil
	case catalogChangedMsg:
		m.catalogReloadedAt = msg.at
		return m, nil
	}
	return m, nil
}

func (m statusWatchModel) View() string {
	if m.loadErr != nil {
		return fmt.Sprintf("error loading session: %v\n", m.loadErr)
	}
	if m.state == nil {
		return "No active session.\n\n(press q to quit)\n"
	}
	body := renderStatusText(m.state)
	footerText := "\n(press q to quit, refreshes every " + statusRefreshInterval.String() + ")"
	if !m.catalogReloadedAt.IsZero() {
		footerText += fmt.Sprintf("\ncatalog reloaded at %s", m.catalogReloadedAt.Format("15:04:05"))
	}
	footer := lipgloss.NewStyle().Faint(true).Render(footerText)
	return body + footer
}

// runStatusWatch drives the bubbletea program for `chainctl status --watch`.
// It also starts an internal/watch watcher over the skills catalog
// directory: a live session rarely resolves anything itself, but a long-
// running operator UI is exactly the place a catalog edit should be
// noticed and reflected, rather than silently serving a stale resolve
// cache to the next `chainctl activate`.
func runStatusWatch(cf *commonFlags) int {
	p := tea.NewProgram(newStatusWatchModel(session.New(cf.stateDir)))

	cache := catalog.NewResolveCache()
	w, err := watch.New(filepath.Dir(cf.skillsPath), watch.WithOnChange(func() {
		cache.Invalidate()
		p.Send(catalogChangedMsg{at: time.Now()})
	}))
	if err == nil {
		if err := w.Start(); err == nil {
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil {
		return fatalf("status: %v", err)
	}
	return 0
}
