// Package watch implements the live task watch TUI.
//
// The view renders one row per task with its derived phase and QA
// status, and updates rows as events arrive on the update
// subscription.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
	"github.com/okabe-dev/agentdeck/internal/usecase"
)

// row is one task line in the watch view.
type row struct {
	task    *domain.Task
	phase   domain.Phase
	session *domain.Session
}

// Model is the watch TUI model.
type Model struct {
	// Dependencies
	container *app.Container
	sub       orchestrator.Subscription

	// State
	rows map[string]row
	err  error

	// Components
	keys    KeyMap
	styles  Styles
	spinner spinner.Model
	help    help.Model

	// Numeric state
	cursor int
	width  int
	height int

	// Boolean state
	loading      bool
	showArchived bool
	feedClosed   bool
}

// New creates a new watch TUI model reading from sub. The caller owns
// the subscription and closes it after the program exits.
func New(c *app.Container, sub orchestrator.Subscription) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return &Model{
		container: c,
		sub:       sub,
		rows:      make(map[string]row),
		keys:      DefaultKeyMap(),
		styles:    DefaultStyles(),
		spinner:   sp,
		help:      help.New(),
		loading:   true,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadTasks(),
		m.waitUpdate(),
	)
}

// loadTasks fetches the full task list.
func (m *Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		uc := m.container.ListTasksUseCase()
		out, err := uc.Execute(context.Background(), usecase.ListTasksInput{IncludeArchived: true})
		if err != nil {
			return MsgTasksLoaded{Err: err}
		}
		return MsgTasksLoaded{Tasks: out.Tasks}
	}
}

// waitUpdate blocks on the subscription channel for the next event.
func (m *Model) waitUpdate() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.sub.Events()
		if !ok {
			return MsgFeedClosed{}
		}
		return MsgUpdate{Event: ev}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case MsgTasksLoaded:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.rows = make(map[string]row, len(msg.Tasks))
		for _, t := range msg.Tasks {
			m.rows[t.Path] = row{task: t, phase: m.derivePhase(t)}
		}
		m.clampCursor()
		return m, nil

	case MsgUpdate:
		m.apply(msg.Event)
		return m, m.waitUpdate()

	case MsgFeedClosed:
		m.feedClosed = true
		return m, nil
	}

	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.All):
		m.showArchived = !m.showArchived
		m.clampCursor()
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadTasks())
	}
	return m, nil
}

// apply folds one subscription event into the row set.
func (m *Model) apply(ev orchestrator.Event) {
	sess := ev.Session
	if sess != nil && sess.Status.IsTerminal() {
		// Finished sessions stop showing on the row.
		sess = nil
	}
	if ev.Task == nil {
		// Session-only update; keep the cached task row.
		if r, ok := m.rows[ev.TaskPath]; ok {
			r.session = sess
			r.phase = ev.Phase
			m.rows[ev.TaskPath] = r
		}
		return
	}
	m.rows[ev.TaskPath] = row{task: ev.Task, phase: ev.Phase, session: sess}
	m.clampCursor()
}

func (m *Model) derivePhase(t *domain.Task) domain.Phase {
	var active *domain.Session
	if entry, ok := m.container.Registry.Get(t.Path); ok && !entry.Status.IsTerminal() {
		active = &domain.Session{ID: entry.SessionID, Status: entry.Status}
	}
	return domain.DerivePhase(t, active, domain.Progress{})
}

// visible returns the rendered rows in path order.
func (m *Model) visible() []row {
	rows := make([]row, 0, len(m.rows))
	for _, r := range m.rows {
		if !m.showArchived && r.task.Archived {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].task.Path < rows[j].task.Path })
	return rows
}

func (m *Model) clampCursor() {
	if n := len(m.visible()); m.cursor >= n && n > 0 {
		m.cursor = n - 1
	} else if n == 0 {
		m.cursor = 0
	}
}

// View renders the watch view.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("agentdeck watch"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}

	if m.loading {
		b.WriteString(m.styles.Loading.Render(m.spinner.View() + " refreshing..."))
		b.WriteString("\n")
	}

	rows := m.visible()
	if len(rows) == 0 && !m.loading {
		b.WriteString(m.styles.Normal.Render("No tasks. Create one with: agentdeck new <title>"))
		b.WriteString("\n")
	}

	for i, r := range rows {
		line := m.renderRow(r)
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render(line))
		} else {
			b.WriteString(m.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if m.feedClosed {
		b.WriteString(m.styles.Help.Render("update feed closed"))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return b.String()
}

func (m *Model) renderRow(r row) string {
	phase := m.styles.phaseStyle(r.phase).Render(fmt.Sprintf("%-18s", r.phase.Display()))
	qa := r.task.QAStatus.Display()
	title := r.task.Title
	if r.session != nil {
		title += " " + m.styles.Path.Render("["+r.session.ID+"]")
	}
	return fmt.Sprintf("%s %-8s %s  %s", phase, qa, m.styles.Path.Render(r.task.Path), title)
}
