package watch

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
	"github.com/okabe-dev/agentdeck/internal/testutil"
)

// stubSubscription is a hand-fed Subscription for model tests.
type stubSubscription struct {
	events chan orchestrator.Event
}

func newStubSubscription() *stubSubscription {
	return &stubSubscription{events: make(chan orchestrator.Event, 8)}
}

func (s *stubSubscription) Events() <-chan orchestrator.Event { return s.events }
func (s *stubSubscription) Close()                            { close(s.events) }

func newTestModel() (*Model, *stubSubscription) {
	c := app.NewWithDeps(
		testutil.NewMockTaskService(),
		testutil.NewMockSessionService(),
		&testutil.MockGitService{},
		&testutil.MockDebugService{},
		&testutil.MockClock{NowTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	)
	sub := newStubSubscription()
	return New(c, sub), sub
}

func TestModelRendersLoadedTasks(t *testing.T) {
	m, _ := newTestModel()

	updated, _ := m.Update(MsgTasksLoaded{Tasks: []*domain.Task{
		{Path: "tasks/a.md", Title: "Alpha"},
		{Path: "tasks/b.md", Title: "Beta"},
	}})
	model, ok := updated.(*Model)
	if !ok {
		t.Fatalf("expected *Model from Update")
	}

	view := model.View()
	if !strings.Contains(view, "Alpha") || !strings.Contains(view, "Beta") {
		t.Fatalf("expected both tasks in view, got:\n%s", view)
	}
	if model.loading {
		t.Fatalf("expected loading to clear after tasks arrive")
	}
}

func TestModelHidesArchivedUntilToggled(t *testing.T) {
	m, _ := newTestModel()

	updated, _ := m.Update(MsgTasksLoaded{Tasks: []*domain.Task{
		{Path: "tasks/a.md", Title: "Alpha"},
		{Path: "tasks/b.md", Title: "Beta", Archived: true},
	}})
	model := updated.(*Model)

	if strings.Contains(model.View(), "Beta") {
		t.Fatalf("expected archived task hidden by default")
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	model = updated.(*Model)

	if !strings.Contains(model.View(), "Beta") {
		t.Fatalf("expected archived task visible after toggle")
	}
}

func TestModelAppliesUpdateEvent(t *testing.T) {
	m, _ := newTestModel()

	updated, _ := m.Update(MsgTasksLoaded{Tasks: []*domain.Task{
		{Path: "tasks/a.md", Title: "Alpha"},
	}})
	model := updated.(*Model)

	task := &domain.Task{Path: "tasks/a.md", Title: "Alpha"}
	session := &domain.Session{ID: "sess-1", Status: domain.SessionWorking, Purpose: domain.PurposeExecution}
	updated, cmd := model.Update(MsgUpdate{Event: orchestrator.Event{
		TaskPath: "tasks/a.md",
		Task:     task,
		Session:  session,
		Phase:    domain.PhaseImplementing,
	}})
	model = updated.(*Model)

	if cmd == nil {
		t.Fatalf("expected Update to re-arm the subscription wait")
	}
	if !strings.Contains(model.View(), "implementing") {
		t.Fatalf("expected phase in view, got:\n%s", model.View())
	}
	if !strings.Contains(model.View(), "sess-1") {
		t.Fatalf("expected session id in view")
	}
}

func TestModelSessionOnlyEventKeepsTaskRow(t *testing.T) {
	m, _ := newTestModel()

	updated, _ := m.Update(MsgTasksLoaded{Tasks: []*domain.Task{
		{Path: "tasks/a.md", Title: "Alpha"},
	}})
	model := updated.(*Model)

	updated, _ = model.Update(MsgUpdate{Event: orchestrator.Event{
		TaskPath: "tasks/a.md",
		Session:  &domain.Session{ID: "sess-2", Status: domain.SessionRunning},
		Phase:    domain.PhaseImplementing,
	}})
	model = updated.(*Model)

	if !strings.Contains(model.View(), "Alpha") {
		t.Fatalf("expected task row kept on session-only event")
	}
}

func TestModelCursorMoves(t *testing.T) {
	m, _ := newTestModel()

	updated, _ := m.Update(MsgTasksLoaded{Tasks: []*domain.Task{
		{Path: "tasks/a.md", Title: "Alpha"},
		{Path: "tasks/b.md", Title: "Beta"},
	}})
	model := updated.(*Model)

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model = updated.(*Model)
	if model.cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", model.cursor)
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model = updated.(*Model)
	if model.cursor != 1 {
		t.Fatalf("expected cursor clamped at last row, got %d", model.cursor)
	}
}

func TestModelFeedClosed(t *testing.T) {
	m, sub := newTestModel()
	sub.Close()

	msg := m.waitUpdate()()
	if _, ok := msg.(MsgFeedClosed); !ok {
		t.Fatalf("expected MsgFeedClosed, got %T", msg)
	}

	updated, _ := m.Update(MsgFeedClosed{})
	model := updated.(*Model)
	if !strings.Contains(model.View(), "update feed closed") {
		t.Fatalf("expected closed-feed notice in help line")
	}
}
