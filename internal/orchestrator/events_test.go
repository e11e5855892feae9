package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollSubscription_EmitsPhaseChanges(t *testing.T) {
	tasks := testutil.NewMockTaskService()
	tasks.Tasks["tasks/a.md"] = &domain.Task{Path: "tasks/a.md", Title: "A"}
	sessions := testutil.NewMockSessionService()
	sessions.Sessions["s1"] = &domain.Session{ID: "s1", Purpose: domain.PurposeExecution, Status: domain.SessionRunning}
	registry := NewRegistry()

	poller := NewPoller(sessions, registry, time.Hour, testutil.NopLogger{}, nil)
	sub := NewPollSubscription(tasks, sessions, registry, poller, time.Hour, time.Hour, testutil.NopLogger{})
	defer sub.Close()

	// First poll: task is idle
	sub.poll(context.Background())
	ev := <-sub.Events()
	assert.Equal(t, "tasks/a.md", ev.TaskPath)
	assert.Equal(t, domain.PhaseIdle, ev.Phase)

	// Same state: no duplicate event
	sub.poll(context.Background())
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	// Session starts: phase changes to implementing
	registry.Observe("tasks/a.md", "s1", domain.SessionRunning)
	sub.poll(context.Background())
	ev = <-sub.Events()
	assert.Equal(t, domain.PhaseImplementing, ev.Phase)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "s1", ev.Session.ID)
}

func TestPollSubscription_StartsSessionLoopForActiveEntry(t *testing.T) {
	tasks := testutil.NewMockTaskService()
	sessions := testutil.NewMockSessionService()
	sessions.Sessions["s1"] = &domain.Session{ID: "s1", Purpose: domain.PurposeExecution, Status: domain.SessionCompleted}
	registry := NewRegistry()
	registry.Observe("tasks/a.md", "s1", domain.SessionRunning)

	updates := make(chan *domain.Session, 8)
	poller := NewPoller(sessions, registry, 5*time.Millisecond, testutil.NopLogger{},
		func(path string, s *domain.Session) { updates <- s })
	sub := NewPollSubscription(tasks, sessions, registry, poller, time.Hour, time.Hour, testutil.NopLogger{})
	defer sub.Close()

	// One active-map scan starts the session loop; the loop fetches the
	// now-completed session, applies it and exits on its own.
	sub.pollActive(context.Background())

	select {
	case s := <-updates:
		assert.Equal(t, "s1", s.ID)
		assert.Equal(t, domain.SessionCompleted, s.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("session loop never applied an update")
	}

	assert.Eventually(t, func() bool {
		entry, ok := registry.Get("tasks/a.md")
		return ok && entry.Status == domain.SessionCompleted
	}, 2*time.Second, 5*time.Millisecond)

	// The loop for a terminal entry is not restarted.
	assert.Eventually(t, func() bool {
		sub.mu.Lock()
		defer sub.mu.Unlock()
		return len(sub.running) == 0
	}, 2*time.Second, 5*time.Millisecond)
	sub.pollActive(context.Background())
	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.Empty(t, sub.running)
}

type stubFeed struct {
	ch     chan Event
	closed bool
}

func (s *stubFeed) Events() <-chan Event { return s.ch }
func (s *stubFeed) Close()               { s.closed = true; close(s.ch) }

func TestTap_ObservesEveryForwardedEvent(t *testing.T) {
	inner := &stubFeed{ch: make(chan Event, 4)}
	seen := make(chan Event, 4)
	sub := Tap(inner, func(ev Event) { seen <- ev })

	inner.ch <- Event{TaskPath: "tasks/a.md", Phase: domain.PhaseImplementing}

	ev, ok := <-sub.Events()
	require.True(t, ok)
	assert.Equal(t, "tasks/a.md", ev.TaskPath)

	select {
	case observed := <-seen:
		assert.Equal(t, ev, observed)
	default:
		t.Fatal("observer not invoked before delivery")
	}

	sub.Close()
	assert.True(t, inner.closed, "closing the tap must close the wrapped feed")
	_, ok = <-sub.Events()
	assert.False(t, ok, "tap channel must close after Close")
}

func TestPollSubscription_CloseClosesChannel(t *testing.T) {
	tasks := testutil.NewMockTaskService()
	sessions := testutil.NewMockSessionService()
	registry := NewRegistry()

	poller := NewPoller(sessions, registry, time.Millisecond, testutil.NopLogger{}, nil)
	sub := NewPollSubscription(tasks, sessions, registry, poller, time.Millisecond, time.Millisecond, testutil.NopLogger{})
	sub.Close()

	// The channel must eventually close; ranging terminates.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after Close")
		}
	}
}
