package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// Event is one discrete (taskKey, newState) update. Consumers (phase
// display, triggers) must not care which transport produced it.
type Event struct {
	TaskPath string
	Task     *domain.Task
	Session  *domain.Session // Observed session, if any; may be terminal
	Phase    domain.Phase
}

// Subscription delivers task state updates as discrete events. Both the
// poll-backed implementation below and the push-backed websocket client
// in infra satisfy it.
type Subscription interface {
	// Events returns the update channel. It is closed by Close.
	Events() <-chan Event

	// Close tears the subscription down and releases its timers.
	Close()
}

// PollSubscription implements Subscription by polling on the spec's
// independent timers: the task list on one interval, and the map of
// active sessions on another. Each active registry entry gets its own
// Poller run loop so session fetches carry the stale-discard and
// teardown rules with them.
type PollSubscription struct {
	tasks    domain.TaskService
	sessions domain.SessionService
	registry *Registry
	poller   *Poller
	log      domain.Logger

	events    chan Event
	cancel    context.CancelFunc
	closeOnce sync.Once
	lastPhase map[string]domain.Phase

	mu      sync.Mutex
	running map[string]struct{} // task paths with a live session poll loop
}

// NewPollSubscription starts the polling loops. Call Close to stop
// them; leaving a subscription open after the consumer goes away is a
// resource leak.
func NewPollSubscription(tasks domain.TaskService, sessions domain.SessionService, registry *Registry, poller *Poller, tasksInterval, activeInterval time.Duration, log domain.Logger) *PollSubscription {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PollSubscription{
		tasks:     tasks,
		sessions:  sessions,
		registry:  registry,
		poller:    poller,
		log:       log,
		events:    make(chan Event, 64),
		cancel:    cancel,
		lastPhase: make(map[string]domain.Phase),
		running:   make(map[string]struct{}),
	}
	go s.run(ctx, tasksInterval, activeInterval)
	return s
}

// Events returns the update channel.
func (s *PollSubscription) Events() <-chan Event {
	return s.events
}

// Close stops the polling loops and closes the event channel.
func (s *PollSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}

func (s *PollSubscription) run(ctx context.Context, tasksInterval, activeInterval time.Duration) {
	tasksTicker := time.NewTicker(tasksInterval)
	defer tasksTicker.Stop()
	activeTicker := time.NewTicker(activeInterval)
	defer activeTicker.Stop()
	defer close(s.events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tasksTicker.C:
			s.poll(ctx)
		case <-activeTicker.C:
			s.pollActive(ctx)
		}
	}
}

// pollActive scans the registry and starts a session poll loop for
// every active entry that does not have one yet. Each loop ends on its
// own once the session terminates or the entry disappears.
func (s *PollSubscription) pollActive(ctx context.Context) {
	for path, entry := range s.registry.Snapshot() {
		if entry.Status.IsTerminal() {
			continue
		}

		s.mu.Lock()
		_, live := s.running[path]
		if !live {
			s.running[path] = struct{}{}
		}
		s.mu.Unlock()
		if live {
			continue
		}

		go func(path string) {
			if err := s.poller.Run(ctx, path); err != nil {
				s.log.Warn(path, "subscribe", "session poll stopped: "+err.Error())
			}
			s.mu.Lock()
			delete(s.running, path)
			s.mu.Unlock()
		}(path)
	}
}

// poll emits one event per task whose derived phase changed since the
// previous tick.
func (s *PollSubscription) poll(ctx context.Context) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		s.log.Warn("", "subscribe", "task list poll failed: "+err.Error())
		return
	}

	for _, task := range tasks {
		var active *domain.Session
		if entry, ok := s.registry.Get(task.Path); ok && !entry.Status.IsTerminal() {
			sess, err := s.sessions.GetSession(ctx, entry.SessionID)
			if err == nil && sess.ID == entry.SessionID {
				active = sess
			}
		}

		phase := domain.DerivePhase(task, active, domain.Progress{})
		if s.lastPhase[task.Path] == phase {
			continue
		}

		select {
		case s.events <- Event{TaskPath: task.Path, Task: task, Session: active, Phase: phase}:
			s.lastPhase[task.Path] = phase
		default:
			// Slow consumer; drop rather than block the poll loop.
			// lastPhase stays stale so the change re-emits next tick.
		}
	}
}

// tapSubscription forwards another subscription's events through an
// observer callback.
type tapSubscription struct {
	inner     Subscription
	fn        func(Event)
	events    chan Event
	quit      chan struct{}
	closeOnce sync.Once
}

// Tap returns a Subscription that invokes fn on every event of sub
// before delivering it. The registry and the commit-message trigger
// hang off fn, so every transport feeds them the same way. Closing the
// tap closes sub.
func Tap(sub Subscription, fn func(Event)) Subscription {
	t := &tapSubscription{
		inner:  sub,
		fn:     fn,
		events: make(chan Event, 64),
		quit:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *tapSubscription) run() {
	defer close(t.events)
	for ev := range t.inner.Events() {
		t.fn(ev)
		select {
		case t.events <- ev:
		case <-t.quit:
			return
		}
	}
}

// Events returns the forwarded channel.
func (t *tapSubscription) Events() <-chan Event {
	return t.events
}

// Close tears down the tap and the underlying subscription.
func (t *tapSubscription) Close() {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.inner.Close()
	})
}
