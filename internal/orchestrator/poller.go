package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// Poller refreshes the active session of a task on a fixed interval
// until the session reaches a terminal state. Ticks fire regardless of
// prior completion, so fetches may overlap in flight; responses are
// applied only if they belong to the currently tracked session and no
// later-issued fetch has already been applied.
type Poller struct {
	sessions domain.SessionService
	registry *Registry
	log      domain.Logger
	onUpdate func(taskPath string, s *domain.Session)
	interval time.Duration

	mu      sync.Mutex
	issued  map[string]uint64 // last fetch sequence issued per task
	applied map[string]uint64 // last fetch sequence applied per task
}

// NewPoller creates a Poller. onUpdate (optional) is invoked with every
// applied session record; the commit-message trigger and subscriptions
// hang off it.
func NewPoller(sessions domain.SessionService, registry *Registry, interval time.Duration, log domain.Logger, onUpdate func(string, *domain.Session)) *Poller {
	return &Poller{
		sessions: sessions,
		registry: registry,
		interval: interval,
		log:      log,
		onUpdate: onUpdate,
		issued:   make(map[string]uint64),
		applied:  make(map[string]uint64),
	}
}

// Run polls the task's active session until it terminates, the registry
// entry disappears, or ctx is cancelled. The ticker is always released
// on exit; a cancelled context is a normal return.
func (p *Poller) Run(ctx context.Context, taskPath string) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.Canceled {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			entry, ok := p.registry.Get(taskPath)
			if !ok {
				// Tracked session id changed to undefined; stop.
				return nil
			}
			if entry.Status.IsTerminal() && !entry.Provisional {
				return nil
			}
			seq := p.nextSeq(taskPath)
			// Each tick issues its own fetch; overlapping in-flight
			// fetches are tolerated and reconciled in apply.
			go p.fetch(ctx, taskPath, entry.SessionID, seq)
		}
	}
}

// Tick performs one synchronous poll step. The interval loop in Run is
// a thin wrapper around this.
func (p *Poller) Tick(ctx context.Context, taskPath string) {
	entry, ok := p.registry.Get(taskPath)
	if !ok {
		return
	}
	p.fetch(ctx, taskPath, entry.SessionID, p.nextSeq(taskPath))
}

func (p *Poller) nextSeq(taskPath string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued[taskPath]++
	return p.issued[taskPath]
}

func (p *Poller) fetch(ctx context.Context, taskPath, sessionID string, seq uint64) {
	sess, err := p.sessions.GetSession(ctx, sessionID)
	if err != nil {
		// A single failed tick never cancels the timer.
		p.log.Warn(taskPath, "poll", "session fetch failed: "+err.Error())
		return
	}
	p.apply(taskPath, sessionID, seq, sess)
}

// apply records a fetched session. Responses are discarded when the
// tracked session has changed (stale session id) or when a more
// recently issued fetch already landed (out-of-order arrival). Neither
// case is an error.
func (p *Poller) apply(taskPath, sessionID string, seq uint64, sess *domain.Session) {
	entry, ok := p.registry.Get(taskPath)
	if !ok || entry.SessionID != sessionID || sess.ID != sessionID {
		return
	}

	p.mu.Lock()
	if seq <= p.applied[taskPath] {
		p.mu.Unlock()
		return
	}
	p.applied[taskPath] = seq
	p.mu.Unlock()

	p.registry.Observe(taskPath, sessionID, sess.Status)
	if p.onUpdate != nil {
		p.onUpdate(taskPath, sess)
	}
}

// Forget clears the sequence bookkeeping for a task. Call when the
// selected task changes so a new selection starts fresh.
func (p *Poller) Forget(taskPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.issued, taskPath)
	delete(p.applied, taskPath)
}
