// Package orchestrator contains the client-side session lifecycle core:
// the active-session registry, the status poller, the commit-message
// pre-generation trigger and the multi-agent debug orchestration trigger.
package orchestrator

import (
	"sync"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// Entry is the registry's view of a task's active session.
type Entry struct {
	SessionID   string
	Status      domain.SessionStatus
	Provisional bool // True until the poller observes authoritative data
}

// Registry maps task path → active session. Entries are written
// optimistically the instant a session-starting action is issued and
// overwritten with authoritative data by the poller.
type Registry struct {
	mu     sync.RWMutex
	active map[string]Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]Entry)}
}

// Get returns the active entry for the task.
func (r *Registry) Get(taskPath string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.active[taskPath]
	return e, ok
}

// Snapshot returns a copy of the whole active map.
func (r *Registry) Snapshot() map[string]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Entry, len(r.active))
	for k, v := range r.active {
		out[k] = v
	}
	return out
}

// Begin inserts a provisional pending entry for the task before the
// session-starting network call settles. It refuses to clobber an
// existing entry for a different, still-running session (double-submit
// guard). The returned restore func rolls the registry back to the
// snapshot taken immediately before this call; invoke it when the
// starting action fails at the network layer.
func (r *Registry) Begin(taskPath, provisionalID string) (restore func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.active[taskPath]
	if had && prev.SessionID != provisionalID && !prev.Status.IsTerminal() {
		return nil, domain.ErrSessionRunning
	}

	r.active[taskPath] = Entry{
		SessionID:   provisionalID,
		Status:      domain.SessionPending,
		Provisional: true,
	}

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if had {
			r.active[taskPath] = prev
		} else {
			delete(r.active, taskPath)
		}
	}, nil
}

// Observe records authoritative poll data, overwriting any provisional
// entry. Status regressions for the same session are discarded: once a
// terminal status is observed it never reverts to a non-terminal one.
func (r *Registry) Observe(taskPath, sessionID string, status domain.SessionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.active[taskPath]
	if ok && cur.SessionID == sessionID && !cur.Provisional {
		if cur.Status.IsTerminal() && !cur.Status.CanTransitionTo(status) && cur.Status != status {
			return
		}
	}
	r.active[taskPath] = Entry{SessionID: sessionID, Status: status}
}

// End removes the mapping once the status is terminal. Removing a
// non-terminal entry is refused so that an in-flight session is never
// silently dropped; Drop exists for explicit optimistic removal.
func (r *Registry) End(taskPath string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.active[taskPath]
	if !ok || !e.Status.IsTerminal() {
		return false
	}
	delete(r.active, taskPath)
	return true
}

// Drop removes the mapping unconditionally, returning a restore func
// for the cancellation flow's optimistic removal.
func (r *Registry) Drop(taskPath string) (restore func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, had := r.active[taskPath]
	delete(r.active, taskPath)

	return func() {
		if !had {
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.active[taskPath] = prev
	}
}
