package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// DebugOrchestrator watches a debug run's sibling sessions and fires
// the synthesis ("orchestrator") session exactly once when all members
// reach a terminal state. The per-run fired flag is the idempotence
// guard: the poll can observe all-terminal on consecutive ticks.
type DebugOrchestrator struct {
	debug    domain.DebugService
	log      domain.Logger
	interval time.Duration

	mu    sync.Mutex
	fired map[string]bool
}

// NewDebugOrchestrator creates the trigger.
func NewDebugOrchestrator(debug domain.DebugService, interval time.Duration, log domain.Logger) *DebugOrchestrator {
	return &DebugOrchestrator{
		debug:    debug,
		interval: interval,
		log:      log,
		fired:    make(map[string]bool),
	}
}

// Poll performs one status check. When the run reports all members
// terminal and the run has not fired yet, it triggers orchestration and
// returns the created session id. On orchestration failure the flag is
// released so a later poll may retry; the guard only prevents duplicate
// invocations, never recovery.
func (o *DebugOrchestrator) Poll(ctx context.Context, run domain.DebugRun) (sessionID string, fired bool, err error) {
	st, err := o.debug.RunStatus(ctx, run.ID)
	if err != nil {
		o.log.Warn(run.TaskPath, "debugrun", "status poll failed: "+err.Error())
		return "", false, err
	}
	if !st.AllTerminal {
		return "", false, nil
	}

	o.mu.Lock()
	if o.fired[run.ID] {
		o.mu.Unlock()
		return "", false, nil
	}
	o.fired[run.ID] = true
	o.mu.Unlock()

	id, err := o.debug.Orchestrate(ctx, run.ID, run.TaskPath)
	if err != nil {
		o.mu.Lock()
		delete(o.fired, run.ID)
		o.mu.Unlock()
		o.log.Error(run.TaskPath, "debugrun", "orchestrate failed: "+err.Error())
		return "", false, err
	}

	o.log.Info(run.TaskPath, "debugrun", "orchestrator session started: "+id)
	return id, true, nil
}

// Run polls the debug run until the orchestrator fires or ctx is
// cancelled, returning the synthesis session id. The returned id is an
// ordinary agent session the caller can display, poll or cancel.
func (o *DebugOrchestrator) Run(ctx context.Context, run domain.DebugRun) (string, error) {
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.Canceled {
				return "", nil
			}
			return "", ctx.Err()
		case <-ticker.C:
			id, fired, err := o.Poll(ctx, run)
			if err != nil {
				// Transient failure; keep polling.
				continue
			}
			if fired {
				return id, nil
			}
		}
	}
}

// Fired reports whether the run already triggered its orchestrator.
func (o *DebugOrchestrator) Fired(runID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fired[runID]
}
