package orchestrator

import (
	"context"
	"sync"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// PendingMessage is the per-task commit-message scratch value.
// Absent entry = state "absent"; Generating=true = "generating";
// otherwise "ready" holding the generated text.
type PendingMessage struct {
	Message    string
	Generating bool
}

// CommitMessageTrigger pre-generates a commit message when a task's
// active session transitions from an active status into completed.
// The transition is edge-triggered on the previously observed status,
// so subsequent polls that still report completed never re-fire it.
type CommitMessageTrigger struct {
	git   domain.GitService
	cache *cache.Store[PendingMessage]
	log   domain.Logger

	mu   sync.Mutex
	prev map[string]domain.SessionStatus
}

// NewCommitMessageTrigger creates the trigger.
func NewCommitMessageTrigger(git domain.GitService, log domain.Logger) *CommitMessageTrigger {
	return &CommitMessageTrigger{
		git:   git,
		cache: cache.NewStore[PendingMessage](),
		log:   log,
		prev:  make(map[string]domain.SessionStatus),
	}
}

// Observe feeds one observed (task, status) sample into the trigger.
// On the active→completed edge it fetches the changed-file list and, if
// non-empty, requests a generated message keyed by the task's title and
// description. Generation failures reset to absent silently; manual
// entry remains available to the commit flow.
func (t *CommitMessageTrigger) Observe(ctx context.Context, task *domain.Task, status domain.SessionStatus) {
	t.mu.Lock()
	prev, seen := t.prev[task.Path]
	t.prev[task.Path] = status
	t.mu.Unlock()

	if !seen || !prev.IsActive() || status != domain.SessionCompleted {
		return
	}
	if cur, ok := t.cache.Get(task.Path); ok && (cur.Generating || cur.Message != "") {
		return
	}

	t.cache.Set(task.Path, PendingMessage{Generating: true})

	files, err := t.git.ChangedFiles(ctx, task.Path)
	if err != nil {
		t.log.Warn(task.Path, "commitmsg", "changed files fetch failed: "+err.Error())
		t.cache.Delete(task.Path)
		return
	}
	if len(files) == 0 {
		// Nothing to message; reset.
		t.cache.Delete(task.Path)
		return
	}

	msg, err := t.git.GenerateCommitMessage(ctx, task.Title, task.Content, files)
	if err != nil {
		t.log.Warn(task.Path, "commitmsg", "generation failed: "+err.Error())
		t.cache.Delete(task.Path)
		return
	}

	t.cache.Set(task.Path, PendingMessage{Message: msg})
}

// Peek returns the cached value without consuming it.
func (t *CommitMessageTrigger) Peek(taskPath string) (PendingMessage, bool) {
	return t.cache.Get(taskPath)
}

// Consume returns the ready message and clears it. Returns false while
// absent or still generating.
func (t *CommitMessageTrigger) Consume(taskPath string) (string, bool) {
	pm, ok := t.cache.Get(taskPath)
	if !ok || pm.Generating || pm.Message == "" {
		return "", false
	}
	t.cache.Delete(taskPath)
	return pm.Message, true
}

// Clear drops the cached message and edge state for a task. Call on
// task-selection change; the cache is scoped per task key, not global.
func (t *CommitMessageTrigger) Clear(taskPath string) {
	t.cache.Delete(taskPath)
	t.mu.Lock()
	delete(t.prev, taskPath)
	t.mu.Unlock()
}
