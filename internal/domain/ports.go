package domain

import (
	"context"
	"time"
)

// TaskService is the console RPC surface for task persistence.
// The transport is an opaque typed call; implementations live in infra.
type TaskService interface {
	// List retrieves all tasks.
	List(ctx context.Context) ([]*Task, error)

	// Get retrieves a task by path key.
	Get(ctx context.Context, path string) (*Task, error)

	// Save persists the task's markdown content (debounced autosave).
	Save(ctx context.Context, path, content string) error

	// Create creates a new task and returns its path.
	Create(ctx context.Context, title string, opts CreateTaskOptions) (string, error)

	// CreateWithAgent creates a task bundled with a planning session.
	CreateWithAgent(ctx context.Context, title string, opts CreateTaskOptions) (*CreatedWithAgent, error)

	// Delete removes a task permanently.
	Delete(ctx context.Context, path string) error

	// Archive marks a task archived.
	Archive(ctx context.Context, path string) error

	// Restore clears the archived flag.
	Restore(ctx context.Context, path string) error

	// Split carves the given sections out into new child tasks.
	Split(ctx context.Context, path string, sectionIndices []int, archiveOriginal bool) ([]string, error)

	// RecordMerge appends a merge-history entry server-side.
	RecordMerge(ctx context.Context, path, sessionID, commitHash string) error

	// RecordRevert stamps the outstanding entry server-side.
	RecordRevert(ctx context.Context, path, mergeCommitHash, revertCommitHash string) error

	// SetQAStatus updates the task's QA status.
	SetQAStatus(ctx context.Context, path string, status QAStatus) error
}

// CreateTaskOptions configures task creation.
type CreateTaskOptions struct {
	Content   string // Initial markdown body
	AgentType string // Agent to plan with (CreateWithAgent only)
	Model     string // Optional model override
}

// CreatedWithAgent is the result of CreateWithAgent.
type CreatedWithAgent struct {
	Path      string
	SessionID string
}

// SessionService is the console RPC surface for agent sessions.
type SessionService interface {
	// Assign starts an implementation session for the task.
	Assign(ctx context.Context, path, agentType, model string) (*StartedSession, error)

	// Verify starts a verification session for the task.
	Verify(ctx context.Context, path, agentType string) (*StartedSession, error)

	// Rewrite starts a rewrite session with the given instructions.
	Rewrite(ctx context.Context, path, instructions string) (*StartedSession, error)

	// Cancel requests best-effort cancellation of a session.
	Cancel(ctx context.Context, sessionID string) error

	// GetSession fetches the full session record (status + output).
	GetSession(ctx context.Context, sessionID string) (*Session, error)

	// ListAgentTypes returns the agent types available to assign.
	ListAgentTypes(ctx context.Context) ([]AgentType, error)
}

// StartedSession is the result of a session-starting call.
type StartedSession struct {
	SessionID string
	Status    SessionStatus
}

// AgentType describes one available coding agent.
type AgentType struct {
	Name   string
	Models []string
}

// FileChange describes one file touched by a task's sessions.
type FileChange struct {
	Path      string
	Additions int
	Deletions int
}

// MergeResult is the outcome of a branch merge.
type MergeResult struct {
	Success         bool
	MergeCommitHash string
	Error           string
}

// RevertResult is the outcome of a merge revert.
type RevertResult struct {
	Success          bool
	RevertCommitHash string
	Error            string
}

// UncommittedState reports uncommitted work in the task's worktree.
type UncommittedState struct {
	HasUncommitted   bool
	UncommittedFiles []string
}

// GitService is the contract the workflow requires from the git
// operations backend. Merge/revert semantics are the backend's; the
// core only consumes success/hash reports.
type GitService interface {
	// ChangedFiles lists the files changed by the task's sessions.
	ChangedFiles(ctx context.Context, path string) ([]FileChange, error)

	// HasUncommittedChanges reports uncommitted work for the task.
	HasUncommittedChanges(ctx context.Context, path string) (*UncommittedState, error)

	// GenerateCommitMessage asks the backend for a commit message.
	GenerateCommitMessage(ctx context.Context, title, description string, files []FileChange) (string, error)

	// CommitScoped commits exactly the given files with the message.
	CommitScoped(ctx context.Context, files []string, message string) (string, error)

	// MergeBranch merges source into target.
	MergeBranch(ctx context.Context, source, target string) (*MergeResult, error)

	// RevertMerge reverts the given merge commit.
	RevertMerge(ctx context.Context, commitHash string) (*RevertResult, error)
}

// DebugService is the console RPC surface for multi-agent debug runs.
type DebugService interface {
	// RunStatus reports the aggregate status of a debug run's members.
	RunStatus(ctx context.Context, debugRunID string) (*DebugRunStatus, error)

	// Orchestrate triggers the synthesis session for a completed run.
	Orchestrate(ctx context.Context, debugRunID, taskPath string) (string, error)
}

// TaskMirror persists the local task cache between processes so
// optimistic state and drafts survive restarts.
type TaskMirror interface {
	// Load reads the mirrored tasks keyed by path.
	Load() (map[string]*Task, error)

	// Store writes the mirrored tasks.
	Store(tasks map[string]*Task) error
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (repo + global).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
}

// Logger writes categorized log entries, globally and per task.
type Logger interface {
	Debug(taskPath, category, msg string)
	Info(taskPath, category, msg string)
	Warn(taskPath, category, msg string)
	Error(taskPath, category, msg string)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
