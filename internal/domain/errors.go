package domain

import "errors"

// Domain errors.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionRunning     = errors.New("session already running")
	ErrNoSession          = errors.New("no active session")
	ErrNoWorktreeBranch   = errors.New("active session has no worktree branch")
	ErrEmptyTitle         = errors.New("title cannot be empty")
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
	ErrUnknownStatus      = errors.New("unknown session status")
	ErrMergeOutstanding   = errors.New("a merge is already outstanding")
	ErrNoOutstandingMerge = errors.New("no outstanding merge entry")
	ErrAlreadyReverted    = errors.New("merge entry already reverted")
	ErrQANotPending       = errors.New("qa status is not pending")
	ErrQANotFailed        = errors.New("qa status is not fail")
	ErrTaskArchived       = errors.New("task is archived")
	ErrTaskNotArchived    = errors.New("task is not archived")
	ErrNoSections         = errors.New("no sections selected")
	ErrNothingToCommit    = errors.New("nothing to commit")
	ErrMergeFailed        = errors.New("merge failed")
	ErrRevertFailed       = errors.New("revert failed")
	ErrAlreadyTriggered   = errors.New("orchestrator already triggered for debug run")
	ErrNotGitRepository   = errors.New("not a git repository (or any of the parent directories)")
)
