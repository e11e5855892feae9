package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// MergeToMainInput contains the parameters for merging a task's branch.
type MergeToMainInput struct {
	Path         string
	TargetBranch string
}

// MergeToMainOutput contains the result of the merge.
type MergeToMainOutput struct {
	CommitHash string
}

// MergeToMain is the use case for merging a task's session branch into
// the target branch and recording the merge in the task's history.
type MergeToMain struct {
	tasks    domain.TaskService
	sessions domain.SessionService
	git      domain.GitService
	cache    *cache.Store[domain.Task]
	registry *orchestrator.Registry
	clock    domain.Clock
	log      domain.Logger
}

// NewMergeToMain creates a new MergeToMain use case.
func NewMergeToMain(tasks domain.TaskService, sessions domain.SessionService, git domain.GitService, c *cache.Store[domain.Task], registry *orchestrator.Registry, clock domain.Clock, log domain.Logger) *MergeToMain {
	return &MergeToMain{tasks: tasks, sessions: sessions, git: git, cache: c, registry: registry, clock: clock, log: log}
}

// Execute merges the branch of the task's most recent session. The
// merge is refused while an earlier merge is still unreverted, so the
// history never carries two outstanding entries. The history append and
// QA transition are patched optimistically before the server-side
// record call; a failed record is logged and kept local rather than
// rolled back, since the merge commit itself already exists.
func (uc *MergeToMain) Execute(ctx context.Context, in MergeToMainInput) (*MergeToMainOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if !task.CanMerge() {
		return nil, domain.ErrMergeOutstanding
	}

	branch, sessionID, err := uc.sessionBranch(ctx, in.Path)
	if err != nil {
		return nil, err
	}

	res, err := uc.git.MergeBranch(ctx, branch, in.TargetBranch)
	if err != nil {
		return nil, fmt.Errorf("merge branch: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrMergeFailed, res.Error)
	}

	now := uc.clock.Now()
	err = cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			_ = t.AppendMerge(res.MergeCommitHash, sessionID, now)
			return t
		},
		func() (func(), error) {
			if err := uc.tasks.RecordMerge(ctx, in.Path, sessionID, res.MergeCommitHash); err != nil {
				// The merge commit is already on the target branch, so
				// rolling back the cache would lose the only record of
				// it. Keep the local entry and surface the failure in
				// the log for reconciliation on the next refresh.
				uc.log.Error(in.Path, "merge", fmt.Sprintf("record merge %s: %v", res.MergeCommitHash, err))
			} else if err := uc.tasks.SetQAStatus(ctx, in.Path, domain.QAPending); err != nil {
				uc.log.Error(in.Path, "merge", fmt.Sprintf("set qa pending: %v", err))
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &MergeToMainOutput{CommitHash: res.MergeCommitHash}, nil
}

// sessionBranch resolves the branch to merge from the task's active or
// most recent session.
func (uc *MergeToMain) sessionBranch(ctx context.Context, path string) (branch, sessionID string, err error) {
	entry, ok := uc.registry.Get(path)
	if !ok {
		return "", "", domain.ErrNoSession
	}
	s, err := uc.sessions.GetSession(ctx, entry.SessionID)
	if err != nil {
		return "", "", fmt.Errorf("fetch session: %w", err)
	}
	if s.Branch == "" {
		return "", "", domain.ErrNoWorktreeBranch
	}
	return s.Branch, s.ID, nil
}
