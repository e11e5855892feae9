package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// RevertMergeInput contains the parameters for reverting a failed
// merge.
type RevertMergeInput struct {
	Path string
}

// RevertMergeOutput contains the revert commit hash.
type RevertMergeOutput struct {
	RevertCommitHash string
}

// RevertMerge is the use case for undoing the outstanding merge of a
// task that failed QA.
type RevertMerge struct {
	tasks domain.TaskService
	git   domain.GitService
	cache *cache.Store[domain.Task]
	clock domain.Clock
	log   domain.Logger
}

// NewRevertMerge creates a new RevertMerge use case.
func NewRevertMerge(tasks domain.TaskService, git domain.GitService, c *cache.Store[domain.Task], clock domain.Clock, log domain.Logger) *RevertMerge {
	return &RevertMerge{tasks: tasks, git: git, cache: c, clock: clock, log: log}
}

// Execute reverts the outstanding merge commit. Only a task marked
// qa-fail with an unreverted entry is eligible; stamping the entry
// clears the QA status back to none so the task can be merged again
// after a rewrite.
func (uc *RevertMerge) Execute(ctx context.Context, in RevertMergeInput) (*RevertMergeOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.QAStatus != domain.QAFail {
		return nil, domain.ErrQANotFailed
	}
	outstanding := task.OutstandingMerge()
	if outstanding == nil {
		return nil, domain.ErrNoOutstandingMerge
	}

	res, err := uc.git.RevertMerge(ctx, outstanding.CommitHash)
	if err != nil {
		return nil, fmt.Errorf("revert merge: %w", err)
	}
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrRevertFailed, res.Error)
	}

	now := uc.clock.Now()
	err = cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			_ = t.StampRevert(res.RevertCommitHash, now)
			return t
		},
		func() (func(), error) {
			if err := uc.tasks.RecordRevert(ctx, in.Path, outstanding.CommitHash, res.RevertCommitHash); err != nil {
				// Same shape as the merge record path: the revert
				// commit exists either way, so keep the local stamp.
				uc.log.Error(in.Path, "revert", fmt.Sprintf("record revert %s: %v", res.RevertCommitHash, err))
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &RevertMergeOutput{RevertCommitHash: res.RevertCommitHash}, nil
}
