package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// CommitTaskInput contains the parameters for committing a task's
// uncommitted work. Message overrides the pre-generated one when set.
type CommitTaskInput struct {
	Path    string
	Message string
}

// CommitTaskOutput contains the commit result.
type CommitTaskOutput struct {
	CommitHash string
	Message    string
	Files      []string
}

// CommitTask is the use case for committing the files a task's
// sessions left uncommitted, scoped to exactly those files.
type CommitTask struct {
	git     domain.GitService
	trigger *orchestrator.CommitMessageTrigger
	cache   *cache.Store[domain.Task]
}

// NewCommitTask creates a new CommitTask use case.
func NewCommitTask(git domain.GitService, trigger *orchestrator.CommitMessageTrigger, cache *cache.Store[domain.Task]) *CommitTask {
	return &CommitTask{git: git, trigger: trigger, cache: cache}
}

// Execute commits the task's uncommitted files. The message resolution
// order is: explicit input, then the pre-generated pending message,
// then a fresh generation request. Consuming the pending message clears
// it so a second commit never reuses a stale message.
func (uc *CommitTask) Execute(ctx context.Context, in CommitTaskInput) (*CommitTaskOutput, error) {
	state, err := uc.git.HasUncommittedChanges(ctx, in.Path)
	if err != nil {
		return nil, fmt.Errorf("check uncommitted: %w", err)
	}
	if !state.HasUncommitted || len(state.UncommittedFiles) == 0 {
		return nil, domain.ErrNothingToCommit
	}

	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		if pending, ok := uc.trigger.Consume(in.Path); ok {
			msg = pending
		}
	}
	if msg == "" {
		task, ok := uc.cache.Get(in.Path)
		if !ok {
			return nil, domain.ErrTaskNotFound
		}
		files, err := uc.git.ChangedFiles(ctx, in.Path)
		if err != nil {
			return nil, fmt.Errorf("list changed files: %w", err)
		}
		msg, err = uc.git.GenerateCommitMessage(ctx, task.Title, task.Content, files)
		if err != nil {
			return nil, fmt.Errorf("generate commit message: %w", err)
		}
	}

	hash, err := uc.git.CommitScoped(ctx, state.UncommittedFiles, msg)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &CommitTaskOutput{CommitHash: hash, Message: msg, Files: state.UncommittedFiles}, nil
}
