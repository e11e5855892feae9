package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// ArchiveTaskInput contains the parameters for archiving or restoring.
type ArchiveTaskInput struct {
	Path string
}

// ArchiveTaskOutput contains the resulting task state.
type ArchiveTaskOutput struct {
	Task domain.Task
}

// ArchiveTask is the use case for archiving and restoring tasks.
type ArchiveTask struct {
	tasks domain.TaskService
	cache *cache.Store[domain.Task]
	clock domain.Clock
}

// NewArchiveTask creates a new ArchiveTask use case.
func NewArchiveTask(tasks domain.TaskService, c *cache.Store[domain.Task], clock domain.Clock) *ArchiveTask {
	return &ArchiveTask{tasks: tasks, cache: c, clock: clock}
}

// Execute archives the task. The archived flag and timestamp are
// patched optimistically and rolled back if the remote call fails.
func (uc *ArchiveTask) Execute(ctx context.Context, in ArchiveTaskInput) (*ArchiveTaskOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Archived {
		return nil, domain.ErrTaskArchived
	}

	now := uc.clock.Now()
	err := cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			t.Archived = true
			t.ArchivedAt = &now
			return t
		},
		func() (func(), error) {
			if err := uc.tasks.Archive(ctx, in.Path); err != nil {
				return nil, fmt.Errorf("archive task: %w", err)
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}

	got, _ := uc.cache.Get(in.Path)
	return &ArchiveTaskOutput{Task: got}, nil
}

// Restore clears the archived flag, mirroring Execute's protocol.
func (uc *ArchiveTask) Restore(ctx context.Context, in ArchiveTaskInput) (*ArchiveTaskOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if !task.Archived {
		return nil, domain.ErrTaskNotArchived
	}

	err := cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			t.Archived = false
			t.ArchivedAt = nil
			return t
		},
		func() (func(), error) {
			if err := uc.tasks.Restore(ctx, in.Path); err != nil {
				return nil, fmt.Errorf("restore task: %w", err)
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}

	got, _ := uc.cache.Get(in.Path)
	return &ArchiveTaskOutput{Task: got}, nil
}
