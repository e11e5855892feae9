package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// DeleteTaskInput contains the parameters for deleting a task.
type DeleteTaskInput struct {
	Path string
}

// DeleteTaskOutput contains the result of deleting a task.
type DeleteTaskOutput struct {
	Path string
}

// DeleteTask is the use case for permanently deleting a task.
type DeleteTask struct {
	tasks domain.TaskService
	cache *cache.Store[domain.Task]
}

// NewDeleteTask creates a new DeleteTask use case.
func NewDeleteTask(tasks domain.TaskService, c *cache.Store[domain.Task]) *DeleteTask {
	return &DeleteTask{tasks: tasks, cache: c}
}

// Execute removes the task optimistically and restores the cached entry
// verbatim if the remote delete fails.
func (uc *DeleteTask) Execute(ctx context.Context, in DeleteTaskInput) (*DeleteTaskOutput, error) {
	if _, ok := uc.cache.Get(in.Path); !ok {
		if _, err := uc.tasks.Get(ctx, in.Path); err != nil {
			return nil, err
		}
	}

	err := cache.MutateDelete(uc.cache, in.Path, func() error {
		if err := uc.tasks.Delete(ctx, in.Path); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DeleteTaskOutput{Path: in.Path}, nil
}
