package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// SetQAStatusInput contains the parameters for recording a QA verdict.
type SetQAStatusInput struct {
	Path   string
	Status domain.QAStatus
}

// SetQAStatusOutput contains the resulting status.
type SetQAStatusOutput struct {
	Status domain.QAStatus
}

// SetQAStatus is the use case for recording a pass or fail verdict on
// a merged task awaiting QA.
type SetQAStatus struct {
	tasks domain.TaskService
	cache *cache.Store[domain.Task]
	clock domain.Clock
}

// NewSetQAStatus creates a new SetQAStatus use case.
func NewSetQAStatus(tasks domain.TaskService, c *cache.Store[domain.Task], clock domain.Clock) *SetQAStatus {
	return &SetQAStatus{tasks: tasks, cache: c, clock: clock}
}

// Execute requires the task to be awaiting QA with an outstanding merge
// entry; a verdict without a merge to judge is rejected.
func (uc *SetQAStatus) Execute(ctx context.Context, in SetQAStatusInput) (*SetQAStatusOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.QAStatus != domain.QAPending || task.OutstandingMerge() == nil {
		return nil, domain.ErrQANotPending
	}
	if !task.QAStatus.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrQANotPending, task.QAStatus, in.Status)
	}

	now := uc.clock.Now()
	err := cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			t.QAStatus = in.Status
			t.Updated = now
			return t
		},
		func() (func(), error) {
			if err := uc.tasks.SetQAStatus(ctx, in.Path, in.Status); err != nil {
				return nil, fmt.Errorf("set qa status: %w", err)
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &SetQAStatusOutput{Status: in.Status}, nil
}
