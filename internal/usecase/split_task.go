package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// SplitTaskInput contains the parameters for splitting a task.
type SplitTaskInput struct {
	Path            string
	SectionIndices  []int // Zero-based indices into the task's sections
	ArchiveOriginal bool
}

// SplitTaskOutput contains the result of splitting a task.
type SplitTaskOutput struct {
	NewPaths []string
}

// SplitTask is the use case for carving sections of a task out into new
// child tasks carrying a split-from back-reference.
type SplitTask struct {
	tasks domain.TaskService
	cache *cache.Store[domain.Task]
	clock domain.Clock
}

// NewSplitTask creates a new SplitTask use case.
func NewSplitTask(tasks domain.TaskService, c *cache.Store[domain.Task], clock domain.Clock) *SplitTask {
	return &SplitTask{tasks: tasks, cache: c, clock: clock}
}

// Execute validates the section selection, performs the split remotely
// and reflects the results in the cache. When ArchiveOriginal is set
// the source task is archived optimistically as part of the same patch.
func (uc *SplitTask) Execute(ctx context.Context, in SplitTaskInput) (*SplitTaskOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Archived {
		return nil, domain.ErrTaskArchived
	}

	sections := task.Sections()
	if len(in.SectionIndices) == 0 {
		return nil, domain.ErrNoSections
	}
	for _, idx := range in.SectionIndices {
		if idx < 0 || idx >= len(sections) {
			return nil, fmt.Errorf("%w: section %d of %d", domain.ErrNoSections, idx, len(sections))
		}
	}

	now := uc.clock.Now()
	out := &SplitTaskOutput{}

	err := cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			if in.ArchiveOriginal {
				t.Archived = true
				t.ArchivedAt = &now
			}
			return t
		},
		func() (func(), error) {
			paths, err := uc.tasks.Split(ctx, in.Path, in.SectionIndices, in.ArchiveOriginal)
			if err != nil {
				return nil, fmt.Errorf("split task: %w", err)
			}
			out.NewPaths = paths
			return func() {
				for i, p := range paths {
					if i >= len(in.SectionIndices) {
						break
					}
					sec := sections[in.SectionIndices[i]]
					uc.cache.Set(p, domain.Task{
						Path:      p,
						Title:     sec.Title,
						Content:   sec.Body,
						SplitFrom: in.Path,
						Created:   now,
						Updated:   now,
					})
				}
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
