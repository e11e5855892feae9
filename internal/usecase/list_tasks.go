// Package usecase implements the application operations over the
// console RPC contract, each following the optimistic cache protocol.
package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	IncludeArchived bool
}

// ListTasksOutput contains the listed tasks.
type ListTasksOutput struct {
	Tasks []*domain.Task
}

// ListTasks refreshes the local task cache from the console and returns
// the tasks ordered by path.
type ListTasks struct {
	tasks  domain.TaskService
	cache  *cache.Store[domain.Task]
	mirror domain.TaskMirror
}

// NewListTasks creates a new ListTasks use case. mirror may be nil.
func NewListTasks(tasks domain.TaskService, c *cache.Store[domain.Task], mirror domain.TaskMirror) *ListTasks {
	return &ListTasks{tasks: tasks, cache: c, mirror: mirror}
}

// Execute fetches the task list, reconciles the cache with server data
// and persists the mirror.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	tasks, err := uc.tasks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	byPath := make(map[string]*domain.Task, len(tasks))
	var out []*domain.Task
	for _, t := range tasks {
		uc.cache.Set(t.Path, *t)
		byPath[t.Path] = t
		if t.Archived && !in.IncludeArchived {
			continue
		}
		out = append(out, t)
	}

	// Mirror persistence is best effort; the in-memory cache is current.
	if uc.mirror != nil {
		_ = uc.mirror.Store(byPath)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return &ListTasksOutput{Tasks: out}, nil
}
