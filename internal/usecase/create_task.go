package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// CreateTaskInput contains the parameters for creating a task.
type CreateTaskInput struct {
	Title     string
	Content   string
	AgentType string // Non-empty: bundle a planning session
	Model     string
}

// CreateTaskOutput contains the result of creating a task.
type CreateTaskOutput struct {
	Path      string
	SessionID string // Set when a planning session was bundled
}

// CreateTask is the use case for creating a task, optionally bundled
// with an agent planning session.
type CreateTask struct {
	tasks    domain.TaskService
	cache    *cache.Store[domain.Task]
	registry *orchestrator.Registry
	clock    domain.Clock
}

// NewCreateTask creates a new CreateTask use case.
func NewCreateTask(tasks domain.TaskService, c *cache.Store[domain.Task], registry *orchestrator.Registry, clock domain.Clock) *CreateTask {
	return &CreateTask{tasks: tasks, cache: c, registry: registry, clock: clock}
}

// Execute creates the task following the optimistic protocol: a
// provisional cache entry appears immediately and is re-keyed to the
// server-assigned path on success, or removed on failure.
func (uc *CreateTask) Execute(ctx context.Context, in CreateTaskInput) (*CreateTaskOutput, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}

	provisional := "pending/" + slugify(in.Title)
	now := uc.clock.Now()
	out := &CreateTaskOutput{}

	err := cache.Mutate(uc.cache, provisional,
		func(domain.Task) domain.Task {
			return domain.Task{
				Path:    provisional,
				Title:   in.Title,
				Content: in.Content,
				Created: now,
				Updated: now,
			}
		},
		func() (func(), error) {
			opts := domain.CreateTaskOptions{Content: in.Content, AgentType: in.AgentType, Model: in.Model}

			if in.AgentType == "" {
				path, err := uc.tasks.Create(ctx, in.Title, opts)
				if err != nil {
					return nil, fmt.Errorf("create task: %w", err)
				}
				out.Path = path
				return uc.rekey(provisional, path, in), nil
			}

			created, err := uc.tasks.CreateWithAgent(ctx, in.Title, opts)
			if err != nil {
				return nil, fmt.Errorf("create task with agent: %w", err)
			}
			out.Path = created.Path
			out.SessionID = created.SessionID
			return uc.rekey(provisional, created.Path, in), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if out.SessionID != "" {
		uc.registry.Observe(out.Path, out.SessionID, domain.SessionPending)
	}
	return out, nil
}

// rekey moves the provisional entry under the server-assigned path.
func (uc *CreateTask) rekey(provisional, path string, in CreateTaskInput) func() {
	return func() {
		uc.cache.Delete(provisional)
		task, _ := uc.cache.Get(path)
		task.Path = path
		task.Title = in.Title
		task.Content = in.Content
		if task.Created.IsZero() {
			task.Created = uc.clock.Now()
		}
		task.Updated = uc.clock.Now()
		uc.cache.Set(path, task)
	}
}

// slugify turns a title into a provisional path segment.
func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		s = "task"
	}
	return s + ".md"
}
