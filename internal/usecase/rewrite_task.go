package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// RewriteTaskInput contains the parameters for starting a rewrite
// session with explicit instructions.
type RewriteTaskInput struct {
	Path         string
	Instructions string
}

// RewriteTaskOutput contains the started session.
type RewriteTaskOutput struct {
	SessionID string
}

// RewriteTask is the use case for starting a rewrite session.
type RewriteTask struct {
	sessions domain.SessionService
	cache    *cache.Store[domain.Task]
	registry *orchestrator.Registry
}

// NewRewriteTask creates a new RewriteTask use case.
func NewRewriteTask(sessions domain.SessionService, c *cache.Store[domain.Task], registry *orchestrator.Registry) *RewriteTask {
	return &RewriteTask{sessions: sessions, cache: c, registry: registry}
}

// Execute starts the rewrite under the provisional-entry protocol.
func (uc *RewriteTask) Execute(ctx context.Context, in RewriteTaskInput) (*RewriteTaskOutput, error) {
	if _, ok := uc.cache.Get(in.Path); !ok {
		return nil, domain.ErrTaskNotFound
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return nil, fmt.Errorf("%w: rewrite instructions required", domain.ErrEmptyTitle)
	}

	restore, err := uc.registry.Begin(in.Path, provisionalID(in.Path))
	if err != nil {
		return nil, err
	}

	started, err := uc.sessions.Rewrite(ctx, in.Path, in.Instructions)
	if err != nil {
		restore()
		return nil, fmt.Errorf("rewrite with agent: %w", err)
	}

	uc.registry.Observe(in.Path, started.SessionID, started.Status)
	return &RewriteTaskOutput{SessionID: started.SessionID}, nil
}
