package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// VerifyTaskInput contains the parameters for starting verification.
type VerifyTaskInput struct {
	Path      string
	AgentType string
}

// VerifyTaskOutput contains the started session.
type VerifyTaskOutput struct {
	SessionID string
	Status    domain.SessionStatus
}

// VerifyTask is the use case for starting a verification session.
type VerifyTask struct {
	sessions domain.SessionService
	cache    *cache.Store[domain.Task]
	registry *orchestrator.Registry
}

// NewVerifyTask creates a new VerifyTask use case.
func NewVerifyTask(sessions domain.SessionService, c *cache.Store[domain.Task], registry *orchestrator.Registry) *VerifyTask {
	return &VerifyTask{sessions: sessions, cache: c, registry: registry}
}

// Execute starts verification under the same provisional-entry protocol
// as AssignAgent.
func (uc *VerifyTask) Execute(ctx context.Context, in VerifyTaskInput) (*VerifyTaskOutput, error) {
	if _, ok := uc.cache.Get(in.Path); !ok {
		return nil, domain.ErrTaskNotFound
	}

	restore, err := uc.registry.Begin(in.Path, provisionalID(in.Path))
	if err != nil {
		return nil, err
	}

	started, err := uc.sessions.Verify(ctx, in.Path, in.AgentType)
	if err != nil {
		restore()
		return nil, fmt.Errorf("verify with agent: %w", err)
	}

	uc.registry.Observe(in.Path, started.SessionID, started.Status)
	return &VerifyTaskOutput{SessionID: started.SessionID, Status: started.Status}, nil
}
