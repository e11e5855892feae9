package usecase

import (
	"context"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// AssignAgentInput contains the parameters for starting an
// implementation session.
type AssignAgentInput struct {
	Path      string
	AgentType string
	Model     string // Optional model override
}

// AssignAgentOutput contains the started session.
type AssignAgentOutput struct {
	SessionID string
	Status    domain.SessionStatus
}

// AssignAgent is the use case for assigning a task to a coding agent.
type AssignAgent struct {
	sessions domain.SessionService
	cache    *cache.Store[domain.Task]
	registry *orchestrator.Registry
}

// NewAssignAgent creates a new AssignAgent use case.
func NewAssignAgent(sessions domain.SessionService, c *cache.Store[domain.Task], registry *orchestrator.Registry) *AssignAgent {
	return &AssignAgent{sessions: sessions, cache: c, registry: registry}
}

// Execute inserts a provisional registry entry before the network call
// and rolls it back to the pre-action snapshot if the call fails. The
// double-submit guard in the registry rejects a second start while a
// session is already running.
func (uc *AssignAgent) Execute(ctx context.Context, in AssignAgentInput) (*AssignAgentOutput, error) {
	task, ok := uc.cache.Get(in.Path)
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if task.Archived {
		return nil, domain.ErrTaskArchived
	}

	restore, err := uc.registry.Begin(in.Path, provisionalID(in.Path))
	if err != nil {
		return nil, err
	}

	started, err := uc.sessions.Assign(ctx, in.Path, in.AgentType, in.Model)
	if err != nil {
		restore()
		return nil, fmt.Errorf("assign to agent: %w", err)
	}

	uc.registry.Observe(in.Path, started.SessionID, started.Status)
	return &AssignAgentOutput{SessionID: started.SessionID, Status: started.Status}, nil
}

// provisionalID names the placeholder registry entry for a task until
// the server assigns the real session id.
func provisionalID(path string) string {
	return "pending:" + path
}
