package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// ListAgentsOutput contains the available agent types.
type ListAgentsOutput struct {
	Agents []domain.AgentType
}

// ListAgents is the use case for listing assignable agent types.
type ListAgents struct {
	sessions domain.SessionService
}

// NewListAgents creates a new ListAgents use case.
func NewListAgents(sessions domain.SessionService) *ListAgents {
	return &ListAgents{sessions: sessions}
}

// Execute lists the agent types sorted by name.
func (uc *ListAgents) Execute(ctx context.Context) (*ListAgentsOutput, error) {
	agents, err := uc.sessions.ListAgentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agent types: %w", err)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return &ListAgentsOutput{Agents: agents}, nil
}
