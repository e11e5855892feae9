package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/testutil"
)

func TestListAgents_SortedByName(t *testing.T) {
	svc := testutil.NewMockSessionService()
	svc.AgentTypes = []domain.AgentType{
		{Name: "zeta", Models: []string{"z1"}},
		{Name: "alpha", Models: []string{"a1", "a2"}},
	}

	uc := NewListAgents(svc)
	out, err := uc.Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, out.Agents, 2)
	assert.Equal(t, "alpha", out.Agents[0].Name)
	assert.Equal(t, "zeta", out.Agents[1].Name)
}
