package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
	"github.com/okabe-dev/agentdeck/internal/testutil"
)

func newAssignFixture() (*AssignAgent, *testutil.MockSessionService, *cache.Store[domain.Task], *orchestrator.Registry) {
	svc := testutil.NewMockSessionService()
	store := cache.NewStore[domain.Task]()
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md"})
	reg := orchestrator.NewRegistry()
	return NewAssignAgent(svc, store, reg), svc, store, reg
}

func TestAssignAgent_RegistersSession(t *testing.T) {
	uc, svc, _, reg := newAssignFixture()
	svc.Started = &domain.StartedSession{SessionID: "sess-1", Status: domain.SessionRunning}

	out, err := uc.Execute(context.Background(), AssignAgentInput{Path: "tasks/a.md", AgentType: "coder"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", out.SessionID)

	entry, ok := reg.Get("tasks/a.md")
	require.True(t, ok)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.False(t, entry.Provisional)
}

func TestAssignAgent_FailureRestoresRegistry(t *testing.T) {
	uc, svc, _, reg := newAssignFixture()
	svc.AssignErr = errors.New("no capacity")

	_, err := uc.Execute(context.Background(), AssignAgentInput{Path: "tasks/a.md", AgentType: "coder"})
	require.Error(t, err)

	_, ok := reg.Get("tasks/a.md")
	assert.False(t, ok, "provisional entry must be rolled back")
}

func TestAssignAgent_DoubleSubmitRejected(t *testing.T) {
	uc, svc, _, reg := newAssignFixture()
	svc.Started = &domain.StartedSession{SessionID: "sess-1", Status: domain.SessionRunning}
	reg.Observe("tasks/a.md", "sess-0", domain.SessionRunning)

	_, err := uc.Execute(context.Background(), AssignAgentInput{Path: "tasks/a.md", AgentType: "coder"})
	assert.ErrorIs(t, err, domain.ErrSessionRunning)
}

func TestAssignAgent_ArchivedTaskRejected(t *testing.T) {
	uc, _, store, _ := newAssignFixture()
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md", Archived: true})

	_, err := uc.Execute(context.Background(), AssignAgentInput{Path: "tasks/a.md", AgentType: "coder"})
	assert.ErrorIs(t, err, domain.ErrTaskArchived)
}

func TestVerifyTask_RegistersSession(t *testing.T) {
	svc := testutil.NewMockSessionService()
	svc.Started = &domain.StartedSession{SessionID: "sess-v", Status: domain.SessionPending}
	store := cache.NewStore[domain.Task]()
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md"})
	reg := orchestrator.NewRegistry()

	uc := NewVerifyTask(svc, store, reg)
	out, err := uc.Execute(context.Background(), VerifyTaskInput{Path: "tasks/a.md", AgentType: "reviewer"})
	require.NoError(t, err)
	assert.Equal(t, "sess-v", out.SessionID)

	entry, _ := reg.Get("tasks/a.md")
	assert.Equal(t, "sess-v", entry.SessionID)
}

func TestRewriteTask_RequiresInstructions(t *testing.T) {
	svc := testutil.NewMockSessionService()
	store := cache.NewStore[domain.Task]()
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md"})
	reg := orchestrator.NewRegistry()

	uc := NewRewriteTask(svc, store, reg)
	_, err := uc.Execute(context.Background(), RewriteTaskInput{Path: "tasks/a.md", Instructions: "  "})
	require.Error(t, err)

	_, ok := reg.Get("tasks/a.md")
	assert.False(t, ok, "validation failure must not leave a registry entry")
}

func TestRewriteTask_FailureRestoresRegistry(t *testing.T) {
	svc := testutil.NewMockSessionService()
	svc.RewriteErr = errors.New("down")
	store := cache.NewStore[domain.Task]()
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md"})
	reg := orchestrator.NewRegistry()

	uc := NewRewriteTask(svc, store, reg)
	_, err := uc.Execute(context.Background(), RewriteTaskInput{Path: "tasks/a.md", Instructions: "tighten tests"})
	require.Error(t, err)

	_, ok := reg.Get("tasks/a.md")
	assert.False(t, ok)
}
