package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
	"github.com/okabe-dev/agentdeck/internal/testutil"
)

func newCreateTaskFixture() (*CreateTask, *testutil.MockTaskService, *cache.Store[domain.Task], *orchestrator.Registry) {
	svc := testutil.NewMockTaskService()
	store := cache.NewStore[domain.Task]()
	reg := orchestrator.NewRegistry()
	clock := &testutil.MockClock{NowTime: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	return NewCreateTask(svc, store, reg, clock), svc, store, reg
}

func TestCreateTask_RekeysProvisionalEntry(t *testing.T) {
	uc, svc, store, _ := newCreateTaskFixture()
	svc.CreatedPath = "tasks/add-feature-x.md"

	out, err := uc.Execute(context.Background(), CreateTaskInput{Title: "Add feature X", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "tasks/add-feature-x.md", out.Path)

	_, ok := store.Get("pending/add-feature-x.md")
	assert.False(t, ok, "provisional entry must be re-keyed away")

	task, ok := store.Get("tasks/add-feature-x.md")
	require.True(t, ok)
	assert.Equal(t, "Add feature X", task.Title)
	assert.Equal(t, "body", task.Content)
}

func TestCreateTask_FailureRemovesProvisionalEntry(t *testing.T) {
	uc, svc, store, _ := newCreateTaskFixture()
	svc.CreateErr = errors.New("server down")

	_, err := uc.Execute(context.Background(), CreateTaskInput{Title: "Doomed"})
	require.Error(t, err)

	assert.Equal(t, 0, store.Len(), "rollback must remove the provisional entry")
}

func TestCreateTask_WithAgentRegistersSession(t *testing.T) {
	uc, svc, _, reg := newCreateTaskFixture()
	svc.CreatedPath = "tasks/planned.md"
	svc.CreatedSession = "sess-1"

	out, err := uc.Execute(context.Background(), CreateTaskInput{Title: "Planned", AgentType: "coder"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", out.SessionID)

	entry, ok := reg.Get("tasks/planned.md")
	require.True(t, ok)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Equal(t, domain.SessionPending, entry.Status)
}

func TestCreateTask_EmptyTitle(t *testing.T) {
	uc, _, _, _ := newCreateTaskFixture()
	_, err := uc.Execute(context.Background(), CreateTaskInput{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "add-feature-x.md", slugify("Add Feature X"))
	assert.Equal(t, "fix-bug-42.md", slugify("  Fix  bug 42! "))
	assert.Equal(t, "task.md", slugify("???"))
}
