package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/testutil"
)

// testDeps bundles the mocks behind a test container.
type testDeps struct {
	tasks    *testutil.MockTaskService
	sessions *testutil.MockSessionService
	git      *testutil.MockGitService
	debug    *testutil.MockDebugService
}

// newTestContainer creates an app.Container with mock dependencies.
func newTestContainer() (*app.Container, *testDeps) {
	deps := &testDeps{
		tasks:    testutil.NewMockTaskService(),
		sessions: testutil.NewMockSessionService(),
		git:      &testutil.MockGitService{},
		debug:    &testutil.MockDebugService{},
	}
	clock := &testutil.MockClock{NowTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := app.NewWithDeps(deps.tasks, deps.sessions, deps.git, deps.debug, clock)
	return c, deps
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestNewNewCommand_CreateTask(t *testing.T) {
	c, deps := newTestContainer()
	deps.tasks.CreatedPath = "tasks/test-task.md"

	cmd := newNewCommand(c)
	out, err := execute(t, cmd, "Test task")

	require.NoError(t, err)
	assert.Contains(t, out, "Created tasks/test-task.md")

	cached, ok := c.Cache.Get("tasks/test-task.md")
	require.True(t, ok)
	assert.Equal(t, "Test task", cached.Title)
}

func TestNewNewCommand_WithAgent(t *testing.T) {
	c, deps := newTestContainer()
	deps.tasks.CreatedPath = "tasks/auth.md"
	deps.tasks.CreatedSession = "sess-9"

	cmd := newNewCommand(c)
	out, err := execute(t, cmd, "Auth refactoring", "--agent", "coder")

	require.NoError(t, err)
	assert.Contains(t, out, "Planning session sess-9 started")

	entry, ok := c.Registry.Get("tasks/auth.md")
	require.True(t, ok)
	assert.Equal(t, "sess-9", entry.SessionID)
}

func TestNewListCommand_HidesArchived(t *testing.T) {
	c, deps := newTestContainer()
	deps.tasks.Tasks["tasks/a.md"] = &domain.Task{Path: "tasks/a.md", Title: "Alpha"}
	deps.tasks.Tasks["tasks/b.md"] = &domain.Task{Path: "tasks/b.md", Title: "Beta", Archived: true}

	cmd := newListCommand(c)
	out, err := execute(t, cmd)

	require.NoError(t, err)
	assert.Contains(t, out, "Alpha")
	assert.NotContains(t, out, "Beta")
}

func TestNewListCommand_AllIncludesArchived(t *testing.T) {
	c, deps := newTestContainer()
	deps.tasks.Tasks["tasks/b.md"] = &domain.Task{Path: "tasks/b.md", Title: "Beta", Archived: true}

	cmd := newListCommand(c)
	out, err := execute(t, cmd, "--all")

	require.NoError(t, err)
	assert.Contains(t, out, "Beta")
}

func TestNewShowCommand_MergeHistory(t *testing.T) {
	c, deps := newTestContainer()
	merged := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	reverted := merged.Add(2 * time.Hour)
	deps.tasks.Tasks["tasks/a.md"] = &domain.Task{
		Path:  "tasks/a.md",
		Title: "Alpha",
		MergeHistory: []domain.MergeEntry{
			{CommitHash: "abc123", MergedAt: merged, RevertedAt: &reverted, RevertCommitHash: "def456"},
		},
	}

	cmd := newShowCommand(c)
	out, err := execute(t, cmd, "tasks/a.md")

	require.NoError(t, err)
	assert.Contains(t, out, "Merged abc123")
	assert.Contains(t, out, "reverted by def456")
}

func TestNewEditCommand_RequiresBodyOrFile(t *testing.T) {
	c, _ := newTestContainer()

	cmd := newEditCommand(c)
	_, err := execute(t, cmd, "tasks/a.md")

	assert.Error(t, err)
}

func TestNewEditCommand_SavesBody(t *testing.T) {
	c, deps := newTestContainer()
	deps.tasks.Tasks["tasks/a.md"] = &domain.Task{Path: "tasks/a.md", Title: "Alpha"}
	c.Cache.Set("tasks/a.md", *deps.tasks.Tasks["tasks/a.md"])

	cmd := newEditCommand(c)
	out, err := execute(t, cmd, "tasks/a.md", "--body", "# New plan")

	require.NoError(t, err)
	assert.Contains(t, out, "Saved tasks/a.md")

	cached, ok := c.Cache.Get("tasks/a.md")
	require.True(t, ok)
	assert.Equal(t, "# New plan", cached.Content)
}

func TestNewDeleteCommand(t *testing.T) {
	c, deps := newTestContainer()
	deps.tasks.Tasks["tasks/a.md"] = &domain.Task{Path: "tasks/a.md", Title: "Alpha"}
	c.Cache.Set("tasks/a.md", *deps.tasks.Tasks["tasks/a.md"])

	cmd := newDeleteCommand(c)
	out, err := execute(t, cmd, "tasks/a.md")

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted tasks/a.md")
	assert.True(t, deps.tasks.DeleteCalled)
}

func TestNewArchiveCommand(t *testing.T) {
	c, deps := newTestContainer()
	c.Cache.Set("tasks/a.md", domain.Task{Path: "tasks/a.md", Title: "Alpha"})

	cmd := newArchiveCommand(c)
	out, err := execute(t, cmd, "tasks/a.md")

	require.NoError(t, err)
	assert.Contains(t, out, "Archived tasks/a.md")
	assert.True(t, deps.tasks.ArchiveCalled)

	cached, _ := c.Cache.Get("tasks/a.md")
	assert.True(t, cached.Archived)
}

func TestNewSplitCommand(t *testing.T) {
	c, deps := newTestContainer()
	c.Cache.Set("tasks/big.md", domain.Task{
		Path:    "tasks/big.md",
		Title:   "Big",
		Content: "## First\nbody\n\n## Second\nmore\n",
	})
	deps.tasks.SplitPaths = []string{"tasks/big-1.md", "tasks/big-2.md"}

	cmd := newSplitCommand(c)
	out, err := execute(t, cmd, "tasks/big.md", "--section", "0", "--section", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "Created tasks/big-1.md")
	assert.Contains(t, out, "Created tasks/big-2.md")
}
