package orchestrator

import (
	"context"
	"testing"

	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugRun() domain.DebugRun {
	return domain.DebugRun{
		ID:         "r1",
		TaskPath:   "tasks/a.md",
		SessionIDs: []string{"s1", "s2", "s3"},
	}
}

func TestDebugOrchestrator_NotAllTerminal(t *testing.T) {
	debug := &testutil.MockDebugService{
		Status: &domain.DebugRunStatus{AllTerminal: false},
	}
	o := NewDebugOrchestrator(debug, 0, testutil.NopLogger{})

	_, fired, err := o.Poll(context.Background(), debugRun())
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Zero(t, debug.OrchCalls, "orchestrator must not fire while a member is still running")
}

func TestDebugOrchestrator_FiresOnceOnAllTerminal(t *testing.T) {
	debug := &testutil.MockDebugService{
		Status:    &domain.DebugRunStatus{AllTerminal: true},
		SessionID: "orch-1",
	}
	o := NewDebugOrchestrator(debug, 0, testutil.NopLogger{})

	id, fired, err := o.Poll(context.Background(), debugRun())
	require.NoError(t, err)
	require.True(t, fired)
	assert.Equal(t, "orch-1", id)

	// Consecutive polls still report all-terminal; must not fire again
	_, fired, err = o.Poll(context.Background(), debugRun())
	require.NoError(t, err)
	assert.False(t, fired)
	_, fired, err = o.Poll(context.Background(), debugRun())
	require.NoError(t, err)
	assert.False(t, fired)

	assert.Equal(t, 1, debug.OrchCalls)
	assert.True(t, o.Fired("r1"))
}

func TestDebugOrchestrator_MembersCompleteIncrementally(t *testing.T) {
	debug := &testutil.MockDebugService{
		Status:    &domain.DebugRunStatus{AllTerminal: false},
		SessionID: "orch-1",
	}
	o := NewDebugOrchestrator(debug, 0, testutil.NopLogger{})
	ctx := context.Background()

	// s1, s2 done, s3 still running
	_, fired, _ := o.Poll(ctx, debugRun())
	assert.False(t, fired)

	// s3 completes; next poll reports all terminal
	debug.Status = &domain.DebugRunStatus{AllTerminal: true}
	id, fired, err := o.Poll(ctx, debugRun())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, "orch-1", id)
	assert.Equal(t, 1, debug.OrchCalls)
}

func TestDebugOrchestrator_StatusErrorKeepsArmed(t *testing.T) {
	debug := &testutil.MockDebugService{StatusErr: assert.AnError}
	o := NewDebugOrchestrator(debug, 0, testutil.NopLogger{})

	_, fired, err := o.Poll(context.Background(), debugRun())
	assert.Error(t, err)
	assert.False(t, fired)
	assert.False(t, o.Fired("r1"))
}

func TestDebugOrchestrator_OrchestrateFailureAllowsRetry(t *testing.T) {
	debug := &testutil.MockDebugService{
		Status:    &domain.DebugRunStatus{AllTerminal: true},
		SessionID: "orch-1",
		OrchErr:   assert.AnError,
	}
	o := NewDebugOrchestrator(debug, 0, testutil.NopLogger{})
	ctx := context.Background()

	_, fired, err := o.Poll(ctx, debugRun())
	assert.Error(t, err)
	assert.False(t, fired)

	// Failure released the guard; a later poll retries and succeeds
	debug.OrchErr = nil
	id, fired, err := o.Poll(ctx, debugRun())
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, "orch-1", id)
	assert.Equal(t, 2, debug.OrchCalls)
}

func TestDebugOrchestrator_IndependentRuns(t *testing.T) {
	debug := &testutil.MockDebugService{
		Status:    &domain.DebugRunStatus{AllTerminal: true},
		SessionID: "orch-1",
	}
	o := NewDebugOrchestrator(debug, 0, testutil.NopLogger{})
	ctx := context.Background()

	_, fired, _ := o.Poll(ctx, domain.DebugRun{ID: "r1", TaskPath: "tasks/a.md"})
	assert.True(t, fired)

	// A different run id has its own guard
	_, fired, _ = o.Poll(ctx, domain.DebugRun{ID: "r2", TaskPath: "tasks/b.md"})
	assert.True(t, fired)
	assert.Equal(t, 2, debug.OrchCalls)
}
