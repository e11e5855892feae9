package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePhase_Rules(t *testing.T) {
	archived := &Task{Path: "tasks/a.md", Archived: true}
	plain := &Task{Path: "tasks/a.md"}

	pendingQA := &Task{Path: "tasks/a.md"}
	require.NoError(t, pendingQA.AppendMerge("abc123", "s1", time.Now()))

	failedQA := &Task{Path: "tasks/a.md"}
	require.NoError(t, failedQA.AppendMerge("abc123", "s1", time.Now()))
	failedQA.QAStatus = QAFail

	tests := []struct {
		name    string
		task    *Task
		session *Session
		prog    Progress
		want    Phase
	}{
		{"nil task", nil, nil, Progress{}, PhaseIdle},
		{"archived", archived, nil, Progress{}, PhaseArchived},
		{"archived mid-restore", archived, nil, Progress{Restoring: true}, PhaseIdle},
		{"planning purpose", plain, &Session{Purpose: PurposePlanning, Status: SessionRunning}, Progress{}, PhasePlanning},
		{"debug counts as planning", plain, &Session{Purpose: PurposeDebug, Status: SessionRunning}, Progress{}, PhasePlanning},
		{"plan placeholder prompt", plain, &Session{Purpose: PurposeExecution, Prompt: PlanPlaceholder, Status: SessionRunning}, Progress{}, PhasePlanning},
		{"executing", plain, &Session{Purpose: PurposeExecution, Status: SessionWorking}, Progress{}, PhaseImplementing},
		{"verifying", plain, &Session{Purpose: PurposeVerify, Status: SessionRunning}, Progress{}, PhaseVerifying},
		{"reviewing", plain, &Session{Purpose: PurposeReview, Status: SessionRunning}, Progress{}, PhaseReviewing},
		{"rewriting", plain, &Session{Purpose: PurposeRewrite, Status: SessionRunning}, Progress{}, PhaseRewriting},
		{"terminal session ignored", plain, &Session{Purpose: PurposeExecution, Status: SessionCompleted}, Progress{}, PhaseIdle},
		{"debating", plain, nil, Progress{OpenReviews: 2}, PhaseDebating},
		{"merged pending qa", pendingQA, nil, Progress{}, PhaseMergedPendingQA},
		{"qa failed", failedQA, nil, Progress{}, PhaseQAFailed},
		{"idle", plain, nil, Progress{}, PhaseIdle},
		// Active session outranks pending QA: re-implementing while a
		// merge awaits QA shows as implementing.
		{"session outranks qa", pendingQA, &Session{Purpose: PurposeExecution, Status: SessionRunning}, Progress{}, PhaseImplementing},
		// Archived outranks everything.
		{"archived outranks session", archived, &Session{Purpose: PurposeExecution, Status: SessionRunning}, Progress{}, PhaseArchived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePhase(tt.task, tt.session, tt.prog)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDerivePhase_Pure(t *testing.T) {
	task := &Task{Path: "tasks/a.md"}
	require.NoError(t, task.AppendMerge("abc123", "s1", time.Now()))
	session := &Session{Purpose: PurposeVerify, Status: SessionRunning}

	first := DerivePhase(task, session, Progress{})
	second := DerivePhase(task, session, Progress{})
	assert.Equal(t, first, second)
	assert.Equal(t, PhaseVerifying, first)
}

func TestDerivePhase_QAFailedAfterRevert(t *testing.T) {
	// Once the failed entry is reverted the phase returns to idle.
	task := &Task{Path: "tasks/a.md"}
	require.NoError(t, task.AppendMerge("abc123", "s1", time.Now()))
	task.QAStatus = QAFail
	require.NoError(t, task.StampRevert("def456", time.Now()))

	assert.Equal(t, PhaseIdle, DerivePhase(task, nil, Progress{}))
}
