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
	"github.com/okabe-dev/agentdeck/internal/testutil"
)

func newSaveDraftFixture(debounce time.Duration) (*SaveDraft, *testutil.MockTaskService, *cache.Store[domain.Task]) {
	svc := testutil.NewMockTaskService()
	store := cache.NewStore[domain.Task]()
	clock := &testutil.MockClock{NowTime: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	return NewSaveDraft(svc, store, clock, debounce), svc, store
}

func TestSaveDraft_ExecutePatchesContentAndVersion(t *testing.T) {
	uc, svc, store := newSaveDraftFixture(time.Minute)
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md", Content: "old", Version: 3})

	out, err := uc.Execute(context.Background(), SaveDraftInput{Path: "tasks/a.md", Content: "new"})
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.Equal(t, "new", svc.SavedContent["tasks/a.md"])

	task, _ := store.Get("tasks/a.md")
	assert.Equal(t, "new", task.Content)
	assert.Equal(t, 4, task.Version)
}

func TestSaveDraft_FailureRollsBackContent(t *testing.T) {
	uc, svc, store := newSaveDraftFixture(time.Minute)
	svc.SaveErr = errors.New("offline")
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md", Content: "old", Version: 3})

	_, err := uc.Execute(context.Background(), SaveDraftInput{Path: "tasks/a.md", Content: "new"})
	require.Error(t, err)

	task, _ := store.Get("tasks/a.md")
	assert.Equal(t, "old", task.Content)
	assert.Equal(t, 3, task.Version)
}

func TestSaveDraft_FlushSavesPendingDraft(t *testing.T) {
	// A long debounce keeps the timer from firing on its own; Flush must
	// save the latest scheduled draft synchronously.
	uc, svc, store := newSaveDraftFixture(time.Hour)
	store.Set("tasks/a.md", domain.Task{Path: "tasks/a.md"})

	uc.Schedule(SaveDraftInput{Path: "tasks/a.md", Content: "v1"})
	uc.Schedule(SaveDraftInput{Path: "tasks/a.md", Content: "v2"})
	assert.Empty(t, svc.SavedContent)

	uc.Flush("tasks/a.md")
	assert.Equal(t, "v2", svc.SavedContent["tasks/a.md"], "flush coalesces to the latest draft")
}

func TestSaveDraft_FlushWithoutPendingIsNoop(t *testing.T) {
	uc, svc, _ := newSaveDraftFixture(time.Hour)
	uc.Flush("tasks/a.md")
	assert.Empty(t, svc.SavedContent)
}

func TestSaveDraft_UnknownTask(t *testing.T) {
	uc, _, _ := newSaveDraftFixture(time.Minute)
	_, err := uc.Execute(context.Background(), SaveDraftInput{Path: "tasks/ghost.md", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
