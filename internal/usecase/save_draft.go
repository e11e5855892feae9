package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
)

// SaveDraftInput contains the parameters for saving a task draft.
type SaveDraftInput struct {
	Path    string
	Content string
}

// SaveDraftOutput contains the result of saving a draft.
type SaveDraftOutput struct {
	Saved bool
}

// SaveDraft is the use case for persisting task markdown edits.
// Execute saves immediately under the optimistic protocol; Schedule
// debounces rapid edits, coalescing them into one save per quiet
// period. Timers are keyed per task so switching tasks never leaks a
// pending save across keys.
type SaveDraft struct {
	tasks    domain.TaskService
	cache    *cache.Store[domain.Task]
	clock    domain.Clock
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	drafts  map[string]string
}

// NewSaveDraft creates a new SaveDraft use case.
func NewSaveDraft(tasks domain.TaskService, c *cache.Store[domain.Task], clock domain.Clock, debounce time.Duration) *SaveDraft {
	return &SaveDraft{
		tasks:    tasks,
		cache:    c,
		clock:    clock,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		drafts:   make(map[string]string),
	}
}

// Execute saves the draft content now. The cached content and version
// counter are patched optimistically and rolled back on failure.
func (uc *SaveDraft) Execute(ctx context.Context, in SaveDraftInput) (*SaveDraftOutput, error) {
	if _, ok := uc.cache.Get(in.Path); !ok {
		return nil, domain.ErrTaskNotFound
	}

	now := uc.clock.Now()
	err := cache.Mutate(uc.cache, in.Path,
		func(t domain.Task) domain.Task {
			t.Content = in.Content
			t.Version++
			t.Updated = now
			return t
		},
		func() (func(), error) {
			if err := uc.tasks.Save(ctx, in.Path, in.Content); err != nil {
				return nil, fmt.Errorf("save draft: %w", err)
			}
			return nil, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &SaveDraftOutput{Saved: true}, nil
}

// Schedule records the draft and (re)arms the task's debounce timer.
// Each new edit within the quiet period pushes the save out again.
func (uc *SaveDraft) Schedule(in SaveDraftInput) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.drafts[in.Path] = in.Content
	if t, ok := uc.pending[in.Path]; ok {
		t.Reset(uc.debounce)
		return
	}
	uc.pending[in.Path] = time.AfterFunc(uc.debounce, func() {
		uc.flush(in.Path)
	})
}

// Flush saves any pending draft for the task immediately and stops its
// timer. Call on task-selection change and on shutdown.
func (uc *SaveDraft) Flush(path string) {
	uc.mu.Lock()
	t, armed := uc.pending[path]
	uc.mu.Unlock()
	if armed {
		t.Stop()
	}
	uc.flush(path)
}

func (uc *SaveDraft) flush(path string) {
	uc.mu.Lock()
	content, ok := uc.drafts[path]
	delete(uc.drafts, path)
	delete(uc.pending, path)
	uc.mu.Unlock()
	if !ok {
		return
	}
	// Best effort; a failed autosave leaves the draft in the cache only.
	_, _ = uc.Execute(context.Background(), SaveDraftInput{Path: path, Content: content})
}
