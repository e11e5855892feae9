package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

type entry struct {
	Title   string
	Version int
}

func TestMutate_Success(t *testing.T) {
	s := NewStore[entry]()
	s.Set("tasks/a.md", entry{Title: "old", Version: 1})

	err := Mutate(s, "tasks/a.md",
		func(e entry) entry { e.Title = "new"; return e },
		func() (func(), error) { return nil, nil },
	)
	require.NoError(t, err)

	got, ok := s.Get("tasks/a.md")
	require.True(t, ok)
	assert.Equal(t, entry{Title: "new", Version: 1}, got)
}

func TestMutate_RollbackRestoresExactSnapshot(t *testing.T) {
	s := NewStore[entry]()
	before := entry{Title: "old", Version: 7}
	s.Set("tasks/a.md", before)

	err := Mutate(s, "tasks/a.md",
		func(e entry) entry { e.Title = "new"; e.Version++; return e },
		func() (func(), error) { return nil, errors.New("network down") },
	)
	require.Error(t, err)

	got, ok := s.Get("tasks/a.md")
	require.True(t, ok)
	assert.Equal(t, before, got, "rollback must restore the pre-patch snapshot")
}

func TestMutate_RollbackRemovesAbsentEntry(t *testing.T) {
	s := NewStore[entry]()

	err := Mutate(s, "tasks/a.md",
		func(e entry) entry { e.Title = "created"; return e },
		func() (func(), error) { return nil, errors.New("boom") },
	)
	require.Error(t, err)

	_, ok := s.Get("tasks/a.md")
	assert.False(t, ok, "entry absent before the patch must be absent after rollback")
}

func TestMutate_ReconcileAppliesServerData(t *testing.T) {
	s := NewStore[entry]()
	s.Set("tasks/a.md", entry{Title: "old", Version: 1})

	err := Mutate(s, "tasks/a.md",
		func(e entry) entry { e.Title = "optimistic"; return e },
		func() (func(), error) {
			return func() { s.Set("tasks/a.md", entry{Title: "server", Version: 2}) }, nil
		},
	)
	require.NoError(t, err)

	got, _ := s.Get("tasks/a.md")
	assert.Equal(t, entry{Title: "server", Version: 2}, got)
}

func TestMutate_SnapshotsChain(t *testing.T) {
	// A later action's rollback must restore the snapshot taken
	// immediately before it, not the original baseline.
	s := NewStore[entry]()
	s.Set("tasks/a.md", entry{Title: "baseline", Version: 1})

	// First mutation succeeds and leaves its patch in place.
	err := Mutate(s, "tasks/a.md",
		func(e entry) entry { e.Title = "first"; e.Version = 2; return e },
		func() (func(), error) { return nil, nil },
	)
	require.NoError(t, err)

	// Second mutation fails; its rollback lands on "first", not "baseline".
	err = Mutate(s, "tasks/a.md",
		func(e entry) entry { e.Title = "second"; e.Version = 3; return e },
		func() (func(), error) { return nil, errors.New("fail") },
	)
	require.Error(t, err)

	got, _ := s.Get("tasks/a.md")
	assert.Equal(t, entry{Title: "first", Version: 2}, got)
}

func TestMutate_RollbackSurvivesInPlaceSliceMutation(t *testing.T) {
	// StampRevert writes into a MergeHistory element through the slice
	// backing array. The Begin snapshot must be detached from it, or
	// rollback would restore an already-stamped entry.
	s := NewStore[domain.Task]()
	s.Set("tasks/a.md", domain.Task{
		Title:    "Alpha",
		QAStatus: domain.QAFail,
		MergeHistory: []domain.MergeEntry{
			{CommitHash: "abc123", MergedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)},
		},
	})

	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	err := Mutate(s, "tasks/a.md",
		func(t domain.Task) domain.Task {
			_ = t.StampRevert("def456", now)
			return t
		},
		func() (func(), error) { return nil, errors.New("record revert refused") },
	)
	require.Error(t, err)

	got, ok := s.Get("tasks/a.md")
	require.True(t, ok)
	require.Len(t, got.MergeHistory, 1)
	assert.Nil(t, got.MergeHistory[0].RevertedAt, "rollback must restore the unreverted entry")
	assert.Empty(t, got.MergeHistory[0].RevertCommitHash)
	assert.Equal(t, domain.QAFail, got.QAStatus)
	assert.NotNil(t, got.OutstandingMerge())
}

func TestMutateDelete(t *testing.T) {
	s := NewStore[entry]()
	before := entry{Title: "keep", Version: 3}
	s.Set("tasks/a.md", before)

	// Failed delete restores the entry verbatim.
	err := MutateDelete(s, "tasks/a.md", func() error { return errors.New("nope") })
	require.Error(t, err)
	got, ok := s.Get("tasks/a.md")
	require.True(t, ok)
	assert.Equal(t, before, got)

	// Successful delete removes it.
	require.NoError(t, MutateDelete(s, "tasks/a.md", func() error { return nil }))
	_, ok = s.Get("tasks/a.md")
	assert.False(t, ok)
}

func TestTx_RollbackAfterCommitIsNoop(t *testing.T) {
	s := NewStore[entry]()
	s.Set("k", entry{Title: "v1"})

	tx := s.Begin("k")
	s.Set("k", entry{Title: "v2"})
	tx.Commit()
	tx.Rollback()

	got, _ := s.Get("k")
	assert.Equal(t, entry{Title: "v2"}, got)
}

func TestStore_Update(t *testing.T) {
	s := NewStore[int]()
	s.Update("n", func(v int) int { return v + 1 })
	s.Update("n", func(v int) int { return v + 1 })
	got, _ := s.Get("n")
	assert.Equal(t, 2, got)
}
