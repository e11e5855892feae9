package cache

import "sync"

// Tx is a snapshot transaction over one Store entry. Begin captures the
// value at call time, so transactions started while an earlier patch is
// still settling chain correctly: each rollback restores the snapshot
// taken immediately before its own patch, never a stale baseline.
type Tx[T any] struct {
	store *Store[T]
	key   string
	prev  T
	had   bool
	once  sync.Once
}

// Begin snapshots the current value for key and returns the transaction.
// The snapshot is detached from the stored value, so patches that write
// through shared reference state cannot reach it.
func (s *Store[T]) Begin(key string) *Tx[T] {
	s.mu.RLock()
	prev, had := s.items[key]
	s.mu.RUnlock()
	return &Tx[T]{store: s, key: key, prev: s.snapshot(prev), had: had}
}

// Rollback restores the exact snapshot taken at Begin. It is a no-op
// after Commit and on repeated calls.
func (tx *Tx[T]) Rollback() {
	tx.once.Do(func() {
		if tx.had {
			tx.store.Set(tx.key, tx.prev)
		} else {
			tx.store.Delete(tx.key)
		}
	})
}

// Commit discards the snapshot, keeping whatever is currently cached.
func (tx *Tx[T]) Commit() {
	tx.once.Do(func() {})
}

// Snapshot returns the value captured at Begin.
func (tx *Tx[T]) Snapshot() (T, bool) {
	return tx.prev, tx.had
}

// Mutate runs one mutation under the optimistic update protocol:
// snapshot the entry, apply the optimistic patch, run the remote
// operation, then either reconcile (keep the patch, or overwrite with
// server data via the returned reconcile function) or roll back to the
// snapshot and return the error.
func Mutate[T any](s *Store[T], key string, patch func(T) T, op func() (reconcile func(), err error)) error {
	tx := s.Begin(key)
	s.Update(key, patch)

	reconcile, err := op()
	if err != nil {
		tx.Rollback()
		return err
	}
	if reconcile != nil {
		reconcile()
	}
	tx.Commit()
	return nil
}

// MutateDelete runs a deletion under the optimistic update protocol:
// the entry is removed optimistically and restored verbatim on failure.
func MutateDelete[T any](s *Store[T], key string, op func() error) error {
	tx := s.Begin(key)
	s.Delete(key)

	if err := op(); err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}
