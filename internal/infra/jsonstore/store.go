// Package jsonstore persists the task cache mirror as a JSON file so
// optimistic state and drafts survive process restarts.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// mirrorData is the JSON file structure. Tasks are keyed by path; the
// Path field itself is the map key and not repeated in the value.
type mirrorData struct {
	Tasks map[string]*domain.Task `json:"tasks"`
	Meta  meta                    `json:"meta"`
}

// meta contains mirror metadata.
type meta struct {
	SavedAt time.Time `json:"savedAt"`
}

// Store implements domain.TaskMirror using a JSON file guarded by an
// flock, so concurrent console processes never interleave writes.
type Store struct {
	path     string
	lockPath string
}

// New creates a Store for the given file path. The file does not need
// to exist; it is created on first write.
func New(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
	}
}

// Load reads the mirrored tasks keyed by path. A missing file is an
// empty mirror, not an error.
func (s *Store) Load() (map[string]*domain.Task, error) {
	lock, err := s.acquireLock(syscall.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(lock)

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	for path, t := range data.Tasks {
		t.Path = path
	}
	return data.Tasks, nil
}

// Store writes the mirrored tasks.
func (s *Store) Store(tasks map[string]*domain.Task) error {
	lock, err := s.acquireLock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	return s.write(&mirrorData{
		Tasks: tasks,
		Meta:  meta{SavedAt: time.Now()},
	})
}

func (s *Store) acquireLock(lockType int) (*os.File, error) {
	dir := filepath.Dir(s.lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(lock.Fd()), lockType); err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return lock, nil
}

func (s *Store) releaseLock(lock *os.File) {
	_ = syscall.Flock(int(lock.Fd()), syscall.LOCK_UN)
	_ = lock.Close()
}

func (s *Store) read() (*mirrorData, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &mirrorData{Tasks: make(map[string]*domain.Task)}, nil
		}
		return nil, fmt.Errorf("read mirror file: %w", err)
	}

	var data mirrorData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse mirror file: %w", err)
	}
	if data.Tasks == nil {
		data.Tasks = make(map[string]*domain.Task)
	}
	return &data, nil
}

func (s *Store) write(data *mirrorData) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mirror data: %w", err)
	}

	// Write to temp file first, then rename for atomicity.
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

var _ domain.TaskMirror = (*Store)(nil)
