// Package domain contains core business entities and interfaces.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Task represents a unit of work managed through the console.
// Tasks are identified by a path-like string key (e.g. "tasks/fix-login.md").
// Fields are ordered to minimize memory padding.
type Task struct {
	Created      time.Time    `json:"created"`
	Updated      time.Time    `json:"updated"`
	ArchivedAt   *time.Time   `json:"archivedAt,omitempty"` // Set when Archived becomes true
	Path         string       `json:"-"`                    // Task key (stored as map key, not in value)
	Title        string       `json:"title"`
	Content      string       `json:"content,omitempty"`   // Markdown draft body
	SplitFrom    string       `json:"splitFrom,omitempty"` // Path of the task this was split from (lookup, not ownership)
	QAStatus     QAStatus     `json:"qaStatus"`
	Subtasks     []Subtask    `json:"subtasks,omitempty"`
	MergeHistory []MergeEntry `json:"mergeHistory,omitempty"` // Append-only
	Version      int          `json:"version"`
	Archived     bool         `json:"archived"`
}

// Subtask is a single checklist item within a task.
type Subtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// MergeEntry records one merge of the task's work into the target branch.
// Entries are append-only; at most one entry per task may be outstanding
// (not yet reverted) at a time.
type MergeEntry struct {
	MergedAt         time.Time  `json:"mergedAt"`
	RevertedAt       *time.Time `json:"revertedAt,omitempty"`
	CommitHash       string     `json:"commitHash"`
	RevertCommitHash string     `json:"revertCommitHash,omitempty"`
	SessionID        string     `json:"sessionID,omitempty"` // Session whose work was merged
}

// Reverted returns true if the entry has been reverted.
func (e *MergeEntry) Reverted() bool {
	return e.RevertedAt != nil
}

// Clone returns a deep copy of the task. Cache snapshots rely on this:
// StampRevert writes into a MergeHistory element in place, so a plain
// value copy would alias the backing array and corrupt the snapshot.
func (t Task) Clone() Task {
	t.MergeHistory = slices.Clone(t.MergeHistory)
	t.Subtasks = slices.Clone(t.Subtasks)
	if t.ArchivedAt != nil {
		at := *t.ArchivedAt
		t.ArchivedAt = &at
	}
	return t
}

// OutstandingMerge returns the merge entry that has not been reverted,
// or nil if every entry is reverted (or there are none). The QA workflow
// guarantees at most one such entry exists.
func (t *Task) OutstandingMerge() *MergeEntry {
	for i := len(t.MergeHistory) - 1; i >= 0; i-- {
		if !t.MergeHistory[i].Reverted() {
			return &t.MergeHistory[i]
		}
	}
	return nil
}

// CanMerge returns true if a new merge may be recorded: no entry is
// currently outstanding.
func (t *Task) CanMerge() bool {
	return t.OutstandingMerge() == nil
}

// AppendMerge records a successful merge and moves QA to pending.
// Returns ErrMergeOutstanding if an unreverted entry already exists.
func (t *Task) AppendMerge(commitHash, sessionID string, at time.Time) error {
	if !t.CanMerge() {
		return ErrMergeOutstanding
	}
	t.MergeHistory = append(t.MergeHistory, MergeEntry{
		CommitHash: commitHash,
		SessionID:  sessionID,
		MergedAt:   at,
	})
	t.QAStatus = QAPending
	return nil
}

// StampRevert marks the outstanding entry as reverted and resets QA status.
// Returns ErrNoOutstandingMerge if no entry is outstanding, or
// ErrAlreadyReverted when every recorded entry is already reverted
// (double revert is a precondition failure, never a second attempt).
func (t *Task) StampRevert(revertCommitHash string, at time.Time) error {
	entry := t.OutstandingMerge()
	if entry == nil {
		if len(t.MergeHistory) > 0 {
			return ErrAlreadyReverted
		}
		return ErrNoOutstandingMerge
	}
	entry.RevertedAt = &at
	entry.RevertCommitHash = revertCommitHash
	t.QAStatus = QANone
	return nil
}

// taskFrontmatter is the YAML frontmatter of a task's markdown form.
type taskFrontmatter struct {
	Title     string `yaml:"title"`
	SplitFrom string `yaml:"splitFrom,omitempty"`
}

// ToMarkdown converts the task to markdown with YAML frontmatter.
// Only title, split-from and body are included for editing purposes.
func (t *Task) ToMarkdown() string {
	fm, _ := yaml.Marshal(taskFrontmatter{Title: t.Title, SplitFrom: t.SplitFrom})
	return "---\n" + string(fm) + "---\n\n" + t.Content
}

// FromMarkdown parses markdown with YAML frontmatter and updates the
// task's title, split-from reference and content.
func (t *Task) FromMarkdown(content string) error {
	const delim = "---\n"
	if !strings.HasPrefix(content, delim) {
		return ErrInvalidFrontmatter
	}
	rest := content[len(delim):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return ErrInvalidFrontmatter
	}
	var fm taskFrontmatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return fmt.Errorf("parse frontmatter: %w", err)
	}
	if fm.Title == "" {
		return ErrEmptyTitle
	}
	body := rest[end+len("\n---"):]
	t.Title = fm.Title
	t.SplitFrom = fm.SplitFrom
	t.Content = strings.TrimLeft(body, "\n")
	return nil
}

// Sections splits the task content into "## " delimited sections.
// Used by task splitting: each selected section becomes a child task.
func (t *Task) Sections() []Section {
	var sections []Section
	var cur *Section
	for _, line := range strings.Split(t.Content, "\n") {
		if strings.HasPrefix(line, "## ") {
			if cur != nil {
				cur.Body = strings.TrimSpace(cur.Body)
				sections = append(sections, *cur)
			}
			cur = &Section{Title: strings.TrimSpace(line[3:])}
			continue
		}
		if cur != nil {
			cur.Body += line + "\n"
		}
	}
	if cur != nil {
		cur.Body = strings.TrimSpace(cur.Body)
		sections = append(sections, *cur)
	}
	return sections
}

// Section is one "## " delimited slice of a task body.
type Section struct {
	Title string
	Body  string
}
