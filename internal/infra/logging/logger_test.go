package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesGlobalAndTaskLogs(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, slog.LevelDebug)
	defer l.Close()

	l.Info("", "startup", "console ready")
	l.Warn("tasks/fix-login.md", "poll", "session fetch failed")

	global, err := os.ReadFile(filepath.Join(dir, "logs", "agentdeck.log"))
	require.NoError(t, err)
	assert.Contains(t, string(global), "[INFO] [global] [startup] console ready")
	assert.Contains(t, string(global), "[WARN] [tasks/fix-login.md] [poll] session fetch failed")

	task, err := os.ReadFile(filepath.Join(dir, "logs", "task-tasks-fix-login.log"))
	require.NoError(t, err)
	assert.Contains(t, string(task), "session fetch failed")
	assert.NotContains(t, string(task), "console ready")
}

func TestLogger_LevelFilter(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, slog.LevelWarn)
	defer l.Close()

	l.Debug("", "x", "dropped")
	l.Info("", "x", "dropped too")
	l.Error("", "x", "kept")

	global, err := os.ReadFile(filepath.Join(dir, "logs", "agentdeck.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(global), "dropped")
	assert.Contains(t, string(global), "kept")
}

func TestLogger_DisabledWithoutDir(t *testing.T) {
	l := New("", slog.LevelDebug)
	l.Info("tasks/a.md", "x", "ignored") // Must not panic or create files
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("unknown"))
}

func TestPathSlug(t *testing.T) {
	assert.Equal(t, "tasks-fix-login", pathSlug("tasks/fix-login.md"))
	assert.Equal(t, "pending-new-task", pathSlug("pending/new task.md"))
}
