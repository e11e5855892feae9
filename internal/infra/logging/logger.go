// Package logging provides file-based logging for agentdeck.
// It outputs logs to both a global log file (<deckDir>/logs/agentdeck.log)
// and task-specific log files (<deckDir>/logs/task-<slug>.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

var _ domain.Logger = (*Logger)(nil)

// Logger wraps slog levels with file-based output.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile *os.File
	taskFiles  map[string]*os.File
	deckDir    string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger that writes under deckDir/logs. If deckDir
// is empty, logging is disabled (all methods are no-ops).
func New(deckDir string, level slog.Level) *Logger {
	return &Logger{
		deckDir:   deckDir,
		level:     level,
		taskFiles: make(map[string]*os.File),
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) ensureLogsDir() error {
	return os.MkdirAll(filepath.Join(l.deckDir, "logs"), 0o750)
}

func (l *Logger) ensureGlobalFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalFile != nil {
		return l.globalFile, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	path := filepath.Join(l.deckDir, "logs", "agentdeck.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open global log file: %w", err)
	}
	l.globalFile = f
	return f, nil
}

func (l *Logger) ensureTaskFile(taskPath string) (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.taskFiles[taskPath]; ok {
		return f, nil
	}
	if err := l.ensureLogsDir(); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}

	path := filepath.Join(l.deckDir, "logs", "task-"+pathSlug(taskPath)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open task log file: %w", err)
	}
	l.taskFiles[taskPath] = f
	return f, nil
}

// pathSlug flattens a task path key into a filesystem-safe file name
// segment.
func pathSlug(taskPath string) string {
	s := strings.TrimSuffix(taskPath, ".md")
	s = strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-").Replace(s)
	return strings.Trim(s, "-")
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for path, f := range l.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, path)
	}
	return lastErr
}

// formatLog renders one entry.
// Format: [2026-02-01 09:32:51] [INFO] [tasks/a.md] [category] message
func formatLog(t time.Time, level slog.Level, taskPath, category, msg string) string {
	scope := taskPath
	if scope == "" {
		scope = "global"
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes an entry to the global log, and additionally to the task
// log when a task path is given.
func (l *Logger) log(level slog.Level, taskPath, category, msg string) {
	if l.deckDir == "" {
		return
	}
	if level < l.level {
		return
	}

	entry := formatLog(time.Now(), level, taskPath, category, msg)

	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}
	if taskPath != "" {
		if tf, err := l.ensureTaskFile(taskPath); err == nil {
			_, _ = io.WriteString(tf, entry)
		}
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(taskPath, category, msg string) {
	l.log(slog.LevelDebug, taskPath, category, msg)
}

// Info logs an info message.
func (l *Logger) Info(taskPath, category, msg string) {
	l.log(slog.LevelInfo, taskPath, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskPath, category, msg string) {
	l.log(slog.LevelWarn, taskPath, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskPath, category, msg string) {
	l.log(slog.LevelError, taskPath, category, msg)
}
