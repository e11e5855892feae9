package domain

import "time"

// Config file names and directories.
const (
	ConfigFileName = "config.toml"
	DeckDirName    = "agentdeck"
)

// Config represents the application configuration.
type Config struct {
	Console  ConsoleConfig  `toml:"console"`
	Poll     PollConfig     `toml:"poll"`
	Autosave AutosaveConfig `toml:"autosave"`
	Log      LogConfig      `toml:"log"`
}

// ConsoleConfig holds console backend settings from [console].
// When Endpoint is empty the git operations bind to the local adapter.
type ConsoleConfig struct {
	Endpoint   string `toml:"endpoint"`    // Base URL of the console backend
	Token      string `toml:"token"`       // Bearer token
	BaseBranch string `toml:"base_branch"` // Merge target (default "main")
}

// PollConfig holds polling intervals from [poll], in milliseconds.
// The four timers are independent and must not be coalesced.
type PollConfig struct {
	SessionMs  int `toml:"session_ms"`  // Active-session poll (default 1000)
	TasksMs    int `toml:"tasks_ms"`    // Task-list poll (default 5000)
	ActiveMs   int `toml:"active_ms"`   // Active-sessions-map poll (default 2000)
	DebugRunMs int `toml:"debugrun_ms"` // Debug-run status poll while armed (default 2000)
}

// AutosaveConfig holds draft autosave settings from [autosave].
type AutosaveConfig struct {
	DebounceMs int `toml:"debounce_ms"` // Draft save debounce (default 800)
}

// LogConfig holds logging settings from [log].
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// NewDefaultConfig returns the configuration defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Console:  ConsoleConfig{BaseBranch: "main"},
		Poll:     PollConfig{SessionMs: 1000, TasksMs: 5000, ActiveMs: 2000, DebugRunMs: 2000},
		Autosave: AutosaveConfig{DebounceMs: 800},
		Log:      LogConfig{Level: "info"},
	}
}

// SessionInterval returns the active-session poll interval.
func (c *Config) SessionInterval() time.Duration {
	return msOrDefault(c.Poll.SessionMs, 1000)
}

// TasksInterval returns the task-list poll interval.
func (c *Config) TasksInterval() time.Duration {
	return msOrDefault(c.Poll.TasksMs, 5000)
}

// ActiveInterval returns the active-sessions-map poll interval.
func (c *Config) ActiveInterval() time.Duration {
	return msOrDefault(c.Poll.ActiveMs, 2000)
}

// DebugRunInterval returns the debug-run status poll interval.
func (c *Config) DebugRunInterval() time.Duration {
	return msOrDefault(c.Poll.DebugRunMs, 2000)
}

// AutosaveDebounce returns the draft autosave debounce.
func (c *Config) AutosaveDebounce() time.Duration {
	return msOrDefault(c.Autosave.DebounceMs, 800)
}

// TargetBranch returns the merge target branch.
func (c *Config) TargetBranch() string {
	if c.Console.BaseBranch == "" {
		return "main"
	}
	return c.Console.BaseBranch
}

func msOrDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
