// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	deckDir       string // Path to the repo's .agentdeck directory
	globalConfDir string // Path to the global config directory (e.g. ~/.config/agentdeck)
}

// NewLoader creates a new Loader.
func NewLoader(deckDir string) *Loader {
	return &Loader{
		deckDir:       deckDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a Loader with a custom global config
// directory. Used by tests.
func NewLoaderWithGlobalDir(deckDir, globalConfDir string) *Loader {
	return &Loader{
		deckDir:       deckDir,
		globalConfDir: globalConfDir,
	}
}

func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, domain.DeckDirName)
}

// Load returns the merged configuration. Repository config takes
// precedence over global config, which takes precedence over defaults.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	repoPath := filepath.Join(l.deckDir, domain.ConfigFileName)
	repo, err := l.loadFile(repoPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		mergeConfigs(base, global)
	}
	if repo != nil {
		mergeConfigs(base, repo)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg domain.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfigs overlays non-zero fields of overlay onto base. Zero
// values in the overlay mean "not set", so a repo config only needs the
// keys it changes.
func mergeConfigs(base, overlay *domain.Config) {
	if overlay.Console.Endpoint != "" {
		base.Console.Endpoint = overlay.Console.Endpoint
	}
	if overlay.Console.Token != "" {
		base.Console.Token = overlay.Console.Token
	}
	if overlay.Console.BaseBranch != "" {
		base.Console.BaseBranch = overlay.Console.BaseBranch
	}
	if overlay.Poll.SessionMs > 0 {
		base.Poll.SessionMs = overlay.Poll.SessionMs
	}
	if overlay.Poll.TasksMs > 0 {
		base.Poll.TasksMs = overlay.Poll.TasksMs
	}
	if overlay.Poll.ActiveMs > 0 {
		base.Poll.ActiveMs = overlay.Poll.ActiveMs
	}
	if overlay.Poll.DebugRunMs > 0 {
		base.Poll.DebugRunMs = overlay.Poll.DebugRunMs
	}
	if overlay.Autosave.DebounceMs > 0 {
		base.Autosave.DebounceMs = overlay.Autosave.DebounceMs
	}
	if overlay.Log.Level != "" {
		base.Log.Level = overlay.Log.Level
	}
}
