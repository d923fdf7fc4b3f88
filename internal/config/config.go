package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petervdpas/glassnote/internal/util"
)

// AppName names the config and data directories.
const AppName = "glassnote"

type Config struct {
	Window   Window   `json:"window"`
	Overlay  Overlay  `json:"overlay"`
	Autosave Autosave `json:"autosave"`
	Files    Files    `json:"files"`
	Log      Log      `json:"log"`

	// DataDir holds the draft database and logs. Relative paths resolve
	// against the directory of the config file.
	DataDir string `json:"data_dir"`
}

type Window struct {
	Title       string `json:"title"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MinWidth    int    `json:"min_width"`
	MinHeight   int    `json:"min_height"`
	AlwaysOnTop bool   `json:"always_on_top"`
}

type Overlay struct {
	// Opacity applied while overlay mode is active.
	Opacity float64 `json:"opacity"`

	// Hints enables best-effort window manager hints (X11 only).
	Hints bool `json:"hints"`
}

type Autosave struct {
	Enabled    bool   `json:"enabled"`
	IntervalMS int    `json:"interval_ms"`
	Key        string `json:"key"`
}

type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

type Files struct {
	OpenFilters []Filter `json:"open_filters"`
	SaveFilters []Filter `json:"save_filters"`
}

type Log struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:       "Glassnote",
			Width:       800,
			Height:      600,
			MinWidth:    300,
			MinHeight:   200,
			AlwaysOnTop: true,
		},
		Overlay: Overlay{
			Opacity: 0.4,
			Hints:   true,
		},
		Autosave: Autosave{
			Enabled:    true,
			IntervalMS: 1000,
			Key:        "glassnote-autosave",
		},
		Files: Files{
			OpenFilters: []Filter{
				{Name: "Text Files", Extensions: []string{"txt", "md", "js", "json", "html", "css"}},
				{Name: "All Files", Extensions: []string{"*"}},
			},
			SaveFilters: []Filter{
				{Name: "Text Files", Extensions: []string{"txt"}},
				{Name: "All Files", Extensions: []string{"*"}},
			},
		},
		Log: Log{
			File:       "logs/glassnote.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		DataDir: "data",
	}
}

func (c *Config) Validate() error {
	// Window
	if strings.TrimSpace(c.Window.Title) == "" {
		return errors.New("window.title is required")
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		return errors.New("window.min_width and window.min_height must be >= 0")
	}
	if c.Window.Width < c.Window.MinWidth || c.Window.Height < c.Window.MinHeight {
		return errors.New("window size must not be smaller than its minimum size")
	}

	// Overlay
	if c.Overlay.Opacity < 0.05 || c.Overlay.Opacity > 1 {
		return errors.New("overlay.opacity must be 0.05..1.0")
	}

	// Autosave
	if c.Autosave.Enabled {
		if c.Autosave.IntervalMS < 100 {
			return errors.New("autosave.interval_ms must be >= 100")
		}
		if strings.TrimSpace(c.Autosave.Key) == "" {
			return errors.New("autosave.key is required when autosave is enabled")
		}
	}

	// Files
	for _, f := range append(append([]Filter{}, c.Files.OpenFilters...), c.Files.SaveFilters...) {
		if strings.TrimSpace(f.Name) == "" {
			return errors.New("files: filter name is required")
		}
		if len(f.Extensions) == 0 {
			return fmt.Errorf("files: filter %q has no extensions", f.Name)
		}
	}

	// Log
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("log limits must be >= 0")
	}

	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir is required")
	}

	return nil
}

// DefaultPath returns <user config dir>/glassnote/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.json"), nil
}

// ResolveDataDir returns DataDir resolved against the config file location.
func (c *Config) ResolveDataDir(cfgPath string) string {
	return util.ResolvePath(filepath.Dir(cfgPath), c.DataDir)
}

// ResolveLogFile returns Log.File resolved against the data directory, or ""
// when file logging is disabled.
func (c *Config) ResolveLogFile(cfgPath string) string {
	if strings.TrimSpace(c.Log.File) == "" {
		return ""
	}
	return util.ResolvePath(c.ResolveDataDir(cfgPath), c.Log.File)
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}
