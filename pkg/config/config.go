// Package config loads and saves tracklane's configuration.
//
// Files follow the XDG Base Directory layout:
//   - Config: ~/.config/tracklane/config.yaml
//   - Data:   ~/.local/share/tracklane/ (exports)
//   - State:  ~/.local/state/tracklane/ (view state)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/tracklane/pkg/viewport"
)

const appName = "tracklane"

// MaxRecent is how many recent documents are remembered.
const MaxRecent = 10

// ViewportConfig controls zooming of the time axis.
type ViewportConfig struct {
	ZoomCoefficient float64 `yaml:"zoom_coefficient,omitempty"`
	ZoomMin         int     `yaml:"zoom_min"`
	ZoomMax         int     `yaml:"zoom_max,omitempty"`
	// Margins let the view scroll past the ends of the timeline, in columns.
	MarginLeft  float64 `yaml:"margin_left,omitempty"`
	MarginRight float64 `yaml:"margin_right,omitempty"`
}

// HistoryConfig bounds the undo history.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries,omitempty"` // 0 = unlimited
}

// KeysConfig overrides key bindings. Each entry is a list of key names as
// Bubble Tea reports them ("ctrl+z", "u").
type KeysConfig struct {
	Undo []string `yaml:"undo,omitempty"`
	Redo []string `yaml:"redo,omitempty"`
}

// UIConfig holds view preferences.
type UIConfig struct {
	DefaultView string  `yaml:"default_view,omitempty"` // timeline, table
	SplitRatio  float64 `yaml:"split_ratio,omitempty"`  // timeline share of the height (0.2-0.8)
	FrameRate   float64 `yaml:"frame_rate,omitempty"`   // frames per second for frame numbers
}

// ScaleConfig controls scale diagnostics.
type ScaleConfig struct {
	WarnOutOfDomain bool `yaml:"warn_out_of_domain,omitempty"`
}

// RecentDocument is one entry of the recent list.
type RecentDocument struct {
	Path     string    `yaml:"path"`
	OpenedAt time.Time `yaml:"opened_at"`
}

// Config is the top-level configuration.
type Config struct {
	Viewport ViewportConfig   `yaml:"viewport"`
	History  HistoryConfig    `yaml:"history,omitempty"`
	Keys     KeysConfig       `yaml:"keys,omitempty"`
	UI       UIConfig         `yaml:"ui,omitempty"`
	Scale    ScaleConfig      `yaml:"scale,omitempty"`
	Recent   []RecentDocument `yaml:"recent,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Viewport: ViewportConfig{
			ZoomCoefficient: 1.25,
			ZoomMin:         0,
			ZoomMax:         40,
		},
		History: HistoryConfig{MaxEntries: 500},
		Keys: KeysConfig{
			Undo: []string{"ctrl+z", "u"},
			Redo: []string{"ctrl+y", "U"},
		},
		UI: UIConfig{
			DefaultView: "timeline",
			SplitRatio:  0.6,
			FrameRate:   25,
		},
	}
}

// ViewportSettings converts the viewport section for package viewport.
// Vertical zoom is always off; the timeline only zooms in time.
func (c Config) ViewportSettings() viewport.Config {
	return viewport.Config{
		Coefficient: viewport.Point{X: c.Viewport.ZoomCoefficient, Y: 1},
		ZoomMin:     c.Viewport.ZoomMin,
		ZoomMax:     c.Viewport.ZoomMax,
		Margins: viewport.Margins{
			Left:  c.Viewport.MarginLeft,
			Right: c.Viewport.MarginRight,
		},
	}
}

// AddRecent moves path to the front of the recent list.
func (c *Config) AddRecent(path string, now time.Time) {
	if abs, err := filepath.Abs(path); err == nil && !strings.Contains(path, "://") {
		path = abs
	}
	c.Recent = slices.DeleteFunc(c.Recent, func(r RecentDocument) bool { return r.Path == path })
	c.Recent = slices.Insert(c.Recent, 0, RecentDocument{Path: path, OpenedAt: now})
	if len(c.Recent) > MaxRecent {
		c.Recent = c.Recent[:MaxRecent]
	}
}

// normalize replaces unusable values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Viewport.ZoomCoefficient <= 1 {
		c.Viewport.ZoomCoefficient = def.Viewport.ZoomCoefficient
	}
	if c.Viewport.ZoomMax < c.Viewport.ZoomMin {
		c.Viewport.ZoomMin, c.Viewport.ZoomMax = c.Viewport.ZoomMax, c.Viewport.ZoomMin
	}
	if c.History.MaxEntries < 0 {
		c.History.MaxEntries = 0
	}
	if c.UI.SplitRatio < 0.2 || c.UI.SplitRatio > 0.8 {
		c.UI.SplitRatio = def.UI.SplitRatio
	}
	if c.UI.FrameRate <= 0 {
		c.UI.FrameRate = def.UI.FrameRate
	}
	switch c.UI.DefaultView {
	case "timeline", "table":
	default:
		c.UI.DefaultView = def.UI.DefaultView
	}
	if len(c.Keys.Undo) == 0 {
		c.Keys.Undo = def.Keys.Undo
	}
	if len(c.Keys.Redo) == 0 {
		c.Keys.Redo = def.Keys.Redo
	}
	for i := range c.Recent {
		c.Recent[i].Path = expandHome(c.Recent[i].Path)
	}
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string { return xdgDir("XDG_CONFIG_HOME", ".config") }

// DataDir returns the XDG data directory.
func DataDir() string { return xdgDir("XDG_DATA_HOME", ".local", "share") }

// StateDir returns the XDG state directory.
func StateDir() string { return xdgDir("XDG_STATE_HOME", ".local", "state") }

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads config.yaml from the XDG config directory. A missing file
// yields DefaultConfig.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from path. A missing file yields DefaultConfig.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes cfg to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes cfg to path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
