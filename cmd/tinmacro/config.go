package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/Hanaasagi/tinmacro/internal/script"
	"github.com/Hanaasagi/tinmacro/internal/session"
	"github.com/Hanaasagi/tinmacro/internal/substitute"
	"github.com/Hanaasagi/tinmacro/internal/trigger"
	"github.com/adrg/xdg"
)

type Config struct {
	Core       CoreConfig        `toml:"core"`
	Variables  map[string]string `toml:"variables"`
	Actions    []ActionConfig    `toml:"actions"`
	Highlights []HighlightConfig `toml:"highlights"`
	Script     ScriptConfig      `toml:"script"`
}

type CoreConfig struct {
	MaxDepth    int    `toml:"max_depth"`
	Color       string `toml:"color"` // "auto", "always" or "never"
	CommandChar string `toml:"command_char"`
}

type ActionConfig struct {
	Pattern  string `toml:"pattern"`
	Commands string `toml:"commands"`
	Priority *int   `toml:"priority"`
}

type HighlightConfig struct {
	Pattern  string `toml:"pattern"`
	Color    string `toml:"color"`
	Priority *int   `toml:"priority"`
}

type ScriptConfig struct {
	// Startup is script text run once the tables are loaded.
	Startup string `toml:"startup"`
	// Files are script files run after Startup.
	Files []string `toml:"files"`
}

var colorModes = []string{"auto", "always", "never"}

func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func NewDefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			MaxDepth:    substitute.DefaultMaxDepth,
			Color:       "auto",
			CommandChar: string(script.DefaultCommandChar),
		},
		Variables: map[string]string{},
	}
}

func LoadConfigFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // no config file, return defaults
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Core.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("core.max_depth must be positive, got %d", c.Core.MaxDepth))
	}
	if !slices.Contains(colorModes, c.Core.Color) {
		errs = append(errs, fmt.Errorf("core.color must be one of %v, got %q", colorModes, c.Core.Color))
	}
	if len(c.Core.CommandChar) != 1 {
		errs = append(errs, fmt.Errorf("core.command_char must be a single character, got %q", c.Core.CommandChar))
	}
	for i, a := range c.Actions {
		if a.Pattern == "" {
			errs = append(errs, fmt.Errorf("actions[%d]: empty pattern", i))
		}
	}
	for i, h := range c.Highlights {
		if h.Pattern == "" || h.Color == "" {
			errs = append(errs, fmt.Errorf("highlights[%d]: pattern and color are required", i))
		}
	}
	return errors.Join(errs...)
}

func priority(p *int) int {
	if p == nil {
		return trigger.DefaultPriority
	}
	return *p
}

// Apply loads the variables, actions and highlights into s and d, then runs
// the startup script and script files.
func (c *Config) Apply(d *script.Driver, s *session.Session) (*session.Session, error) {
	if len(c.Core.CommandChar) == 1 {
		d.CommandChar = c.Core.CommandChar[0]
	}
	for name, value := range c.Variables {
		s.Vars.Set(name, value)
	}
	for _, a := range c.Actions {
		if err := d.Actions.Add(a.Pattern, a.Commands, priority(a.Priority)); err != nil {
			return s, err
		}
	}
	for _, h := range c.Highlights {
		if err := d.Highlights.Add(h.Pattern, h.Color, priority(h.Priority)); err != nil {
			return s, err
		}
	}

	var err error
	if c.Script.Startup != "" {
		if s, err = d.LoadScript(s, c.Script.Startup); err != nil {
			return s, fmt.Errorf("startup script: %w", err)
		}
	}
	for _, path := range c.Script.Files {
		data, err := os.ReadFile(os.ExpandEnv(path))
		if err != nil {
			return s, fmt.Errorf("script file: %w", err)
		}
		if s, err = d.LoadScript(s, string(data)); err != nil {
			return s, fmt.Errorf("script file %s: %w", path, err)
		}
	}
	return s, nil
}
