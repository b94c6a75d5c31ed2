// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.aimuz.me/dragscroll/gesture"
)

const (
	appName        = "dragscroll"
	configFileName = "config.json"
)

const (
	minHoldDelay = 0.25
	maxHoldDelay = 5.0
)

// Config represents the application configuration.
type Config struct {
	// Gesture
	ClickThrough           bool    `json:"click_through"`
	HoldToPassthrough      bool    `json:"hold_to_passthrough"`
	HoldToPassthroughDelay float64 `json:"hold_to_passthrough_delay"` // seconds
	Momentum               bool    `json:"momentum"`
	MomentumIntensity      float64 `json:"momentum_intensity"`
	InvertScroll           bool    `json:"invert_scroll"`

	// Host
	SafetyMode         bool `json:"safety_mode"`
	Hotkey             Keys `json:"hotkey"`
	ScrollModeOnLaunch bool `json:"scroll_mode_on_launch"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Keys is a key combination such as ["cmd", "shift", "s"]. Older files
// stored it as a single "cmd+shift+s" string; both forms decode.
type Keys []string

func (k *Keys) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hotkey must be a string or list of strings: %w", err)
	}
	*k = nil
	for _, part := range strings.Split(s, "+") {
		if part = strings.TrimSpace(part); part != "" {
			*k = append(*k, part)
		}
	}
	return nil
}

// Default returns the out-of-box configuration.
func Default() *Config {
	return &Config{
		ClickThrough:           true,
		HoldToPassthroughDelay: 1.0,
		Momentum:               true,
		MomentumIntensity:      0.5,
		SafetyMode:             true,
		Hotkey:                 Keys{"f6"},
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

// Normalize clamps out-of-range values and fills empty ones.
func (c *Config) Normalize() {
	d := Default()
	switch {
	case c.HoldToPassthroughDelay == 0:
		c.HoldToPassthroughDelay = d.HoldToPassthroughDelay
	case c.HoldToPassthroughDelay < minHoldDelay:
		c.HoldToPassthroughDelay = minHoldDelay
	case c.HoldToPassthroughDelay > maxHoldDelay:
		c.HoldToPassthroughDelay = maxHoldDelay
	}
	c.MomentumIntensity = min(max(c.MomentumIntensity, 0), 1)
	if len(c.Hotkey) == 0 {
		c.Hotkey = d.Hotkey
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// GestureSettings converts the gesture fields for the engine.
func (c *Config) GestureSettings() gesture.Settings {
	return gesture.Settings{
		ClickThrough:      c.ClickThrough,
		HoldToPassthrough: c.HoldToPassthrough,
		HoldDelay:         time.Duration(c.HoldToPassthroughDelay * float64(time.Second)),
		Momentum:          c.Momentum,
		Intensity:         c.MomentumIntensity,
		InvertDirection:   c.InvertScroll,
	}
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load loads configuration from the default config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path. Keys missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save persists the configuration to the default path.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}
	return c.SaveTo(path)
}

// SaveTo persists the configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
