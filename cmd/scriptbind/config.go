package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/robbyt/go-scriptbind/domain"
	"github.com/robbyt/go-scriptbind/engines/types"
)

const (
	modeMemory = "memory"
	modeFile   = "file"
)

var errConfig = errors.New("invalid configuration")

// config is read from the --config TOML file and overridden by flags.
type config struct {
	Engine     string `toml:"engine"`
	Mode       string `toml:"mode"`
	CacheDir   string `toml:"cache_dir"`
	Domain     string `toml:"domain"`
	EntryPoint string `toml:"entry_point"`
	TypeName   string `toml:"type_name"`
	LogLevel   string `toml:"log_level"`
	Color      string `toml:"color"`
}

func defaultConfig() config {
	return config{
		Engine:   string(types.Starlark),
		Mode:     modeMemory,
		Domain:   domain.DefaultName,
		LogLevel: "warn",
		Color:    "auto",
	}
}

// loadConfigFile overlays the keys set in path onto cfg.
func loadConfigFile(path string, cfg *config) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return nil
}

func (c config) engineType() (types.Type, error) {
	return types.Parse(c.Engine)
}

func (c config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", errConfig, c.LogLevel)
	}
	return level, nil
}

func (c config) validate() error {
	if _, err := c.engineType(); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	switch strings.ToLower(c.Mode) {
	case modeMemory, modeFile:
	default:
		return fmt.Errorf("%w: mode %q, want %s or %s", errConfig, c.Mode, modeMemory, modeFile)
	}
	switch c.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("%w: color %q, want auto, on or off", errConfig, c.Color)
	}
	if c.Domain == "" {
		return fmt.Errorf("%w: domain is empty", errConfig)
	}
	if _, err := c.logLevel(); err != nil {
		return err
	}
	return nil
}
