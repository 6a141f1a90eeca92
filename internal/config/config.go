// Package config loads the daemon configuration from TOML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "tempo"

type Config struct {
	LibrarySources []string `koanf:"library_sources" validate:"dive,required"` // paths to scan for music
	StatePath      string   `koanf:"state_path"`                               // empty means the XDG data dir

	Log      LogConfig      `koanf:"log"`
	Playback PlaybackConfig `koanf:"playback"`
	Remote   RemoteConfig   `koanf:"remote"`
	Notify   NotifyConfig   `koanf:"notify"`
	Session  SessionConfig  `koanf:"session"`
}

// LogConfig selects the log destination and level.
type LogConfig struct {
	Level  string `koanf:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `koanf:"output" default:"stderr"` // "stdout", "stderr", or file path
}

// PlaybackConfig tunes the playback engine timers and output.
type PlaybackConfig struct {
	ClockIntervalMs int     `koanf:"clock_interval_ms" default:"1000" validate:"gte=50,lte=10000"`
	SeekIntervalMs  int     `koanf:"seek_interval_ms" default:"200" validate:"gte=20,lte=5000"`
	InitialVolume   float64 `koanf:"initial_volume" default:"1" validate:"gte=0,lte=1"`
}

// RemoteConfig controls the MPRIS remote-control surface.
type RemoteConfig struct {
	MPRIS bool   `koanf:"mpris" default:"true"`
	Name  string `koanf:"name" default:"tempo" validate:"required,alphanum"`
}

// NotifyConfig controls desktop notifications.
type NotifyConfig struct {
	Enabled bool `koanf:"enabled" default:"true"`
}

// SessionConfig controls the audio session observer.
type SessionConfig struct {
	WatchSleep bool `koanf:"watch_sleep" default:"true"`
}

// Load reads path, or the default locations when path is empty, on top of
// the built-in defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config %s", path)
		}
	} else {
		// Later files win
		for _, p := range getConfigPaths() {
			if _, err := os.Stat(p); err != nil {
				continue
			}
			if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "failed to load config %s", p)
			}
		}
	}

	// Defaults first so keys absent from the files keep them.
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	cfg.overrideFromEnv()

	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}
	cfg.StatePath = expandPath(cfg.StatePath)
	if out := cfg.Log.Output; out != "stdout" && out != "stderr" {
		cfg.Log.Output = expandPath(out)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return cfg, nil
}

// overrideFromEnv lets the environment (or a .env file) replace paths.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TEMPO_LIBRARY"); v != "" {
		c.LibrarySources = filepath.SplitList(v)
	}
	if v := os.Getenv("TEMPO_STATE_PATH"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("TEMPO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// ClockInterval returns the playback clock period.
func (c *Config) ClockInterval() time.Duration {
	return time.Duration(c.Playback.ClockIntervalMs) * time.Millisecond
}

// SeekInterval returns the period between seek steps.
func (c *Config) SeekInterval() time.Duration {
	return time.Duration(c.Playback.SeekIntervalMs) * time.Millisecond
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tempo/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
