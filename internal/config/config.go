// Package config resolves roster settings. Priority, highest first:
// ROSTER_* environment variables, .roster/config.json, built-in defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/marcus/roster/internal/db"
	"github.com/marcus/roster/internal/netcheck"
)

const (
	configFile = "config.json"
	envPrefix  = "ROSTER"

	// DefaultSyncURL is the collection endpoint the mobile app posted to.
	DefaultSyncURL = "http://example.com/save-data"
)

// ErrUnknownKey is returned by Get and Set for keys outside Keys().
var ErrUnknownKey = errors.New("unknown config key")

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type SyncConfig struct {
	URL          string        `mapstructure:"url"`
	HealthURL    string        `mapstructure:"health_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Probe        string        `mapstructure:"probe"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

type AgentConfig struct {
	Listen   string        `mapstructure:"listen"`
	Interval time.Duration `mapstructure:"interval"`
	Debounce time.Duration `mapstructure:"debounce"`
	Watch    bool          `mapstructure:"watch"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Config is the fully resolved configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Sync  SyncConfig  `mapstructure:"sync"`
	Agent AgentConfig `mapstructure:"agent"`
	Log   LogConfig   `mapstructure:"log"`
}

var defaults = map[string]any{
	"store.driver":       db.DriverModernc,
	"sync.url":           DefaultSyncURL,
	"sync.health_url":    "",
	"sync.timeout":       "30s",
	"sync.probe":         netcheck.ModeDial,
	"sync.probe_timeout": netcheck.DefaultTimeout.String(),
	"agent.listen":       "127.0.0.1:7788",
	"agent.interval":     "5m",
	"agent.debounce":     "3s",
	"agent.watch":        true,
	"log.level":          "info",
	"log.format":         "text",
	"log.file":           "",
	"log.max_size_mb":    10,
	"log.max_backups":    3,
}

// Keys returns every recognised key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the config file location for baseDir.
func Path(baseDir string) string {
	return filepath.Join(baseDir, db.DataDir, configFile)
}

func newViper(baseDir string) (*viper.Viper, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetConfigFile(Path(baseDir))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", Path(baseDir), err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

// Load resolves and validates the configuration for baseDir. A missing
// config file is not an error.
func Load(baseDir string) (*Config, error) {
	v, err := newViper(baseDir)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case db.DriverModernc, db.DriverCgo:
	default:
		return fmt.Errorf("config: store.driver must be %q or %q, got %q", db.DriverModernc, db.DriverCgo, c.Store.Driver)
	}
	if strings.TrimSpace(c.Sync.URL) == "" {
		return errors.New("config: sync.url must be set")
	}
	switch c.Sync.Probe {
	case netcheck.ModeDial, netcheck.ModeHealth, netcheck.ModeOnline, netcheck.ModeOffline:
	default:
		return fmt.Errorf("config: unknown sync.probe %q", c.Sync.Probe)
	}
	if c.Sync.Probe == netcheck.ModeHealth && c.Sync.HealthURL == "" {
		return errors.New("config: sync.probe=health requires sync.health_url")
	}
	if c.Agent.Interval < 0 || c.Agent.Debounce < 0 {
		return errors.New("config: agent.interval and agent.debounce must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("config: unknown log.level %q", s)
	}
}

// Get returns the effective value of one key.
func Get(baseDir, key string) (any, error) {
	if _, ok := defaults[key]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v, err := newViper(baseDir)
	if err != nil {
		return nil, err
	}
	return v.Get(key), nil
}

// Set persists key=value to config.json. Only keys already in the file and
// the one being set are written; defaults and environment overrides are not.
// The result must still load, so invalid values are rejected before writing.
func Set(baseDir, key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	file := viper.New()
	file.SetConfigFile(Path(baseDir))
	file.SetConfigType("json")
	if err := file.ReadInConfig(); err != nil && !isNotExist(err) {
		return fmt.Errorf("read %s: %w", Path(baseDir), err)
	}
	typed, err := coerce(key, value)
	if err != nil {
		return err
	}
	file.Set(key, typed)

	check := viper.New()
	for k, val := range defaults {
		check.SetDefault(k, val)
	}
	if err := check.MergeConfigMap(file.AllSettings()); err != nil {
		return err
	}
	var cfg Config
	if err := check.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return save(baseDir, file.AllSettings())
}

// Settings returns the effective value of every key.
func Settings(baseDir string) (map[string]any, error) {
	v, err := newViper(baseDir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(defaults))
	for _, k := range Keys() {
		out[k] = v.Get(k)
	}
	return out, nil
}

// coerce stores booleans and integers with their JSON type.
func coerce(key, value string) (any, error) {
	switch defaults[key].(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected true or false, got %q", key, value)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected an integer, got %q", key, value)
		}
		return n, nil
	default:
		return value, nil
	}
}

// save writes settings atomically (temp file + rename).
func save(baseDir string, settings map[string]any) error {
	path := Path(baseDir)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
