// Package config loads and saves taskcanvas settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/taskcanvas/config.toml (falling back to
// ~/.config/taskcanvas/config.toml). A missing file is not an error: [Load]
// returns [Default] in that case. Every loaded file is checked with
// [Config.Validate].
//
// Example file:
//
//	[layout]
//	padding = 20.0
//
//	[hittest]
//	tolerance = 20.0
//
//	[server]
//	addr = ":8080"
//	read_timeout = "10s"
//
//	[sync]
//	redis_url = "redis://localhost:6379/0"
//	channel = "taskcanvas:sync"
//	publish_timeout = "2s"
//	retries = 3
//
//	[cache]
//	dir = ""          # defaults to $XDG_CACHE_HOME/taskcanvas
//	ttl = "24h0m0s"
//
//	[log]
//	level = "info"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/taskcanvas/pkg/errors"
	"github.com/matzehuels/taskcanvas/pkg/hittest"
	"github.com/matzehuels/taskcanvas/pkg/layout"
	"github.com/matzehuels/taskcanvas/pkg/rendersync"
)

// Config holds taskcanvas configuration.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	HitTest HitTestConfig `toml:"hittest"`
	Server  ServerConfig  `toml:"server"`
	Sync    SyncConfig    `toml:"sync"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
}

// LayoutConfig controls anchor spacing.
type LayoutConfig struct {
	Padding float64 `toml:"padding"` // percent kept free at each end of a side
}

// HitTestConfig controls pointer-to-node resolution.
type HitTestConfig struct {
	Tolerance float64 `toml:"tolerance"`
}

// ServerConfig controls the HTTP host.
type ServerConfig struct {
	Addr        string   `toml:"addr"`
	ReadTimeout Duration `toml:"read_timeout"`
}

// SyncConfig controls the Redis render-sync publisher. An empty RedisURL
// disables publishing.
type SyncConfig struct {
	RedisURL       string   `toml:"redis_url"`
	Channel        string   `toml:"channel"`
	PublishTimeout Duration `toml:"publish_timeout"`
	Retries        int      `toml:"retries"`
}

// CacheConfig controls the rendered-export cache. The CLI keeps entries in
// Dir; the server keeps them in Redis when sync.redis_url is set.
type CacheConfig struct {
	Dir string   `toml:"dir"`
	TTL Duration `toml:"ttl"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Duration is a time.Duration written as a string such as "2s".
type Duration struct{ time.Duration }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout:  LayoutConfig{Padding: layout.DefaultPadding},
		HitTest: HitTestConfig{Tolerance: hittest.DefaultTolerance},
		Server:  ServerConfig{Addr: ":8080", ReadTimeout: Duration{10 * time.Second}},
		Sync: SyncConfig{
			Channel:        rendersync.DefaultChannel,
			PublishTimeout: Duration{rendersync.DefaultPublishTimeout},
			Retries:        3,
		},
		Cache: CacheConfig{TTL: Duration{24 * time.Hour}},
		Log:   LogConfig{Level: "info"},
	}
}

// Dir returns the taskcanvas config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "taskcanvas")
}

// CacheDir returns the cache directory: Cache.Dir when set, otherwise
// taskcanvas below the user cache directory.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "taskcanvas")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path ("" for [Path]). Keys absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path ("" for [Path]), creating the directory.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if path == "" {
		path = Path()
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(Default(), path)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Layout.Padding <= 0 || c.Layout.Padding >= 50 {
		return errors.New(errors.ErrCodeInvalidConfig, "layout.padding must be in (0, 50), got %v", c.Layout.Padding)
	}
	if c.HitTest.Tolerance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "hittest.tolerance must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	if c.Sync.RedisURL != "" {
		if _, err := redis.ParseURL(c.Sync.RedisURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "sync.redis_url")
		}
	}
	if c.Sync.Retries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "sync.retries must not be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log.level")
	}
	return nil
}

// Set assigns a value addressed by a dotted key such as "layout.padding".
// The value is read as a TOML literal and falls back to a plain string.
func (c *Config) Set(key, value string) error {
	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" {
		return errors.New(errors.ErrCodeInvalidInput, "key must look like section.name, got %q", key)
	}

	next := *c
	decode := func(literal string) (toml.MetaData, error) {
		return toml.Decode(fmt.Sprintf("[%s]\n%s = %s\n", section, field, literal), &next)
	}
	md, err := decode(value)
	if err != nil {
		if md, err = decode(strconv.Quote(value)); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "set %s", key)
		}
	}
	if len(md.Undecoded()) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(c)
	return buf.String()
}
