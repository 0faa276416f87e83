package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gophercraft/gcportal-go/internal/infra/confloader"
	"github.com/gophercraft/gcportal-go/internal/storage"
)

// DirName is the per-user directory under the home directory.
const DirName = ".gcportal"

// CLIConfig is the configuration for gcportal-cli.
type CLIConfig struct {
	Server string `koanf:"server" yaml:"server"`
	Output string `koanf:"output" yaml:"output"` // table, json, yaml

	Transport TransportConfig `koanf:"transport" yaml:"transport"`
	Store     StoreConfig     `koanf:"store" yaml:"store"`
	Poll      PollConfig      `koanf:"poll" yaml:"poll"`
	Log       LogConfig       `koanf:"log" yaml:"log"`

	// Saved server profiles for the connect command.
	Connections       map[string]ConnectionConfig `koanf:"connections" yaml:"connections,omitempty"`
	CurrentConnection string                      `koanf:"current" yaml:"current,omitempty"`
}

// TransportConfig controls the HTTP client.
type TransportConfig struct {
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout"`
	RateLimit float64       `koanf:"ratelimit" yaml:"ratelimit"` // requests per second, 0 = unlimited
	CAFile    string        `koanf:"cafile" yaml:"cafile,omitempty"`
}

// StoreConfig selects the credential store.
type StoreConfig struct {
	Backend string      `koanf:"backend" yaml:"backend"`
	Dir     string      `koanf:"dir" yaml:"dir"`
	Encrypt bool        `koanf:"encrypt" yaml:"encrypt"`
	KeyFile string      `koanf:"keyfile" yaml:"keyfile,omitempty"`
	Redis   RedisConfig `koanf:"redis" yaml:"redis"`
}

// RedisConfig is used when Store.Backend is "redis".
type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db"`
	Prefix   string `koanf:"prefix" yaml:"prefix"`
}

// PollConfig controls realm watch.
type PollConfig struct {
	Interval time.Duration `koanf:"interval" yaml:"interval"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// ConnectionConfig is a saved server profile.
type ConnectionConfig struct {
	Server string `koanf:"server" yaml:"server" json:"server"`
	CAFile string `koanf:"cafile" yaml:"cafile,omitempty" json:"cafile,omitempty"`
}

// Dir returns ~/.gcportal.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "cli.yaml")
}

// HistoryPath returns the REPL history file path.
func HistoryPath() string {
	return filepath.Join(Dir(), "history")
}

// Default returns the built-in configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: "http://localhost:8080",
		Output: "table",
		Transport: TransportConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend: storage.BackendBadger,
			Dir:     filepath.Join(Dir(), "store"),
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "gcportal:",
			},
		},
		Poll: PollConfig{Interval: 3 * time.Second},
		Log:  LogConfig{Level: "warn", Format: "text"},
	}
}

func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"server":              d.Server,
		"output":              d.Output,
		"transport.timeout":   d.Transport.Timeout.String(),
		"transport.ratelimit": d.Transport.RateLimit,
		"store.backend":       d.Store.Backend,
		"store.dir":           d.Store.Dir,
		"store.encrypt":       d.Store.Encrypt,
		"store.redis.addr":    d.Store.Redis.Addr,
		"store.redis.db":      d.Store.Redis.DB,
		"store.redis.prefix":  d.Store.Redis.Prefix,
		"poll.interval":       d.Poll.Interval.String(),
		"log.level":           d.Log.Level,
		"log.format":          d.Log.Format,
	}
}

// Load reads the configuration at path (default path when empty). A
// missing file yields defaults. overrides are dotted keys from flags and
// take precedence over everything else.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader(
		confloader.WithDefaults(defaultValues()),
		confloader.WithOptionalConfigFile(path),
		confloader.WithOverrides(overrides),
	)

	cfg := &CLIConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c *CLIConfig) Validate() error {
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q (want table, json or yaml)", c.Output)
	}
	switch c.Store.Backend {
	case storage.BackendBadger, storage.BackendRedis, storage.BackendMemory:
	default:
		return fmt.Errorf("invalid store backend %q (want badger, redis or memory)", c.Store.Backend)
	}
	if c.Transport.Timeout < 0 {
		return errors.New("transport timeout must not be negative")
	}
	if c.Transport.RateLimit < 0 {
		return errors.New("transport ratelimit must not be negative")
	}
	return nil
}

// StorageConfig converts the store section for storage.Open.
func (c *CLIConfig) StorageConfig() storage.Config {
	return storage.Config{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Encrypt: c.Store.Encrypt,
		KeyFile: c.Store.KeyFile,
		Redis: storage.RedisConfig{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
			Prefix:   c.Store.Redis.Prefix,
		},
	}
}

// Save writes cfg as YAML with mode 0600, creating the directory.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
