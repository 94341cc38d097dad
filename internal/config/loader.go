package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

var current atomic.Pointer[Config]

var (
	onReloadMu        sync.Mutex
	onReloadCallbacks []func(*Config)
)

// Get returns the current in-memory config (hot-reloaded when the file changes).
func Get() *Config { return current.Load() }

// Set sets the current in-memory config. Used at startup and by the file watcher.
func Set(c *Config) {
	if c != nil {
		current.Store(c)
	}
}

// RegisterOnReload registers a callback that runs after config is hot-reloaded
// (e.g. so the server can pick up a rotated auth token).
func RegisterOnReload(fn func(*Config)) {
	onReloadMu.Lock()
	defer onReloadMu.Unlock()
	onReloadCallbacks = append(onReloadCallbacks, fn)
}

func notifyReload(cfg *Config) {
	onReloadMu.Lock()
	cb := make([]func(*Config), len(onReloadCallbacks))
	copy(cb, onReloadCallbacks)
	onReloadMu.Unlock()
	for _, fn := range cb {
		fn(cfg)
	}
}

//go:embed config.example.yaml
var exampleConfigBytes []byte

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyLoadDefaults(&cfg)
	return &cfg, nil
}

// LoadFromExample unmarshals the embedded config.example.yaml as the default
// config for fresh installs.
func LoadFromExample() (*Config, error) {
	expanded := expandEnvVars(string(exampleConfigBytes))
	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse example config: %w", err)
	}
	applyLoadDefaults(&cfg)
	return &cfg, nil
}

// WriteExample writes the embedded example config to path if nothing exists
// there yet.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, exampleConfigBytes, 0o600)
}

func applyLoadDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 18790
	}
	if cfg.Transport.Driver == "" {
		cfg.Transport.Driver = "noop"
	}
	if cfg.Transport.CredentialDir == "" {
		cfg.Transport.CredentialDir = CredentialDir()
	}
	if cfg.Transport.MediaDir == "" {
		cfg.Transport.MediaDir = MediaDir()
	}
	if cfg.Cache.Sweep == "" {
		cfg.Cache.Sweep = "0 0 4 * * *"
	}
	if cfg.Cache.RetentionDays <= 0 {
		cfg.Cache.RetentionDays = 7
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func expandEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}
