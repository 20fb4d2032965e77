// Package config holds the application's YAML configuration model.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	X         XConfig         `yaml:"x"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Engine    EngineConfig    `yaml:"engine"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// XConfig holds X/Twitter API credentials. Empty values are filled from
// env vars by ResolveEnv.
type XConfig struct {
	BearerToken string `yaml:"bearerToken"`
	UserToken   string `yaml:"userToken"`
	// RatePerSecond throttles outbound API calls.
	RatePerSecond float64 `yaml:"ratePerSecond"`
}

type KnowledgeConfig struct {
	// Endpoint of the knowledge-base search service. Empty disables retrieval.
	Endpoint string `yaml:"endpoint"`
	TopK     int    `yaml:"topK"`
}

type MetricsConfig struct {
	// Addr for the /metrics and /health listener. Empty disables the server.
	Addr string `yaml:"addr"`
}

type EngineConfig struct {
	// SweepInterval controls how often pending opportunities are checked
	// for expiry.
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// Format is "console", "json", or "auto" (console on a TTY).
	Format string `yaml:"format"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Storage:   StorageConfig{DBPath: defaultDBPath()},
		X:         XConfig{RatePerSecond: 1},
		Knowledge: KnowledgeConfig{TopK: 5},
		Metrics:   MetricsConfig{Addr: ""},
		Engine:    EngineConfig{SweepInterval: time.Minute},
		Logging:   LoggingConfig{Level: "info", Format: "auto"},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sparrow.db"
	}
	return filepath.Join(home, ".sparrow", "sparrow.db")
}

// ResolveEnv fills in credential fields from environment variables if unset.
func (c *Config) ResolveEnv() {
	if c.X.BearerToken == "" {
		c.X.BearerToken = os.Getenv("X_BEARER_TOKEN")
	}
	if c.X.UserToken == "" {
		c.X.UserToken = os.Getenv("X_USER_TOKEN")
	}
	if c.Knowledge.Endpoint == "" {
		c.Knowledge.Endpoint = os.Getenv("SPARROW_KNOWLEDGE_ENDPOINT")
	}
}

// Load reads YAML config from path and resolves env fallbacks. Missing
// fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns defaults when the file does
// not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.ResolveEnv()
		return cfg, nil
	}
	return cfg, err
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
