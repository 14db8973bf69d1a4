package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the metadex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	Prefetch PrefetchConfig `yaml:"prefetch"`
	Plugins  PluginsConfig  `yaml:"plugins"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Callers presenting one of
// BackofficeKeys are privileged and may request versioned results.
type AuthConfig struct {
	BackofficeKeys []string `yaml:"backoffice_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// APIConfig holds the external endpoint identity used when building detail
// and execute links.
type APIConfig struct {
	Host    string `yaml:"host"`
	Context string `yaml:"context"`
}

// DatabaseConfig holds entity store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SearchConfig holds filter pipeline settings.
type SearchConfig struct {
	// Workers is the data-parallel fan-out per stage.
	Workers int `yaml:"workers"`
	// ParallelThreshold is the candidate-set size above which stages run
	// on the worker pool instead of sequentially.
	ParallelThreshold int `yaml:"parallel_threshold"`
}

// PrefetchConfig holds reference-resolution settings.
type PrefetchConfig struct {
	MaxHops int `yaml:"max_hops"`
}

// PluginsConfig holds plugin/format table refresh settings.
type PluginsConfig struct {
	SyncIntervalSec int `yaml:"sync_interval_sec"`
	// MaxErrors is the cumulative refresh-failure threshold after which the
	// table reports unhealthy.
	MaxErrors int `yaml:"max_errors"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.API.Context == "" {
		c.API.Context = "/api/v1"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "metadex:"
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Search.ParallelThreshold <= 0 {
		c.Search.ParallelThreshold = 100
	}
	if c.Prefetch.MaxHops <= 0 {
		c.Prefetch.MaxHops = 3
	}
	if c.Plugins.SyncIntervalSec <= 0 {
		c.Plugins.SyncIntervalSec = 600
	}
	if c.Plugins.MaxErrors <= 0 {
		c.Plugins.MaxErrors = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver == "redis" && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required for the redis driver")
	}
	if c.Prefetch.MaxHops > 5 {
		return fmt.Errorf("prefetch.max_hops must be at most 5, got %d", c.Prefetch.MaxHops)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
