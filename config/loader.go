package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts file lookups so the loader is testable.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// configSearchPaths are tried in order when no config file is given.
var configSearchPaths = []string{
	"./config.yml",
	"./config/config.yml",
	"./cmd/executionbackup/config.yml",
	"/etc/executionbackup/config.yml",
}

// envSearchPaths are tried in order when no .env file is given.
var envSearchPaths = []string{
	".env.executionbackup",
	".env",
}

// Load reads the configuration from YAML, .env, and environment
// variables, applies defaults, and validates the result.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.ConfigFile == "" {
		lc.ConfigFile = firstExisting(lc.FileSystem, configSearchPaths)
	}
	if lc.EnvFile == "" {
		lc.EnvFile = firstExisting(lc.FileSystem, envSearchPaths)
	}

	v := viper.New()

	if lc.ConfigFile != "" && lc.FileSystem.Exists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", lc.ConfigFile, err)
		}
	}

	// The .env file is loaded into the process environment first so the
	// env binding pass below sees its variables.
	if lc.EnvFile != "" && lc.FileSystem.Exists(lc.EnvFile) {
		if err := lc.FileSystem.LoadEnv(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", lc.EnvFile, err)
		}
	}

	v.SetEnvPrefix("EB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, path := range paths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// envKeys are the config keys the proxy reads from the environment.
// Viper's AutomaticEnv cannot enumerate nested keys on its own, so each
// one is bound explicitly. EB_NODES accepts a space-separated list.
var envKeys = []string{
	"name",
	"environment",
	"debug",
	"logging.level",
	"logging.format",
	"server.listen_addr",
	"server.port",
	"nodes",
	"jwt_secret",
	"fcu_majority",
	"recheck_interval",
	"node_timings",
	"network",
	"forks.genesis_time",
	"forks.shanghai_fork_epoch",
	"forks.cancun_fork_epoch",
	"observability.metrics_enabled",
	"observability.tracing_enabled",
	"observability.endpoint",
	"observability.insecure",
	"observability.interval",
	"observability.sample_rate",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Node lists arrive as one variable; split on whitespace so
	// EB_NODES="http://a:8551 http://b:8551" works.
	if raw := os.Getenv("EB_NODES"); raw != "" {
		v.Set("nodes", strings.Fields(raw))
	}
}
