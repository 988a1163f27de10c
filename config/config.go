package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/executionbackup/engine"
	"github.com/kbukum/executionbackup/logger"
	"github.com/kbukum/executionbackup/validation"
)

// Network names with a built-in fork schedule.
const (
	NetworkMainnet = "mainnet"
	NetworkHolesky = "holesky"
	NetworkCustom  = "custom"
)

const nodeSecretSuffix = "#jwt-secret="

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" mapstructure:"listen_addr"`
	Port       int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Addr returns the host:port to bind.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddr, c.Port)
}

// ObservabilityConfig configures OTLP metrics and tracing export.
type ObservabilityConfig struct {
	MetricsEnabled bool          `yaml:"metrics_enabled" mapstructure:"metrics_enabled"`
	TracingEnabled bool          `yaml:"tracing_enabled" mapstructure:"tracing_enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// NodeEntry is one execution node after the jwt-secret suffix is split
// off its configured URL.
type NodeEntry struct {
	URL string
	// JwtSecretPath overrides the pool-wide jwt_secret when set.
	JwtSecretPath string
}

// Config is the full proxy configuration.
type Config struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`

	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Nodes lists execution node URLs, each optionally suffixed with
	// #jwt-secret=<path>.
	Nodes []string `yaml:"nodes" mapstructure:"nodes"`
	// JwtSecret is the path to the hex-encoded secret used for nodes
	// without their own suffix.
	JwtSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`

	// FcuMajority is the fraction of responders that must agree on a
	// forkchoiceUpdated or newPayload verdict.
	FcuMajority float64 `yaml:"fcu_majority" mapstructure:"fcu_majority"`
	// RecheckInterval is how often node health is probed.
	RecheckInterval time.Duration `yaml:"recheck_interval" mapstructure:"recheck_interval"`
	// NodeTimings logs per-node probe times on every recheck.
	NodeTimings bool `yaml:"node_timings" mapstructure:"node_timings"`

	// Network selects a built-in fork schedule; "custom" uses Forks.
	Network string            `yaml:"network" mapstructure:"network"`
	Forks   engine.ForkConfig `yaml:"forks" mapstructure:"forks"`

	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in defaults for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "executionbackup"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	c.Logging.ApplyDefaults()

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 7000
	}

	if c.FcuMajority == 0 {
		c.FcuMajority = 0.6
	}
	if c.RecheckInterval == 0 {
		c.RecheckInterval = 15 * time.Second
	}
	if c.Network == "" {
		c.Network = NetworkMainnet
	}

	if c.Observability.Interval == 0 {
		c.Observability.Interval = 30 * time.Second
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := validation.Validate(c); err != nil {
		return err
	}

	v := validation.New().
		Required("name", c.Name).
		OneOf("environment", c.Environment, []string{"development", "staging", "production"}).
		Range("server.port", c.Server.Port, 1, 65535).
		NonEmpty("nodes", len(c.Nodes)).
		Fraction("fcu_majority", c.FcuMajority).
		OneOf("network", c.Network, []string{NetworkMainnet, NetworkHolesky, NetworkCustom})

	entries := c.ParsedNodes()
	for i, entry := range entries {
		v.RequiredURL(fmt.Sprintf("nodes[%d]", i), entry.URL)
		if entry.JwtSecretPath == "" && c.JwtSecret == "" {
			v.AddError(fmt.Sprintf("nodes[%d]", i), "has no jwt-secret suffix and no pool-wide jwt_secret is set")
		}
	}

	if c.Network == NetworkCustom && c.Forks.GenesisTime == 0 {
		v.AddError("forks.genesis_time", "is required for a custom network")
	}

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ParsedNodes splits each node entry into its URL and optional
// jwt-secret path.
func (c *Config) ParsedNodes() []NodeEntry {
	entries := make([]NodeEntry, 0, len(c.Nodes))
	for _, raw := range c.Nodes {
		entry := NodeEntry{URL: strings.TrimSpace(raw)}
		if idx := strings.Index(entry.URL, nodeSecretSuffix); idx != -1 {
			entry.JwtSecretPath = entry.URL[idx+len(nodeSecretSuffix):]
			entry.URL = entry.URL[:idx]
		}
		entries = append(entries, entry)
	}
	return entries
}

// ForkConfig resolves the network's fork schedule.
func (c *Config) ForkConfig() engine.ForkConfig {
	switch c.Network {
	case NetworkHolesky:
		return engine.HoleskyForkConfig()
	case NetworkCustom:
		return c.Forks
	default:
		return engine.MainnetForkConfig()
	}
}
