package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{
		Nodes:     []string{"http://127.0.0.1:8551"},
		JwtSecret: "/secrets/jwt.hex",
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Name != "executionbackup" {
		t.Errorf("unexpected name: %s", cfg.Name)
	}
	if cfg.Server.Addr() != "0.0.0.0:7000" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr())
	}
	if cfg.FcuMajority != 0.6 {
		t.Errorf("unexpected fcu_majority: %v", cfg.FcuMajority)
	}
	if cfg.RecheckInterval != 15*time.Second {
		t.Errorf("unexpected recheck_interval: %v", cfg.RecheckInterval)
	}
	if cfg.Network != NetworkMainnet {
		t.Errorf("unexpected network: %s", cfg.Network)
	}
	if !cfg.Debug {
		t.Error("development must enable debug")
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no nodes", func(t *testing.T) {
		cfg := validConfig()
		cfg.Nodes = nil
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "nodes") {
			t.Errorf("expected a nodes error, got %v", err)
		}
	})

	t.Run("bad node url", func(t *testing.T) {
		cfg := validConfig()
		cfg.Nodes = []string{"127.0.0.1:8551"}
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for a URL without a scheme")
		}
	})

	t.Run("node without any secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JwtSecret = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "jwt") {
			t.Errorf("expected a jwt secret error, got %v", err)
		}
	})

	t.Run("per node secret suffices", func(t *testing.T) {
		cfg := validConfig()
		cfg.JwtSecret = ""
		cfg.Nodes = []string{"http://127.0.0.1:8551#jwt-secret=/secrets/node.hex"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("fraction out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.FcuMajority = 1.5
		if err := cfg.Validate(); err == nil {
			t.Error("expected an error for fcu_majority > 1")
		}
	})

	t.Run("custom network needs genesis time", func(t *testing.T) {
		cfg := validConfig()
		cfg.Network = NetworkCustom
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "genesis_time") {
			t.Errorf("expected a genesis_time error, got %v", err)
		}
	})
}

func TestParsedNodes(t *testing.T) {
	cfg := &Config{Nodes: []string{
		"http://127.0.0.1:8551",
		"http://10.0.0.2:8551#jwt-secret=/secrets/node2.hex",
		"  http://10.0.0.3:8551  ",
	}}

	entries := cfg.ParsedNodes()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].URL != "http://127.0.0.1:8551" || entries[0].JwtSecretPath != "" {
		t.Errorf("unexpected entry 0: %+v", entries[0])
	}
	if entries[1].URL != "http://10.0.0.2:8551" || entries[1].JwtSecretPath != "/secrets/node2.hex" {
		t.Errorf("unexpected entry 1: %+v", entries[1])
	}
	if entries[2].URL != "http://10.0.0.3:8551" {
		t.Errorf("whitespace must be trimmed, got %+v", entries[2])
	}
}

func TestForkConfig(t *testing.T) {
	cfg := validConfig()

	if got := cfg.ForkConfig(); got.GenesisTime != 1606824023 {
		t.Errorf("mainnet genesis time: %d", got.GenesisTime)
	}

	cfg.Network = NetworkHolesky
	if got := cfg.ForkConfig(); got.GenesisTime != 1695902400 {
		t.Errorf("holesky genesis time: %d", got.GenesisTime)
	}

	cfg.Network = NetworkCustom
	cfg.Forks.GenesisTime = 42
	if got := cfg.ForkConfig(); got.GenesisTime != 42 {
		t.Errorf("custom genesis time: %d", got.GenesisTime)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
name: executionbackup
environment: production
logging:
  level: warn
  format: json
server:
  listen_addr: 127.0.0.1
  port: 8000
nodes:
  - http://127.0.0.1:8551
  - http://10.0.0.2:8551#jwt-secret=/secrets/node2.hex
jwt_secret: /secrets/jwt.hex
fcu_majority: 0.8
network: holesky
node_timings: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Environment != "production" {
		t.Errorf("unexpected environment: %s", cfg.Environment)
	}
	if cfg.Server.Addr() != "127.0.0.1:8000" {
		t.Errorf("unexpected addr: %s", cfg.Server.Addr())
	}
	if len(cfg.Nodes) != 2 {
		t.Errorf("unexpected nodes: %v", cfg.Nodes)
	}
	if cfg.FcuMajority != 0.8 {
		t.Errorf("unexpected fcu_majority: %v", cfg.FcuMajority)
	}
	if cfg.Network != NetworkHolesky {
		t.Errorf("unexpected network: %s", cfg.Network)
	}
	if !cfg.NodeTimings {
		t.Error("node_timings not carried through")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("unexpected log level: %s", cfg.Logging.Level)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EB_NODES", "http://10.1.1.1:8551 http://10.1.1.2:8551")
	t.Setenv("EB_JWT_SECRET", "/secrets/jwt.hex")
	t.Setenv("EB_SERVER_PORT", "9550")

	cfg, err := Load(WithConfigFile("/nonexistent/config.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Nodes) != 2 || cfg.Nodes[1] != "http://10.1.1.2:8551" {
		t.Errorf("EB_NODES not split: %v", cfg.Nodes)
	}
	if cfg.Server.Port != 9550 {
		t.Errorf("EB_SERVER_PORT not applied: %d", cfg.Server.Port)
	}
}

func TestLoadValidatesResult(t *testing.T) {
	if _, err := Load(WithConfigFile("/nonexistent/config.yml"), WithEnvFile("/nonexistent/.env")); err == nil {
		t.Error("an empty environment has no nodes and must fail validation")
	}
}
