package node

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateConfigRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown network", func(c *Config) { c.Network = "moonnet" }},
		{"empty datadir", func(c *Config) { c.DataDir = "" }},
		{"bad bind addr", func(c *Config) { c.BindAddr = "no-port" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"zero max conns", func(c *Config) { c.MaxConns = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("%s: accepted", tc.name)
		}
	}
}

func TestLoadConfigFileLayersOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"network":"testnet","log_level":"DEBUG"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Network != "testnet" {
		t.Fatalf("network = %q", cfg.Network)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level not normalized: %q", cfg.LogLevel)
	}
	if cfg.MaxConns != DefaultConfig().MaxConns {
		t.Fatalf("default max_conns not preserved")
	}
}

func TestLoadConfigFileMissingPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("missing file changed defaults")
	}
}

func TestNetworkMagicDistinct(t *testing.T) {
	m := map[uint32]string{}
	for _, n := range []string{"devnet", "testnet", "mainnet"} {
		magic := NetworkMagic(n)
		if prev, dup := m[magic]; dup {
			t.Fatalf("networks %s and %s share magic", prev, n)
		}
		m[magic] = n
	}
}
