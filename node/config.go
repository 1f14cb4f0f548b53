package node

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Network  string `json:"network"`
	DataDir  string `json:"data_dir"`
	BindAddr string `json:"bind_addr"`
	LogLevel string `json:"log_level"`
	MaxConns int    `json:"max_conns"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".qvault"
	}
	return filepath.Join(home, ".qvault")
}

func DefaultConfig() Config {
	return Config{
		Network:  "devnet",
		DataDir:  DefaultDataDir(),
		BindAddr: "0.0.0.0:19211",
		LogLevel: "info",
		MaxConns: 64,
	}
}

func ValidateConfig(cfg Config) error {
	switch cfg.Network {
	case "devnet", "testnet", "mainnet":
	default:
		return fmt.Errorf("config: unknown network %q", cfg.Network)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("config: data_dir required")
	}
	if _, _, err := net.SplitHostPort(cfg.BindAddr); err != nil {
		return fmt.Errorf("config: bind_addr: %w", err)
	}
	if _, ok := allowedLogLevels[cfg.LogLevel]; !ok {
		return fmt.Errorf("config: log_level must be debug|info|warn|error")
	}
	if cfg.MaxConns <= 0 {
		return fmt.Errorf("config: max_conns must be positive")
	}
	return nil
}

// LoadConfigFile reads a JSON config, layering file values over defaults.
// A missing path is not an error; defaults apply.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path) // #nosec G304 -- operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, nil
}

// NetworkMagic returns the transport magic for a network name.
func NetworkMagic(network string) uint32 {
	switch network {
	case "mainnet":
		return 0x51564d31 // "QVM1"
	case "testnet":
		return 0x51565431 // "QVT1"
	default:
		return 0x51564431 // "QVD1"
	}
}
