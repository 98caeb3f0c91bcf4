package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress   string  `toml:"RPCAddress"`
	RPCRateLimit float64 `toml:"RPCRateLimit"`
	RPCRateBurst int     `toml:"RPCRateBurst"`
	DataDir      string  `toml:"DataDir"`
	Backend      string  `toml:"Backend"`
	NetworkName  string  `toml:"NetworkName"`
	AdminAddress string  `toml:"AdminAddress"`
	FeeMint      string  `toml:"FeeMint"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "vaultgame-local"
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	switch strings.TrimSpace(cfg.Backend) {
	case "":
		cfg.Backend = "leveldb"
	case "leveldb", "bolt":
	default:
		return nil, fmt.Errorf("config file %s has unknown Backend %q", path, cfg.Backend)
	}
	if strings.TrimSpace(cfg.FeeMint) == "" {
		return nil, fmt.Errorf("config file %s must set FeeMint", path)
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  ":8080",
		DataDir:     "./vaultgame-data",
		Backend:     "leveldb",
		NetworkName: "vaultgame-local",
		FeeMint:     "SKR-MINT",
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
