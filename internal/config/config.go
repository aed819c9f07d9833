// Package config loads and persists the daemon configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Actor is a pre-provisioned identity: an opaque token the daemon will accept
// and the display name it maps to. Token issuance happens outside chatd.
type Actor struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Token string `toml:"token"`
}

// Config is the daemon configuration, normally at ~/.chatd/config.toml.
type Config struct {
	ListenAddr     string  `toml:"listen_addr"`
	DataDir        string  `toml:"data_dir"`
	SnapshotLimit  int     `toml:"snapshot_limit"`
	PollIntervalMS int     `toml:"poll_interval_ms"`
	Actors         []Actor `toml:"actors"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     "127.0.0.1:8484",
		SnapshotLimit:  100,
		PollIntervalMS: 3000,
	}
}

// Load reads config from the given path and fills unset fields with defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	def := Default()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.SnapshotLimit <= 0 {
		cfg.SnapshotLimit = def.SnapshotLimit
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = def.PollIntervalMS
	}
	return &cfg, nil
}

// LoadOrDefault reads config from path, falling back to defaults when the
// file does not exist yet.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
