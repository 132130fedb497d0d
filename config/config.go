// Package config handles application configuration.
//
// Configuration is split the same way the rest of this codebase splits it:
// node settings that can vary per operator (data directory, bind addresses,
// logging) versus the handful of protocol-level knobs the ingestion core
// needs to agree on with its L1 poster (the governing contract identifier).
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds node-specific runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Burnchain ingest
	Ingest IngestConfig

	// Mempool tuning
	Mempool MempoolConfig

	// Logging
	Log LogConfig
}

// IngestConfig holds the ingest HTTP receiver's settings and the identity
// of the governing L1 contract whose events the Event Decoder trusts.
type IngestConfig struct {
	Addr            string `conf:"ingest.addr"`
	Port            int    `conf:"ingest.port"`
	SubnetsContract string `conf:"ingest.subnets_contract"`
}

// MempoolConfig holds Mempool Iterator and GC tuning knobs.
type MempoolConfig struct {
	MinTxFee                 uint64 `conf:"mempool.min_tx_fee"`
	MaxWalkTimeMS            int64  `conf:"mempool.max_walk_time_ms"`
	ConsiderNoEstimateTxProb int    `conf:"mempool.consider_no_estimate_tx_prob"`
	MaxTransactionAge        uint64 `conf:"mempool.max_transaction_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.subnetcore
//	macOS:   ~/Library/Application Support/Subnetcore
//	Windows: %APPDATA%\Subnetcore
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".subnetcore"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Subnetcore")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Subnetcore")
		}
		return filepath.Join(home, "AppData", "Roaming", "Subnetcore")
	default:
		return filepath.Join(home, ".subnetcore")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// CoreDir returns the single Badger database directory shared by the
// Header Store and Mempool Store, which isolate their own key ranges
// within it via storage.PrefixDB rather than each opening a separate
// database.
func (c *Config) CoreDir() string {
	return filepath.Join(c.ChainDataDir(), "core")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "subnetcore.conf")
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Idempotent — safe to call on every startup.
func EnsureDataDirs(c *Config) error {
	for _, dir := range []string{c.DataDir, c.ChainDataDir(), c.CoreDir(), c.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	configPath := c.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, c.Network); err != nil {
			return err
		}
	}
	return nil
}
