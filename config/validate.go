package config

import "fmt"

// Validate checks runtime node config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Network != Mainnet && cfg.Network != Testnet {
		return fmt.Errorf("network must be %q or %q", Mainnet, Testnet)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	if cfg.Ingest.Addr == "" {
		return fmt.Errorf("ingest.addr must not be empty")
	}
	if cfg.Ingest.Port < 1 || cfg.Ingest.Port > 65535 {
		return fmt.Errorf("ingest.port must be in range [1, 65535]")
	}

	if cfg.Mempool.ConsiderNoEstimateTxProb < 0 || cfg.Mempool.ConsiderNoEstimateTxProb > 100 {
		return fmt.Errorf("mempool.consider_no_estimate_tx_prob must be in range [0, 100]")
	}
	if cfg.Mempool.MaxWalkTimeMS < 0 {
		return fmt.Errorf("mempool.max_walk_time_ms must not be negative")
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	return nil
}
