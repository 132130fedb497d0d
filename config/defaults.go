package config

// DefaultMainnet returns the default node configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		Ingest: IngestConfig{
			Addr: "127.0.0.1",
			Port: 50303,
		},
		Mempool: MempoolConfig{
			MinTxFee:                 0,
			MaxWalkTimeMS:            2000,
			ConsiderNoEstimateTxProb: 5,
			MaxTransactionAge:        256,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default node configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Ingest.Port = 50304
	return cfg
}

// Default returns the default node configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	default:
		return DefaultMainnet()
	}
}
