package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads node configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a node config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	case "ingest.addr":
		cfg.Ingest.Addr = value
	case "ingest.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Ingest.Port = port
	case "ingest.subnets_contract":
		cfg.Ingest.SubnetsContract = value

	case "mempool.min_tx_fee":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Mempool.MinTxFee = n
	case "mempool.max_walk_time_ms":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Mempool.MaxWalkTimeMS = n
	case "mempool.consider_no_estimate_tx_prob":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mempool.ConsiderNoEstimateTxProb = n
	case "mempool.max_transaction_age":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Mempool.MaxTransactionAge = n

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored.
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default node configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Subnet core node configuration.
#
# This file configures the L1->L2 ingestion and mempool core:
# where to bind the ingest HTTP receiver, which L1 contract governs
# subnet operations, and how the mempool iterator is tuned.

network = ` + string(network) + `

# Data directory (default: ~/.subnetcore)
# datadir = ~/.subnetcore

# ============================================================================
# Burnchain ingest
# ============================================================================

ingest.addr = 127.0.0.1
ingest.port = ` + defaultIngestPort(network) + `

# Governing contract identifier, e.g. SP000000000000000000002Q6VF78.subnet-v1
# ingest.subnets_contract =

# ============================================================================
# Mempool
# ============================================================================

mempool.min_tx_fee = 0
mempool.max_walk_time_ms = 2000
mempool.consider_no_estimate_tx_prob = 5
mempool.max_transaction_age = 256

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultIngestPort(network NetworkType) string {
	if network == Testnet {
		return "50304"
	}
	return "50303"
}
