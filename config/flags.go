package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	Network string
	DataDir string
	Config  string

	IngestAddr      string
	IngestPort      int
	SubnetsContract string

	MinTxFee                 uint64
	MaxWalkTimeMS             int64
	ConsiderNoEstimateTxProb  int

	LogLevel string
	LogFile  string
	LogJSON  bool

	Args []string

	SetLogJSON bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("subnetd", flag.ContinueOnError)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	var testnet bool
	fs.BoolVar(&testnet, "testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.StringVar(&f.IngestAddr, "ingest-addr", "", "Ingest HTTP bind address")
	fs.IntVar(&f.IngestPort, "ingest-port", 0, "Ingest HTTP bind port")
	fs.StringVar(&f.SubnetsContract, "subnets-contract", "", "Governing L1 contract identifier")

	var minTxFee, maxWalkTimeMS, considerNoEstimateTxProb string
	fs.StringVar(&minTxFee, "min-tx-fee", "", "Minimum tx fee setting (stored in config; the iterator applies no fee floor)")
	fs.StringVar(&maxWalkTimeMS, "max-walk-time-ms", "", "Soft wall-clock deadline per iterator pass")
	fs.StringVar(&considerNoEstimateTxProb, "consider-no-estimate-tx-prob", "", "Probability (0-100) of starting a pass on the unestimated branch")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if testnet {
		f.Network = "testnet"
	}
	f.SetLogJSON = isFlagSet(fs, "log-json")

	if minTxFee != "" {
		n, err := strconv.ParseUint(minTxFee, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --min-tx-fee: %v\n", err)
			os.Exit(1)
		}
		f.MinTxFee = n
	}
	if maxWalkTimeMS != "" {
		n, err := strconv.ParseInt(maxWalkTimeMS, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --max-walk-time-ms: %v\n", err)
			os.Exit(1)
		}
		f.MaxWalkTimeMS = n
	}
	if considerNoEstimateTxProb != "" {
		n, err := strconv.Atoi(considerNoEstimateTxProb)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --consider-no-estimate-tx-prob: %v\n", err)
			os.Exit(1)
		}
		f.ConsiderNoEstimateTxProb = n
	}

	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.IngestAddr != "" {
		cfg.Ingest.Addr = f.IngestAddr
	}
	if f.IngestPort != 0 {
		cfg.Ingest.Port = f.IngestPort
	}
	if f.SubnetsContract != "" {
		cfg.Ingest.SubnetsContract = f.SubnetsContract
	}

	if f.MinTxFee != 0 {
		cfg.Mempool.MinTxFee = f.MinTxFee
	}
	if f.MaxWalkTimeMS != 0 {
		cfg.Mempool.MaxWalkTimeMS = f.MaxWalkTimeMS
	}
	if f.ConsiderNoEstimateTxProb != 0 {
		cfg.Mempool.ConsiderNoEstimateTxProb = f.ConsiderNoEstimateTxProb
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `subnetd - L1->L2 ingestion and mempool core

Usage:
  subnetd [options]
  subnetd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.subnetcore)
  --config, -c    Config file path (default: <datadir>/subnetcore.conf)

Ingest Options:
  --ingest-addr       Ingest HTTP bind address (default: 127.0.0.1)
  --ingest-port       Ingest HTTP bind port (default: 50303, testnet: 50304)
  --subnets-contract  Governing L1 contract identifier (e.g. SP000...subnet-v1)

Mempool Options:
  --min-tx-fee                     Minimum tx fee setting (the iterator applies no fee floor)
  --max-walk-time-ms               Soft wall-clock deadline per iterator pass
  --consider-no-estimate-tx-prob   Probability (0-100) of starting on the unestimated branch

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: <datadir>/logs/subnetd.log)
  --log-json      Output logs as JSON

Examples:
  subnetd --network=testnet --subnets-contract=SP000000000000000000002Q6VF78.subnet-v1
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("subnetd version 0.1.0")
		os.Exit(0)
	}

	network := Mainnet
	if strings.ToLower(flags.Network) == "testnet" {
		network = Testnet
	}

	cfg := Default(network)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}
