// Subnet core daemon: L1 header ingestion, event decoding, and mempool.
//
// Usage:
//
//	subnetd [options]   Run the ingestion and mempool core
//	subnetd --help      Show help
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Klingon-tech/klingnet-chain/config"
	"github.com/Klingon-tech/klingnet-chain/internal/burnchain"
	"github.com/Klingon-tech/klingnet-chain/internal/events"
	"github.com/Klingon-tech/klingnet-chain/internal/ingesthttp"
	klog "github.com/Klingon-tech/klingnet-chain/internal/log"
	"github.com/Klingon-tech/klingnet-chain/internal/mempool"
	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
	"github.com/rs/zerolog"
)

func main() {
	// ── 1. Load config (defaults → file → flags) ────────────────────────
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Init logger ──────────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logs dir: %v\n", err)
			os.Exit(1)
		}
		logFile = logsDir + "/subnetd.log"
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Str("network", string(cfg.Network)).
		Str("subnets_contract", cfg.Ingest.SubnetsContract).
		Msg("Starting subnet core")

	// ── 3. Open the shared core database ──────────────────────────────────
	// The Header Store and Mempool Store live in one Badger database,
	// isolated from each other by storage.PrefixDB namespaces rather than
	// by separate directories.
	coreDB, err := storage.NewBadger(cfg.CoreDir())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CoreDir()).Msg("Failed to open core store")
	}
	defer coreDB.Close()

	headerDB := storage.NewPrefixDB(coreDB, []byte("header/"))
	headerStore := burnchain.NewStore(headerDB)
	ingest := burnchain.NewIngest(headerStore)
	facade := burnchain.NewFacade(headerStore, cfg.Ingest.SubnetsContract)

	switch tip, err := facade.GetCanonicalTip(); {
	case err == nil:
		logger.Info().
			Uint64("height", tip.Height).
			Str("tip", tip.HeaderHash.String()).
			Msg("Header store resumed")
	case err == burnchain.ErrNotConfigured:
		logger.Info().Msg("Header store empty, awaiting first burn header")
	default:
		logger.Fatal().Err(err).Msg("Failed to read canonical tip")
	}

	// ── 4. Open the Mempool Store ─────────────────────────────────────────
	mempoolDB := storage.NewPrefixDB(coreDB, []byte("mempool/"))
	mempoolStore, err := mempool.NewStore(mempoolDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to init mempool store")
	}

	// ── 5. Start the Ingest HTTP receiver ─────────────────────────────────
	// The L2 block-building coordinator is an external collaborator; here
	// it is represented by a sink that logs each assembled block's ops and
	// tracks the highest L1 height seen, standing in for the coordinator's
	// own height feed.
	sink := newLoggingSink()
	ingestAddr := fmt.Sprintf("%s:%d", cfg.Ingest.Addr, cfg.Ingest.Port)
	ingestServer := ingesthttp.New(ingestAddr, cfg.Ingest.SubnetsContract, ingest, sink)
	if err := ingestServer.Start(); err != nil {
		logger.Fatal().Err(err).Str("addr", ingestAddr).Msg("Failed to start ingest HTTP server")
	}
	defer ingestServer.Stop()
	logger.Info().Str("addr", ingestServer.Addr()).Msg("Ingest HTTP server started")

	// ── 6. Periodic mempool garbage collection ────────────────────────────
	// Rows buried under mempool.max_transaction_age confirmations are
	// dropped on a fixed cadence, mirroring the indexer's own sync loop.
	gcStop := make(chan struct{})
	go runMempoolGC(mempoolStore, sink, cfg.Mempool.MaxTransactionAge, gcStop, logger)
	defer close(gcStop)

	// ── 7. Startup banner ───────────────────────────────────────────────────
	logger.Info().Msg("Subnet core started successfully")

	// ── 8. Wait for shutdown ─────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	// Graceful shutdown: stop GC loop → stop ingest server → close DBs (via defers).
	logger.Info().Msg("Goodbye!")
}

// loggingSink stands in for the L2 coordinator: it logs each assembled
// block and tracks the highest L1 height observed, so the GC loop has a
// monotonic cursor to measure burial depth against in this minimal wiring.
type loggingSink struct {
	height uint64
}

func newLoggingSink() *loggingSink {
	return &loggingSink{}
}

func (s *loggingSink) HandleBlock(block events.SubnetBlock) {
	if block.BlockHeight > s.height {
		s.height = block.BlockHeight
	}
	klog.Ingest.Info().
		Uint64("height", block.BlockHeight).
		Int("ops", len(block.Ops)).
		Msg("Block assembled")
}

// runMempoolGC periodically drops mempool rows buried under maxAge
// confirmations. Runs until stop is closed.
func runMempoolGC(store *mempool.Store, sink *loggingSink, maxAge uint64, stop <-chan struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if sink.height <= maxAge {
				continue
			}
			minHeight := sink.height - maxAge
			n, err := mempool.GarbageCollect(store, noopObserver{}, minHeight)
			if err != nil {
				logger.Warn().Err(err).Msg("Mempool GC failed")
				continue
			}
			if n > 0 {
				logger.Info().Int("dropped", n).Uint64("min_height", minHeight).Msg("Mempool GC swept stale rows")
			}
		}
	}
}

// noopObserver discards mempool drop/announce events in this minimal
// wiring; a full deployment routes these to the coordinator instead.
type noopObserver struct{}

func (noopObserver) MempoolTxsDropped([]types.TxId, string) {}
func (noopObserver) AnnounceNewTx(*mempool.MempoolTx)       {}
