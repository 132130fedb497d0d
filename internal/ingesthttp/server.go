// Package ingesthttp implements the HTTP receiver (component B's network
// edge) that accepts streamed L1 block envelopes from the external L1
// poster and drives them through the Header Store and Op Assembler.
package ingesthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Klingon-tech/klingnet-chain/internal/burnchain"
	"github.com/Klingon-tech/klingnet-chain/internal/events"
	klog "github.com/Klingon-tech/klingnet-chain/internal/log"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
	"github.com/rs/zerolog"
)

// maxBodySize is the maximum allowed /new_block request body (8 MB: a
// burn block can carry a large number of contract events).
const maxBodySize = 8 << 20

// BlockSink receives each assembled block in delivery order. The L2
// block-building coordinator is an external collaborator; this
// interface is its only seam into the ingestion core.
type BlockSink interface {
	HandleBlock(block events.SubnetBlock)
}

// Server is the POST /new_block HTTP receiver. A single in-flight write
// at a time; concurrent posts queue at the handler, mirroring the
// single-writer Ingest Channel it drives.
type Server struct {
	addr            string
	subnetsContract string
	ingest          *burnchain.Ingest
	sink            BlockSink
	server          *http.Server
	logger          zerolog.Logger
	ln              net.Listener
	mu              sync.Mutex
}

// New creates an ingest HTTP server bound to addr, feeding accepted
// headers into ingest and assembled blocks into sink. sink may be nil
// in configurations that only need the header index kept current.
func New(addr string, subnetsContract string, ingest *burnchain.Ingest, sink BlockSink) *Server {
	s := &Server{
		addr:            addr,
		subnetsContract: subnetsContract,
		ingest:          ingest,
		sink:            sink,
		logger:          klog.Ingest,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/new_block", s.handleNewBlock)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start begins listening and serving in a background goroutine. It
// returns immediately once the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("ingesthttp listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("ingest HTTP server error")
		}
	}()

	return nil
}

// Addr returns the listener address (useful when bound to :0 in tests).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// handleNewBlock accepts one NewBlock envelope: it records the header,
// assembles the block's operations, and hands the block to the sink.
// The response body is always empty; only the status code carries
// meaning to the poster.
func (s *Server) handleNewBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST is allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodySize {
		http.Error(w, "request body too large", http.StatusBadRequest)
		return
	}

	var nb events.NewBlock
	if err := json.Unmarshal(body, &nb); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	header, err := headerFromEnvelope(nb)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejecting new_block envelope with malformed header fields")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gcaHeight, reorged, err := s.ingest.Deliver(header)
	if err != nil {
		s.logger.Error().Err(err).
			Uint64("height", header.Height).
			Str("hash", header.HeaderHash.String()).
			Msg("failed to deliver header")
		http.Error(w, "failed to record header", http.StatusInternalServerError)
		return
	}
	if reorged {
		s.logger.Info().
			Uint64("gca_height", gcaHeight).
			Uint64("new_tip_height", header.Height).
			Str("new_tip", header.HeaderHash.String()).
			Msg("reorg onto new canonical tip")
	}

	if s.sink != nil {
		block, err := events.AssembleBlock(nb, s.subnetsContract)
		if err != nil {
			// AssembleBlock never fails on per-event decode problems; an
			// error here means the envelope's own header fields were bad,
			// which headerFromEnvelope above would already have caught. Log
			// and move on rather than failing the whole block.
			s.logger.Warn().Err(err).Msg("failed to assemble block")
		} else {
			s.sink.HandleBlock(block)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// headerFromEnvelope extracts the Header Store row implied by a
// NewBlock envelope's top-level fields.
func headerFromEnvelope(nb events.NewBlock) (burnchain.Header, error) {
	current, err := types.HexToL1BlockHash(nb.IndexBlockHash)
	if err != nil {
		return burnchain.Header{}, fmt.Errorf("index_block_hash: %w", err)
	}
	parent, err := types.HexToL1BlockHash(nb.ParentIndexBlockHash)
	if err != nil {
		return burnchain.Header{}, fmt.Errorf("parent_index_block_hash: %w", err)
	}
	return burnchain.Header{
		Height:           nb.BlockHeight,
		HeaderHash:       current,
		ParentHeaderHash: parent,
		Timestamp:        nb.BurnBlockTime,
	}, nil
}
