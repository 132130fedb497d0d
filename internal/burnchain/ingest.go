package burnchain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-chain/internal/log"
)

// Ingest is the single-writer endpoint (component B) accepting headers
// in delivery order from the external L1 poster and updating the Header
// Store accordingly, performing a reorg when the new header overtakes
// the current canonical tip.
type Ingest struct {
	store *Store
}

// NewIngest wraps a header store with the single-writer ingest path.
func NewIngest(store *Store) *Ingest {
	return &Ingest{store: store}
}

// Deliver accepts one (header, opaque payload) tuple. The payload itself
// is not interpreted here — it is handed to the Event Decoder by the
// caller once the header has been durably recorded. Deliver returns the
// reorg's GCA height when a reorg occurred, or false if none did.
func (ig *Ingest) Deliver(h Header) (gcaHeight uint64, reorged bool, err error) {
	tip, err := ig.store.TipCanonical()
	switch {
	case err == ErrNotConfigured:
		// No tip yet: this is the first header.
		h.IsCanonical = true
		if err := ig.store.Put(h); err != nil {
			return 0, false, fmt.Errorf("ingest: put first header: %w", err)
		}
		return 0, false, nil

	case err != nil:
		return 0, false, fmt.Errorf("ingest: read canonical tip: %w", err)
	}

	switch {
	case h.ParentHeaderHash == tip.HeaderHash:
		// Fast path: simple append onto the current tip.
		h.IsCanonical = true
		if err := ig.store.Put(h); err != nil {
			return 0, false, fmt.Errorf("ingest: put header: %w", err)
		}
		return 0, false, nil

	case greater(h, tip):
		// The new header overtakes the tip by the total order: accept
		// it canonical and reorg the chain onto it.
		h.IsCanonical = true
		if err := ig.store.Put(h); err != nil {
			return 0, false, fmt.Errorf("ingest: put header: %w", err)
		}
		gca, err := ig.store.Reorg(h.HeaderHash, tip.HeaderHash)
		if err != nil {
			log.Burnchain.Fatal().Err(err).
				Str("new_tip", h.HeaderHash.String()).
				Str("old_tip", tip.HeaderHash.String()).
				Msg("reorg walked off recorded ancestry; header store is corrupt")
			return 0, false, err
		}
		return gca, true, nil

	default:
		// Side branch: recorded but not canonical. It may become
		// canonical later once its own descendants overtake the tip.
		h.IsCanonical = false
		if err := ig.store.Put(h); err != nil {
			return 0, false, fmt.Errorf("ingest: put side-branch header: %w", err)
		}
		return 0, false, nil
	}
}
