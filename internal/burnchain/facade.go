package burnchain

import (
	"sync"

	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// Facade is the read-only surface the rest of the node uses (component
// C): canonical tip, header-range reads, reorg-point discovery relative
// to the last call, and first-block metadata.
type Facade struct {
	store           *Store
	subnetsContract string

	mu             sync.Mutex
	lastObserved   Header
	hasLastObserved bool
}

// NewFacade creates a façade over a header store, pinned to the given
// governing contract identifier (returned by SubnetsContract).
func NewFacade(store *Store, subnetsContract string) *Facade {
	return &Facade{store: store, subnetsContract: subnetsContract}
}

// FirstBlockHash returns the pinned first-burn header's hash.
func (f *Facade) FirstBlockHash() (types.L1BlockHash, error) {
	h, err := f.firstBlock()
	if err != nil {
		return types.L1BlockHash{}, err
	}
	return h.HeaderHash, nil
}

// FirstBlockHeight returns the pinned first-burn header's height.
func (f *Facade) FirstBlockHeight() (uint64, error) {
	h, err := f.firstBlock()
	if err != nil {
		return 0, err
	}
	return h.Height, nil
}

// FirstBlockTimestamp returns the pinned first-burn header's timestamp.
func (f *Facade) FirstBlockTimestamp() (uint64, error) {
	h, err := f.firstBlock()
	if err != nil {
		return 0, err
	}
	return h.Timestamp, nil
}

// firstBlock locates height 0 on the canonical chain. Fails with
// ErrNotConfigured if nothing has been ingested yet.
func (f *Facade) firstBlock() (Header, error) {
	rows, err := f.store.Range(0, 1)
	if err != nil {
		return Header{}, err
	}
	if len(rows) == 0 {
		return Header{}, ErrNotConfigured
	}
	return rows[0], nil
}

// GetCanonicalTip returns the current canonical tip.
func (f *Facade) GetCanonicalTip() (Header, error) {
	return f.store.TipCanonical()
}

// FindChainReorg detects an externally-triggered view change since the
// last call to this method on this façade instance. The first call
// simply caches the current tip. Subsequent calls report whether the
// previously-observed tip is still canonical; if it isn't, the return
// value is the height of the new GCA between the old observation and
// the current chain.
func (f *Facade) FindChainReorg() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tip, err := f.store.TipCanonical()
	if err == ErrNotConfigured {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if !f.hasLastObserved {
		f.lastObserved = tip
		f.hasLastObserved = true
		return tip.Height, nil
	}

	last, lerr := f.store.Get(f.lastObserved.HeaderHash)
	if lerr == nil && last.IsCanonical {
		f.lastObserved = tip
		return tip.Height, nil
	}

	// The previously-observed tip fell off the canonical chain: find
	// the first canonical ancestor of it (the new GCA).
	cur := f.lastObserved.HeaderHash
	for {
		h, gerr := f.store.Get(cur)
		if gerr != nil {
			return 0, ErrCorruptAncestry
		}
		if h.IsCanonical {
			f.lastObserved = tip
			return h.Height, nil
		}
		if h.Height == 0 {
			f.lastObserved = tip
			return 0, nil
		}
		cur = h.ParentHeaderHash
	}
}

// ReadHeaders returns canonical headers with contiguous ascending
// heights in [start, end), truncating at the first missing height.
func (f *Facade) ReadHeaders(start, end uint64) ([]Header, error) {
	return f.store.Range(start, end)
}

// SyncHeaders returns the current highest canonical height. This
// implementation is push-driven (headers arrive via Ingest), so there
// is no network I/O to perform here.
func (f *Facade) SyncHeaders(_, _ uint64) (uint64, error) {
	tip, err := f.store.TipCanonical()
	if err == ErrNotConfigured {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return tip.Height, nil
}

// DropHeaders is a no-op: headers are never forgotten.
func (f *Facade) DropHeaders(_ uint64) error {
	return nil
}

// SubnetsContract returns the governing contract identifier used by the
// Event Decoder to filter L1 events.
func (f *Facade) SubnetsContract() string {
	return f.subnetsContract
}
