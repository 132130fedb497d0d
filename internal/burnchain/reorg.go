package burnchain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// ErrCorruptAncestry is the fatal condition raised when a reorg walk hits
// a parent hash that has no row in the Header Store, or walks off the
// start of recorded history without finding a common ancestor. Per the
// error model, this is an invariant violation, not a recoverable error —
// callers should abort the process rather than try to continue ingesting.
var ErrCorruptAncestry = fmt.Errorf("burnchain: reorg walked off the end of recorded ancestry")

// Reorg applies the canonical-chain flip from oldTip to newTip and
// returns the height of their greatest common ancestor (GCA).
//
// The GCA and both branches are found by walking newTip's and oldTip's
// ancestry back by height until the walks land on the same hash — a
// purely structural comparison over height and parent_header_hash, which
// never change once a row is written. It does not use IsCanonical as a
// stopping condition, so the result is the same no matter how many times
// it has already run: repeating the same (newTip, oldTip) call re-derives
// the identical GCA and branches and re-applies the identical flag flips
// (P2).
//
// Both branches' flips are staged into one batch so the whole reorg
// commits atomically.
func (s *Store) Reorg(newTip, oldTip types.L1BlockHash) (uint64, error) {
	newTipRow, err := s.Get(newTip)
	if err != nil {
		return 0, fmt.Errorf("%w: missing new tip %s", ErrCorruptAncestry, newTip)
	}

	// newTip itself was already written canonical by the caller (step 3
	// of the ingest algorithm); the ancestor walk starts at its parent.
	gca, newBranch, oldBranch, err := s.findCommonAncestor(newTipRow.ParentHeaderHash, oldTip)
	if err != nil {
		return 0, err
	}

	err = s.atomically(func(w batchWriter) error {
		for _, h := range newBranch {
			h.IsCanonical = true
			if err := s.stageRecord(w, h); err != nil {
				return err
			}
		}
		for _, h := range oldBranch {
			h.IsCanonical = false
			if err := s.stageRecord(w, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("burnchain: commit reorg: %w", err)
	}

	return gca.Height, nil
}

// findCommonAncestor walks newStart's and oldStart's ancestry back in
// lockstep by height until both walks reach the same header_hash — the
// GCA. The branch slices collect every row visited strictly above the
// GCA on each side, in descending-height order. Height is compared, not
// IsCanonical, so the result depends only on recorded ancestry and is
// stable across repeated calls.
func (s *Store) findCommonAncestor(newStart, oldStart types.L1BlockHash) (Header, []Header, []Header, error) {
	curNew, err := s.Get(newStart)
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("%w: missing %s", ErrCorruptAncestry, newStart)
	}
	curOld, err := s.Get(oldStart)
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("%w: missing %s", ErrCorruptAncestry, oldStart)
	}

	var newBranch, oldBranch []Header
	for curNew.HeaderHash != curOld.HeaderHash {
		switch {
		case curNew.Height > curOld.Height:
			newBranch = append(newBranch, curNew)
			if curNew.Height == 0 {
				return Header{}, nil, nil, ErrCorruptAncestry
			}
			curNew, err = s.Get(curNew.ParentHeaderHash)
			if err != nil {
				return Header{}, nil, nil, fmt.Errorf("%w: missing %s", ErrCorruptAncestry, curNew.ParentHeaderHash)
			}
		case curOld.Height > curNew.Height:
			oldBranch = append(oldBranch, curOld)
			if curOld.Height == 0 {
				return Header{}, nil, nil, ErrCorruptAncestry
			}
			curOld, err = s.Get(curOld.ParentHeaderHash)
			if err != nil {
				return Header{}, nil, nil, fmt.Errorf("%w: missing %s", ErrCorruptAncestry, curOld.ParentHeaderHash)
			}
		default:
			newBranch = append(newBranch, curNew)
			oldBranch = append(oldBranch, curOld)
			if curNew.Height == 0 {
				return Header{}, nil, nil, ErrCorruptAncestry
			}
			nextNew, err := s.Get(curNew.ParentHeaderHash)
			if err != nil {
				return Header{}, nil, nil, fmt.Errorf("%w: missing %s", ErrCorruptAncestry, curNew.ParentHeaderHash)
			}
			nextOld, err := s.Get(curOld.ParentHeaderHash)
			if err != nil {
				return Header{}, nil, nil, fmt.Errorf("%w: missing %s", ErrCorruptAncestry, curOld.ParentHeaderHash)
			}
			curNew, curOld = nextNew, nextOld
		}
	}

	return curNew, newBranch, oldBranch, nil
}
