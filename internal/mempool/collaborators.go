package mempool

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// Chainstate answers the account and fork questions admission and
// iteration need. Implementations are expected to be cheap and
// synchronous; the mempool never blocks on chain I/O beyond this.
type Chainstate interface {
	// HeightOf returns the L2 height of the given tip, or false if the
	// tip is unknown to this node.
	HeightOf(consensusHash types.ConsensusHash, blockHeaderHash types.L2BlockHash) (uint64, bool)

	// NonceOf returns the current account nonce as of the node's
	// present view of the canonical chain.
	NonceOf(address string) (uint64, error)

	// IsAncestor reports whether (candidateConsensusHash,
	// candidateBlockHeaderHash) is on the same fork as, and no later
	// than, (tipConsensusHash, tipBlockHeaderHash). Identical
	// identifiers are trivially an ancestor of themselves.
	IsAncestor(candidateConsensusHash types.ConsensusHash, candidateBlockHeaderHash types.L2BlockHash,
		tipConsensusHash types.ConsensusHash, tipBlockHeaderHash types.L2BlockHash) (bool, error)
}

// Admitter applies node-local policy (minimum fee, blocklists, rate
// limits) on top of the structural admission rules below. A non-nil
// error rejects the transaction.
type Admitter interface {
	WillAdmit(tx *MempoolTx) error
}

// CostEstimator produces a fee-rate estimate for a candidate
// transaction. ok is false when no estimate could be produced, which
// routes the transaction into the unestimated iteration branch instead
// of failing admission.
type CostEstimator interface {
	Estimate(tx *MempoolTx) (feeRate float64, ok bool)
}

// EventObserver is notified of mempool membership changes. Every method
// is fire-and-forget: callers do not wait on it and it never blocks
// admission, iteration, or GC.
type EventObserver interface {
	MempoolTxsDropped(txids []types.TxId, reason string)
	AnnounceNewTx(tx *MempoolTx)
}

// RejectReason tags why Submit refused a transaction.
type RejectReason int

const (
	RejectNotAdmitted RejectReason = iota
	RejectConflictingNonceInMempool
	RejectUnknownChainTip
)

func (r RejectReason) String() string {
	switch r {
	case RejectNotAdmitted:
		return "not_admitted"
	case RejectConflictingNonceInMempool:
		return "conflicting_nonce_in_mempool"
	case RejectUnknownChainTip:
		return "unknown_chain_tip"
	default:
		return "unknown"
	}
}

// Reject is returned by Submit when a transaction is refused. It is
// never returned for infrastructure failures (storage errors, for
// instance), which are returned unwrapped.
type Reject struct {
	Reason RejectReason
	Err    error
}

func (r *Reject) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("mempool: rejected (%s): %v", r.Reason, r.Err)
	}
	return fmt.Sprintf("mempool: rejected (%s)", r.Reason)
}

func (r *Reject) Unwrap() error { return r.Err }
