// Package mempool holds unconfirmed subnet transactions between admission
// and inclusion in a mined L2 block.
package mempool

import "github.com/Klingon-tech/klingnet-chain/pkg/types"

// MempoolTx is one pending transaction plus the bookkeeping the Admission
// and Iterator components need: the nonces it was admitted against, the
// L2 chain tip it was admitted under, and the iterator's view of each
// account's progress through nonce order.
type MempoolTx struct {
	TxId   types.TxId
	Tx     []byte
	TxFee  uint64
	Length uint64

	OriginAddress string
	OriginNonce   uint64

	// SponsorAddress is empty when the transaction has no separate
	// fee-sponsor; in that case SponsorNonce is unused.
	SponsorAddress string
	SponsorNonce   uint64

	ConsensusHash   types.ConsensusHash
	BlockHeaderHash types.L2BlockHash
	Height          uint64
	AcceptTime      int64

	// LastKnownOriginNonce and LastKnownSponsorNonce are nil until a
	// per-address cursor has been set for the corresponding account in
	// the Store (by the Iterator's nonce refresh or bump); the cursor
	// persists across iteration passes.
	LastKnownOriginNonce  *uint64
	LastKnownSponsorNonce *uint64

	// FeeRate is present only when a CostEstimator produced one at
	// admission time; its absence routes the tx into the unestimated
	// iteration branch.
	FeeRate    float64
	HasFeeRate bool

	Sponsored bool
}

// readyToMine reports whether this entry matches "ready to mine": each
// known nonce equals the account's last-known nonce, or the nonce is not
// yet known (a nonce-refresh event is due).
func (t *MempoolTx) readyToMine() bool {
	if t.LastKnownOriginNonce == nil {
		return true
	}
	if t.OriginNonce != *t.LastKnownOriginNonce {
		return false
	}
	if !t.Sponsored {
		return true
	}
	if t.LastKnownSponsorNonce == nil {
		return true
	}
	return t.SponsorNonce == *t.LastKnownSponsorNonce
}

func (t *MempoolTx) needsNonceRefresh() bool {
	if t.LastKnownOriginNonce == nil {
		return true
	}
	return t.Sponsored && t.LastKnownSponsorNonce == nil
}
