package mempool

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-chain/internal/log"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// Admission is the Mempool Admission component (G): the gate between a
// freshly decoded candidate transaction and a row in the Store.
type Admission struct {
	store      *Store
	chainstate Chainstate
	admitter   Admitter
	estimator  CostEstimator
	observer   EventObserver
}

// NewAdmission builds an Admission gate over store. observer may be nil.
func NewAdmission(store *Store, chainstate Chainstate, admitter Admitter, estimator CostEstimator, observer EventObserver) *Admission {
	return &Admission{store: store, chainstate: chainstate, admitter: admitter, estimator: estimator, observer: observer}
}

// Submit runs the admission decision for one candidate transaction and,
// on acceptance, writes it into the Store. acceptTime is the node's
// current wall-clock time in unix seconds.
func (a *Admission) Submit(tx MempoolTx, acceptTime int64) error {
	height, ok := a.chainstate.HeightOf(tx.ConsensusHash, tx.BlockHeaderHash)
	if !ok {
		return &Reject{Reason: RejectUnknownChainTip, Err: fmt.Errorf("tip %s/%s not known to chainstate", tx.ConsensusHash, tx.BlockHeaderHash)}
	}
	tx.Height = height
	tx.AcceptTime = acceptTime

	if err := a.admitter.WillAdmit(&tx); err != nil {
		return &Reject{Reason: RejectNotAdmitted, Err: err}
	}

	if rate, ok := a.estimator.Estimate(&tx); ok {
		tx.FeeRate = rate
		tx.HasFeeRate = true
	} else {
		tx.HasFeeRate = false
	}

	existingOrigin, hasOrigin, err := a.store.GetByOriginNonce(tx.OriginAddress, tx.OriginNonce)
	if err != nil {
		return err
	}

	var existingSponsor MempoolTx
	var hasSponsor bool
	if tx.Sponsored {
		existingSponsor, hasSponsor, err = a.store.GetBySponsorNonce(tx.SponsorAddress, tx.SponsorNonce)
		if err != nil {
			return err
		}
	}

	switch {
	case !hasOrigin && !hasSponsor:
		if err := a.store.Insert(tx); err != nil {
			return err
		}
	case hasOrigin && (!tx.Sponsored || !hasSponsor || existingSponsor.TxId == existingOrigin.TxId):
		if err := a.decideReplace(existingOrigin, tx); err != nil {
			return err
		}
	case hasSponsor && !hasOrigin:
		if err := a.decideReplace(existingSponsor, tx); err != nil {
			return err
		}
	default:
		return &Reject{Reason: RejectConflictingNonceInMempool, Err: fmt.Errorf("origin and sponsor nonce slots occupied by different rows")}
	}

	if a.observer != nil {
		a.observer.AnnounceNewTx(&tx)
	}
	return nil
}

// decideReplace implements replace-by-fee (RBF) and replace-across-fork
// (RAF), in that order, per P5 and the original try_add_tx: a strictly
// higher tx_fee always replaces the incumbent outright; only when the fee
// isn't strictly higher does fork membership matter, and only then does a
// stale incumbent (neither its tip nor the candidate's is an ancestor of
// the other) get replaced regardless of fee. Anything else is rejected.
// Each replacement reports the dropped incumbent to the observer.
func (a *Admission) decideReplace(incumbent MempoolTx, candidate MempoolTx) error {
	if candidate.TxFee > incumbent.TxFee {
		log.Mempool.Info().
			Str("incumbent_txid", incumbent.TxId.String()).
			Str("candidate_txid", candidate.TxId.String()).
			Msg("replacing mempool entry by fee")
		if err := a.store.Replace(incumbent.TxId, candidate); err != nil {
			return err
		}
		if a.observer != nil {
			a.observer.MempoolTxsDropped([]types.TxId{incumbent.TxId}, "REPLACE_BY_FEE")
		}
		return nil
	}

	sameFork, err := a.chainstate.IsAncestor(incumbent.ConsensusHash, incumbent.BlockHeaderHash, candidate.ConsensusHash, candidate.BlockHeaderHash)
	if err != nil {
		return err
	}
	if !sameFork {
		sameFork, err = a.chainstate.IsAncestor(candidate.ConsensusHash, candidate.BlockHeaderHash, incumbent.ConsensusHash, incumbent.BlockHeaderHash)
		if err != nil {
			return err
		}
	}

	if !sameFork {
		// Replace-across-fork: neither tip is an ancestor of the other,
		// so the incumbent was admitted against a different fork than
		// the candidate's. The incumbent is stale regardless of fee.
		log.Mempool.Info().
			Str("incumbent_txid", incumbent.TxId.String()).
			Str("candidate_txid", candidate.TxId.String()).
			Msg("replacing mempool entry across fork")
		if err := a.store.Replace(incumbent.TxId, candidate); err != nil {
			return err
		}
		if a.observer != nil {
			a.observer.MempoolTxsDropped([]types.TxId{incumbent.TxId}, "REPLACE_ACROSS_FORK")
		}
		return nil
	}

	return &Reject{Reason: RejectConflictingNonceInMempool,
		Err: fmt.Errorf("candidate does not pay a strictly higher fee than incumbent %s", incumbent.TxId)}
}
