package mempool

import (
	"math/rand"
	"time"

	"github.com/Klingon-tech/klingnet-chain/internal/log"
)

// VisitResult tells the Iterator what to do after a candidate was
// handed to the visit function.
type VisitResult struct {
	// Accept is true when the candidate was included and its account's
	// last-known nonces should advance.
	Accept bool
}

// VisitFn is invoked once per candidate chosen by IterateCandidates.
// updateEstimate is true when the candidate came from the unestimated
// branch, signaling the caller that it may want to record a fresh fee
// estimate for this transaction.
type VisitFn func(tx MempoolTx, updateEstimate bool) (VisitResult, error)

// IterateCandidates walks ready-to-mine candidates in randomized
// branch order (estimated-by-fee_rate vs unestimated-by-tx_fee),
// bumping each visited account's last-known nonces forward one on
// acceptance, until no ready candidate remains, visit declines a
// candidate, or maxWalkTime elapses.
func IterateCandidates(store *Store, chainstate Chainstate, considerNoEstimateTxProb int, maxWalkTime time.Duration, visit VisitFn) error {
	deadline := time.Now().Add(maxWalkTime)
	if maxWalkTime <= 0 {
		deadline = time.Time{}
	}

	useUnestimated := false
	keepBranch := false
	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil
		}

		if !keepBranch {
			useUnestimated = rand.Intn(100) < considerNoEstimateTxProb
		}
		keepBranch = false

		candidate, found, err := pickCandidate(store, useUnestimated)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}

		if candidate.needsNonceRefresh() {
			if err := refreshNonces(store, chainstate, candidate); err != nil {
				return err
			}
			// Loop without advancing; the next pass keeps the same
			// branch choice and re-evaluates with the refreshed nonces.
			keepBranch = true
			continue
		}

		if !candidate.readyToMine() {
			// Stale candidate (another row advanced past it since the
			// rank scan started); skip and keep walking.
			continue
		}

		result, err := visit(candidate, !candidate.HasFeeRate)
		if err != nil {
			return err
		}
		if !result.Accept {
			return nil
		}

		if err := bumpNonces(store, candidate); err != nil {
			return err
		}
	}
}

func pickCandidate(store *Store, useUnestimated bool) (MempoolTx, bool, error) {
	first := store.ForEachEstimatedByFeeRateDesc
	second := store.ForEachUnestimatedByFeeDesc
	if useUnestimated {
		first, second = second, first
	}

	candidate, found, err := firstReady(first)
	if err != nil {
		return MempoolTx{}, false, err
	}
	if found {
		return candidate, true, nil
	}
	return firstReady(second)
}

func firstReady(walk func(func(MempoolTx) (bool, error)) error) (MempoolTx, bool, error) {
	var result MempoolTx
	var found bool
	err := walk(func(tx MempoolTx) (bool, error) {
		if tx.readyToMine() || tx.needsNonceRefresh() {
			result = tx
			found = true
			return false, nil
		}
		return true, nil
	})
	return result, found, err
}

func refreshNonces(store *Store, chainstate Chainstate, tx MempoolTx) error {
	origin := tx.LastKnownOriginNonce
	sponsor := tx.LastKnownSponsorNonce

	if origin == nil {
		n, err := chainstate.NonceOf(tx.OriginAddress)
		if err != nil {
			return err
		}
		origin = &n
	}
	if tx.Sponsored && sponsor == nil {
		if tx.SponsorAddress == tx.OriginAddress {
			sponsor = origin
		} else {
			n, err := chainstate.NonceOf(tx.SponsorAddress)
			if err != nil {
				return err
			}
			sponsor = &n
		}
	}

	log.Mempool.Debug().
		Str("origin_address", tx.OriginAddress).
		Msg("nonce-refresh event")

	if err := store.SetLastKnownOriginNonce(tx.OriginAddress, *origin); err != nil {
		return err
	}
	if tx.Sponsored {
		if err := store.SetLastKnownSponsorNonce(tx.SponsorAddress, *sponsor); err != nil {
			return err
		}
	}
	return nil
}

func bumpNonces(store *Store, tx MempoolTx) error {
	if err := store.SetLastKnownOriginNonce(tx.OriginAddress, tx.OriginNonce+1); err != nil {
		return err
	}
	if tx.Sponsored {
		if err := store.SetLastKnownSponsorNonce(tx.SponsorAddress, tx.SponsorNonce+1); err != nil {
			return err
		}
	}
	return nil
}
