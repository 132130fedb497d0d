package mempool

import "github.com/Klingon-tech/klingnet-chain/internal/log"

// GarbageCollect removes every mempool row admitted at a height below
// minHeight (stale relative to the node's confirmed chain). observer, if
// set, is notified of the full drop list before any row is deleted, so a
// delete failure partway through never leaves the observer unaware of
// rows the store was about to shed.
func GarbageCollect(store *Store, observer EventObserver, minHeight uint64) (int, error) {
	dropped, err := store.CollectBelowHeight(minHeight)
	if err != nil {
		return 0, err
	}
	if len(dropped) == 0 {
		return 0, nil
	}

	if observer != nil {
		observer.MempoolTxsDropped(dropped, "STALE_COLLECT")
	}

	removed := 0
	for _, txid := range dropped {
		if err := store.Delete(txid); err != nil {
			return removed, err
		}
		removed++
	}

	log.Mempool.Info().
		Int("count", removed).
		Uint64("min_height", minHeight).
		Msg("garbage collected stale mempool entries")

	return removed, nil
}
