package events

import (
	"math"

	"github.com/Klingon-tech/klingnet-chain/internal/log"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// AssembleBlock builds a SubnetBlock from a NewBlock envelope, keeping
// only events emitted by subnetsContract. It returns an error only when
// the envelope's index_block_hash or parent_index_block_hash is
// malformed: events that fail to decode are skipped and logged at warn
// level, and the surrounding block is still assembled from whatever did
// decode.
func AssembleBlock(nb NewBlock, subnetsContract string) (SubnetBlock, error) {
	current, err := types.HexToL1BlockHash(nb.IndexBlockHash)
	if err != nil {
		return SubnetBlock{}, err
	}
	parent, err := types.HexToL1BlockHash(nb.ParentIndexBlockHash)
	if err != nil {
		return SubnetBlock{}, err
	}

	block := SubnetBlock{
		CurrentBlock: current,
		ParentBlock:  parent,
		BlockHeight:  nb.BlockHeight,
	}

	for txOrder, ev := range nb.Events {
		if !ev.Committed || ev.Type != "contract_event" || ev.ContractEvent == nil {
			continue
		}
		if ev.ContractEvent.ContractIdentifier != subnetsContract {
			continue
		}
		if ev.EventIndex > math.MaxUint32 {
			log.Events.Warn().
				Str("txid", ev.TxId).
				Uint64("event_index", ev.EventIndex).
				Msg("event_index exceeds uint32, skipping event")
			continue
		}

		txid, err := types.HexToTxId(ev.TxId)
		if err != nil {
			log.Events.Warn().
				Str("txid", ev.TxId).
				Err(err).
				Msg("malformed txid, skipping event")
			continue
		}

		op, err := DecodeEvent(ev.ContractEvent.RawValue, txid, uint32(ev.EventIndex), current)
		if err != nil {
			log.Events.Warn().
				Int("tx_order", txOrder).
				Str("txid", ev.TxId).
				Uint64("event_index", ev.EventIndex).
				Err(err).
				Msg("failed to decode contract event, skipping")
			continue
		}

		block.Ops = append(block.Ops, op)
	}

	return block, nil
}
