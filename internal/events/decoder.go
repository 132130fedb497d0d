package events

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// DecodeEvent decodes one contract event's payload into a SubnetOp.
// Any missing field, wrong type, or wrong buffer length produces a
// descriptive error; the caller (the Op Assembler) is responsible for
// skipping the offending event and logging it rather than aborting.
func DecodeEvent(raw string, txid types.TxId, eventIndex uint32, inBlock types.L1BlockHash) (SubnetOp, error) {
	v, err := DecodeHexValue(raw)
	if err != nil {
		return SubnetOp{}, fmt.Errorf("decode raw_value: %w", err)
	}

	tagField, err := v.Get("event")
	if err != nil {
		return SubnetOp{}, err
	}
	tag, err := tagField.AsString()
	if err != nil {
		return SubnetOp{}, fmt.Errorf("'event' field: %w", err)
	}

	op := SubnetOp{TxId: txid, EventIndex: eventIndex, InBlock: inBlock}

	switch tag {
	case "block-commit":
		buf, err := getBuffer(v, "block-commit", 32)
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpBlockCommit
		copy(op.BlockCommit.SubnetBlockHash[:], buf)

	case "deposit-stx":
		amount, err := getUint(v, "amount")
		if err != nil {
			return SubnetOp{}, err
		}
		recipient, err := getPrincipal(v, "sender")
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpDepositStx
		op.DepositStx = DepositStxOp{Amount: amount, Recipient: recipient}

	case "deposit-ft":
		amount, err := getUint(v, "amount")
		if err != nil {
			return SubnetOp{}, err
		}
		sender, err := getPrincipal(v, "sender")
		if err != nil {
			return SubnetOp{}, err
		}
		l1c, err := getPrincipal(v, "l1-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		subc, err := getPrincipal(v, "subnet-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		name, err := getString(v, "ft-name")
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpDepositFt
		op.DepositFt = DepositFtOp{L1Contract: l1c, SubnetContract: subc, Name: name, Amount: amount, Recipient: sender}

	case "deposit-nft":
		id, err := getUint(v, "id")
		if err != nil {
			return SubnetOp{}, err
		}
		sender, err := getPrincipal(v, "sender")
		if err != nil {
			return SubnetOp{}, err
		}
		l1c, err := getPrincipal(v, "l1-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		subc, err := getPrincipal(v, "subnet-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpDepositNft
		op.DepositNft = DepositNftOp{L1Contract: l1c, SubnetContract: subc, ID: id, Recipient: sender}

	case "withdraw-ft":
		amount, err := getUint(v, "amount")
		if err != nil {
			return SubnetOp{}, err
		}
		recipient, err := getPrincipal(v, "sender")
		if err != nil {
			return SubnetOp{}, err
		}
		l1c, err := getPrincipal(v, "l1-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		subc, err := getPrincipal(v, "subnet-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		name, err := getString(v, "ft-name")
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpWithdrawFt
		op.WithdrawFt = WithdrawFtOp{L1Contract: l1c, SubnetContract: subc, Name: name, Amount: amount, Recipient: recipient}

	case "withdraw-nft":
		id, err := getUint(v, "id")
		if err != nil {
			return SubnetOp{}, err
		}
		recipient, err := getPrincipal(v, "sender")
		if err != nil {
			return SubnetOp{}, err
		}
		l1c, err := getPrincipal(v, "l1-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		subc, err := getPrincipal(v, "subnet-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpWithdrawNft
		op.WithdrawNft = WithdrawNftOp{L1Contract: l1c, SubnetContract: subc, ID: id, Recipient: recipient}

	case "withdraw-stx":
		amount, err := getUint(v, "amount")
		if err != nil {
			return SubnetOp{}, err
		}
		recipient, err := getPrincipal(v, "sender")
		if err != nil {
			return SubnetOp{}, err
		}
		op.Kind = OpWithdrawStx
		op.WithdrawStx = WithdrawStxOp{Amount: amount, Recipient: recipient}

	case "register-asset":
		l1c, err := getPrincipal(v, "l1-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		subc, err := getPrincipal(v, "subnet-contract-id")
		if err != nil {
			return SubnetOp{}, err
		}
		assetType, err := getString(v, "asset-type")
		if err != nil {
			return SubnetOp{}, err
		}
		var kind AssetKind
		switch assetType {
		case "ft":
			kind = AssetFungible
		case "nft":
			kind = AssetNonFungible
		default:
			return SubnetOp{}, fmt.Errorf("unexpected asset-type %q", assetType)
		}
		op.Kind = OpRegisterAsset
		op.RegisterAsset = RegisterAssetOp{L1Contract: l1c, SubnetContract: subc, AssetKind: kind}

	default:
		return SubnetOp{}, fmt.Errorf("unexpected event tag %q", tag)
	}

	return op, nil
}

func getUint(v Value, field string) (uint64, error) {
	f, err := v.Get(field)
	if err != nil {
		return 0, err
	}
	n, err := f.AsUint()
	if err != nil {
		return 0, fmt.Errorf("%q field: %w", field, err)
	}
	return n, nil
}

func getBuffer(v Value, field string, wantLen int) ([]byte, error) {
	f, err := v.Get(field)
	if err != nil {
		return nil, err
	}
	b, err := f.AsBuffer(wantLen)
	if err != nil {
		return nil, fmt.Errorf("%q field: %w", field, err)
	}
	return b, nil
}

func getString(v Value, field string) (string, error) {
	f, err := v.Get(field)
	if err != nil {
		return "", err
	}
	s, err := f.AsString()
	if err != nil {
		return "", fmt.Errorf("%q field: %w", field, err)
	}
	return strings.TrimSpace(s), nil
}

func getPrincipal(v Value, field string) (string, error) {
	f, err := v.Get(field)
	if err != nil {
		return "", err
	}
	s, err := f.AsPrincipal()
	if err != nil {
		return "", fmt.Errorf("%q field: %w", field, err)
	}
	return s, nil
}
