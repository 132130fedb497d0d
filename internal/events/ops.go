package events

import "github.com/Klingon-tech/klingnet-chain/pkg/types"

// OpKind tags the variant of a SubnetOp.
type OpKind int

const (
	OpBlockCommit OpKind = iota
	OpDepositStx
	OpDepositFt
	OpDepositNft
	OpWithdrawFt
	OpWithdrawNft
	OpWithdrawStx
	OpRegisterAsset
)

// AssetKind distinguishes fungible from non-fungible asset registrations.
type AssetKind int

const (
	AssetFungible AssetKind = iota
	AssetNonFungible
)

// SubnetOp is a single protocol-relevant operation extracted from an L1
// contract event. Exactly one of the per-kind payload fields is
// populated, selected by Kind.
type SubnetOp struct {
	Kind      OpKind
	TxId      types.TxId
	EventIndex uint32
	InBlock   types.L1BlockHash

	BlockCommit  BlockCommitOp
	DepositStx   DepositStxOp
	DepositFt    DepositFtOp
	DepositNft   DepositNftOp
	WithdrawFt   WithdrawFtOp
	WithdrawNft  WithdrawNftOp
	WithdrawStx  WithdrawStxOp
	RegisterAsset RegisterAssetOp
}

// BlockCommitOp asserts that an L2 block hash has been produced.
type BlockCommitOp struct {
	SubnetBlockHash types.L2BlockHash
}

// DepositStxOp deposits native L1 tokens into an L2 account.
type DepositStxOp struct {
	Amount    uint64
	Recipient string
}

// DepositFtOp deposits a fungible token into an L2 account.
type DepositFtOp struct {
	L1Contract     string
	SubnetContract string
	Name           string
	Amount         uint64
	Recipient      string
}

// DepositNftOp deposits a non-fungible token into an L2 account.
type DepositNftOp struct {
	L1Contract     string
	SubnetContract string
	ID             uint64
	Recipient      string
}

// WithdrawFtOp withdraws a fungible token back to L1. The spec's source
// carried two shapes for this event across duplicate files; per the
// design notes, the richer shape (both contract identifiers present) is
// authoritative here.
type WithdrawFtOp struct {
	L1Contract     string
	SubnetContract string
	Name           string
	Amount         uint64
	Recipient      string
}

// WithdrawNftOp withdraws a non-fungible token back to L1.
type WithdrawNftOp struct {
	L1Contract     string
	SubnetContract string
	ID             uint64
	Recipient      string
}

// WithdrawStxOp withdraws native L1 tokens back to L1.
type WithdrawStxOp struct {
	Amount    uint64
	Recipient string
}

// RegisterAssetOp registers an asset pairing between L1 and L2 contracts.
type RegisterAssetOp struct {
	L1Contract     string
	SubnetContract string
	AssetKind      AssetKind
}

// SubnetBlock carries the ordered operations extracted from one L1
// block's events, preserving (tx_order, event_index) ordering.
type SubnetBlock struct {
	CurrentBlock types.L1BlockHash
	ParentBlock  types.L1BlockHash
	BlockHeight  uint64
	Ops          []SubnetOp
}
