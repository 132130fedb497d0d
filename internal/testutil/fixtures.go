// Package testutil provides deterministic fixture builders shared across
// package tests, so test data doesn't need hand-maintained hex literals.
package testutil

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-chain/pkg/crypto"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// FakeL1Hash derives a deterministic L1 block hash from a label, so tests
// can refer to blocks by name ("genesis", "b1", "b2-fork") instead of
// hand-rolled hex.
func FakeL1Hash(label string) types.L1BlockHash {
	return types.L1BlockHash(crypto.Hash([]byte("l1:" + label)))
}

// FakeL2Hash derives a deterministic L2 block hash from a label.
func FakeL2Hash(label string) types.L2BlockHash {
	return types.L2BlockHash(crypto.Hash([]byte("l2:" + label)))
}

// FakeTxId derives a deterministic transaction ID from a label.
func FakeTxId(label string) types.TxId {
	return types.TxId(crypto.Hash([]byte("tx:" + label)))
}

// FakeAddress derives a deterministic address hash from a label.
func FakeAddress(label string) types.AddressHash {
	h := crypto.Hash([]byte("addr:" + label))
	var a types.AddressHash
	copy(a[:], h[:types.Hash20Size])
	return a
}

// FakeConsensusHash derives a deterministic consensus hash from a height
// and a fork label, so reorg tests can build competing chains cheaply.
func FakeConsensusHash(height uint64, fork string) types.ConsensusHash {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	h := crypto.Hash(append(buf[:], []byte("fork:"+fork)...))
	var c types.ConsensusHash
	copy(c[:], h[:types.Hash20Size])
	return c
}
