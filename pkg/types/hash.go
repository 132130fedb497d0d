// Package types defines core primitive types for the Klingnet blockchain.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash represents a 256-bit hash value.
type Hash [HashSize]byte

// ChainID uniquely identifies a chain (root or sub-chain).
type ChainID Hash

// TokenID identifies a token type, derived from issuance outpoint.
type TokenID Hash

// L1BlockHash identifies a burnchain (L1) block header.
type L1BlockHash Hash

// L2BlockHash identifies a subnet (L2) block.
type L2BlockHash Hash

// TxId identifies an L1 or L2 transaction.
type TxId Hash

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the hex-encoded hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(decoded) != HashSize {
		return fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(decoded))
	}
	copy(h[:], decoded)
	return nil
}

// HexToHash converts a hex string to a Hash.
// An optional "0x" prefix is accepted. Returns an error if the rest of
// the string is not exactly 64 hex characters.
func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// IsZero returns true if the chain ID is all zeros.
func (c ChainID) IsZero() bool {
	return Hash(c).IsZero()
}

// String returns the hex-encoded chain ID.
func (c ChainID) String() string {
	return Hash(c).String()
}

// MarshalJSON encodes the chain ID as a hex string.
func (c ChainID) MarshalJSON() ([]byte, error) {
	return Hash(c).MarshalJSON()
}

// UnmarshalJSON decodes a hex string into a chain ID.
func (c *ChainID) UnmarshalJSON(data []byte) error {
	return (*Hash)(c).UnmarshalJSON(data)
}

// IsZero returns true if the token ID is all zeros.
func (t TokenID) IsZero() bool {
	return Hash(t).IsZero()
}

// String returns the hex-encoded token ID.
func (t TokenID) String() string {
	return Hash(t).String()
}

// MarshalJSON encodes the token ID as a hex string.
func (t TokenID) MarshalJSON() ([]byte, error) {
	return Hash(t).MarshalJSON()
}

// UnmarshalJSON decodes a hex string into a token ID.
func (t *TokenID) UnmarshalJSON(data []byte) error {
	return (*Hash)(t).UnmarshalJSON(data)
}

// IsZero returns true if the L1 block hash is all zeros.
func (h L1BlockHash) IsZero() bool { return Hash(h).IsZero() }

// String returns the hex-encoded L1 block hash.
func (h L1BlockHash) String() string { return Hash(h).String() }

// Bytes returns a copy of the L1 block hash as a byte slice.
func (h L1BlockHash) Bytes() []byte { return Hash(h).Bytes() }

// MarshalJSON encodes the L1 block hash as a hex string.
func (h L1BlockHash) MarshalJSON() ([]byte, error) { return Hash(h).MarshalJSON() }

// UnmarshalJSON decodes a hex string into an L1 block hash.
func (h *L1BlockHash) UnmarshalJSON(data []byte) error { return (*Hash)(h).UnmarshalJSON(data) }

// HexToL1BlockHash converts a hex string to an L1BlockHash.
func HexToL1BlockHash(s string) (L1BlockHash, error) {
	h, err := HexToHash(s)
	return L1BlockHash(h), err
}

// IsZero returns true if the L2 block hash is all zeros.
func (h L2BlockHash) IsZero() bool { return Hash(h).IsZero() }

// String returns the hex-encoded L2 block hash.
func (h L2BlockHash) String() string { return Hash(h).String() }

// Bytes returns a copy of the L2 block hash as a byte slice.
func (h L2BlockHash) Bytes() []byte { return Hash(h).Bytes() }

// MarshalJSON encodes the L2 block hash as a hex string.
func (h L2BlockHash) MarshalJSON() ([]byte, error) { return Hash(h).MarshalJSON() }

// UnmarshalJSON decodes a hex string into an L2 block hash.
func (h *L2BlockHash) UnmarshalJSON(data []byte) error { return (*Hash)(h).UnmarshalJSON(data) }

// HexToL2BlockHash converts a hex string to an L2BlockHash.
func HexToL2BlockHash(s string) (L2BlockHash, error) {
	h, err := HexToHash(s)
	return L2BlockHash(h), err
}

// IsZero returns true if the tx ID is all zeros.
func (t TxId) IsZero() bool { return Hash(t).IsZero() }

// String returns the hex-encoded tx ID.
func (t TxId) String() string { return Hash(t).String() }

// Bytes returns a copy of the tx ID as a byte slice.
func (t TxId) Bytes() []byte { return Hash(t).Bytes() }

// MarshalJSON encodes the tx ID as a hex string.
func (t TxId) MarshalJSON() ([]byte, error) { return Hash(t).MarshalJSON() }

// UnmarshalJSON decodes a hex string into a tx ID.
func (t *TxId) UnmarshalJSON(data []byte) error { return (*Hash)(t).UnmarshalJSON(data) }

// HexToTxId converts a hex string to a TxId.
func HexToTxId(s string) (TxId, error) {
	h, err := HexToHash(s)
	return TxId(h), err
}
