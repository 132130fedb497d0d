package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash20Size is the length of a 20-byte hash in bytes.
const Hash20Size = 20

// Hash20 represents a 160-bit hash value, the width burnchain consensus
// hashes and address hashes are carried at.
type Hash20 [Hash20Size]byte

// ConsensusHash identifies a point in the burnchain's history of
// recognized sortitions.
type ConsensusHash Hash20

// AddressHash is the hash160 of a principal's public key or script.
type AddressHash Hash20

// IsZero returns true if the hash is all zeros.
func (h Hash20) IsZero() bool {
	return h == Hash20{}
}

// String returns the hex-encoded hash.
func (h Hash20) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash20) Bytes() []byte {
	b := make([]byte, Hash20Size)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash20) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a hex string into a hash.
func (h *Hash20) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash20{}
		return nil
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(decoded) != Hash20Size {
		return fmt.Errorf("hash must be %d bytes, got %d", Hash20Size, len(decoded))
	}
	copy(h[:], decoded)
	return nil
}

// HexToHash20 converts a hex string to a Hash20.
// Returns an error if the string is not exactly 40 hex characters.
func HexToHash20(s string) (Hash20, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash20{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != Hash20Size {
		return Hash20{}, fmt.Errorf("hash must be %d bytes, got %d", Hash20Size, len(b))
	}
	var h Hash20
	copy(h[:], b)
	return h, nil
}

// IsZero returns true if the consensus hash is all zeros.
func (c ConsensusHash) IsZero() bool { return Hash20(c).IsZero() }

// String returns the hex-encoded consensus hash.
func (c ConsensusHash) String() string { return Hash20(c).String() }

// Bytes returns a copy of the consensus hash as a byte slice.
func (c ConsensusHash) Bytes() []byte { return Hash20(c).Bytes() }

// MarshalJSON encodes the consensus hash as a hex string.
func (c ConsensusHash) MarshalJSON() ([]byte, error) { return Hash20(c).MarshalJSON() }

// UnmarshalJSON decodes a hex string into a consensus hash.
func (c *ConsensusHash) UnmarshalJSON(data []byte) error { return (*Hash20)(c).UnmarshalJSON(data) }

// HexToConsensusHash converts a hex string to a ConsensusHash.
func HexToConsensusHash(s string) (ConsensusHash, error) {
	h, err := HexToHash20(s)
	return ConsensusHash(h), err
}

// IsZero returns true if the address hash is all zeros.
func (a AddressHash) IsZero() bool { return Hash20(a).IsZero() }

// String returns the hex-encoded address hash.
func (a AddressHash) String() string { return Hash20(a).String() }

// Bytes returns a copy of the address hash as a byte slice.
func (a AddressHash) Bytes() []byte { return Hash20(a).Bytes() }

// MarshalJSON encodes the address hash as a hex string.
func (a AddressHash) MarshalJSON() ([]byte, error) { return Hash20(a).MarshalJSON() }

// UnmarshalJSON decodes a hex string into an address hash.
func (a *AddressHash) UnmarshalJSON(data []byte) error { return (*Hash20)(a).UnmarshalJSON(data) }

// HexToAddressHash converts a hex string to an AddressHash.
func HexToAddressHash(s string) (AddressHash, error) {
	h, err := HexToHash20(s)
	return AddressHash(h), err
}
