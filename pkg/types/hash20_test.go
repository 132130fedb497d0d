package types

import (
	"strings"
	"testing"
)

func TestHash20_IsZero(t *testing.T) {
	var zero Hash20
	if !zero.IsZero() {
		t.Error("zero-value Hash20 should be zero")
	}

	nonZero := Hash20{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Hash20 should not be zero")
	}
}

func TestHash20_String(t *testing.T) {
	var h Hash20
	s := h.String()
	if len(s) != 40 {
		t.Errorf("String() length = %d, want 40", len(s))
	}
	if s != strings.Repeat("0", 40) {
		t.Errorf("zero hash String() = %s, want all zeros", s)
	}
}

func TestHexToHash20(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid 40 hex chars", input: strings.Repeat("ab", 20)},
		{name: "all zeros", input: strings.Repeat("0", 40)},
		{name: "too short", input: "abcd", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 42), wantErr: true},
		{name: "invalid hex character", input: strings.Repeat("g", 40), wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HexToHash20(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("HexToHash20(%q) should have returned error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("HexToHash20(%q) unexpected error: %v", tt.input, err)
			}
			if h.String() != tt.input {
				t.Errorf("roundtrip: got %s, want %s", h.String(), tt.input)
			}
		})
	}
}

func TestConsensusHash_RoundTrip(t *testing.T) {
	c, err := HexToConsensusHash(strings.Repeat("ff", 20))
	if err != nil {
		t.Fatalf("HexToConsensusHash: %v", err)
	}
	if c.String() != strings.Repeat("ff", 20) {
		t.Errorf("String() = %s, want %s", c.String(), strings.Repeat("ff", 20))
	}
}

func TestAddressHash_RoundTrip(t *testing.T) {
	a, err := HexToAddressHash(strings.Repeat("11", 20))
	if err != nil {
		t.Fatalf("HexToAddressHash: %v", err)
	}
	if a.String() != strings.Repeat("11", 20) {
		t.Errorf("String() = %s, want %s", a.String(), strings.Repeat("11", 20))
	}

	data, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var back AddressHash
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if back != a {
		t.Errorf("roundtrip mismatch: got %s, want %s", back, a)
	}
}
