// Package burnchain maintains a durable, forkable index of L1 block
// headers and exposes the canonical-tip view the rest of the node reads.
package burnchain

import "github.com/Klingon-tech/klingnet-chain/pkg/types"

// Header is a single L1 block header row as stored in the Header Store.
type Header struct {
	Height           uint64
	HeaderHash       types.L1BlockHash
	ParentHeaderHash types.L1BlockHash
	Timestamp        uint64
	IsCanonical      bool
}

// greater reports whether a is strictly greater than b under the header
// store's total order: higher height wins; equal height breaks the tie
// on the lexicographically greater header hash.
func greater(a, b Header) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return bytesGreater(a.HeaderHash.Bytes(), b.HeaderHash.Bytes())
}

func bytesGreater(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
