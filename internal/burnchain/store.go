package burnchain

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// Key prefixes for the header store.
var (
	prefixRecord    = []byte("r/") // r/<hash(32)> -> height(8) + parent(32) + timestamp(8) + canonical(1)
	prefixCanonical = []byte("c/") // c/<height(8)><hash(32)> -> empty; present iff the row is canonical
)

// Store is the persistent, durable Header Store (component A). It is
// keyed by header_hash and never deletes a row; reorgs only flip the
// is_canonical flag.
type Store struct {
	db storage.DB
}

// NewStore creates a header store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// Put inserts a new header row. It fails with ErrDuplicateHeader if
// header_hash is already present.
func (s *Store) Put(h Header) error {
	key := recordKey(h.HeaderHash)
	if has, err := s.db.Has(key); err != nil {
		return fmt.Errorf("burnchain store put: %w", err)
	} else if has {
		return ErrDuplicateHeader
	}
	return s.writeRecord(h)
}

// writeRecord stores the record row and its canonical index entry
// (if canonical), overwriting whatever was there before. Used both by
// Put (new row) and SetCanonical (flag flip on an existing row).
func (s *Store) writeRecord(h Header) error {
	return s.atomically(func(w batchWriter) error {
		return s.stageRecord(w, h)
	})
}

// atomically runs fn against a single Batch and commits it, falling back
// to writing directly against the db when it isn't a Batcher. Used to
// make multi-key mutations (a reorg's ancestor walk) all-or-nothing.
func (s *Store) atomically(fn func(w batchWriter) error) error {
	if b, ok := s.db.(storage.Batcher); ok {
		batch := b.NewBatch()
		if err := fn(batch); err != nil {
			return err
		}
		return batch.Commit()
	}
	return fn(s.db)
}

// batchWriter is the subset of storage.DB / storage.Batch this package
// needs to stage a write, so writeRecord can target either directly.
type batchWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

func (s *Store) stageRecord(w batchWriter, h Header) error {
	if err := w.Put(recordKey(h.HeaderHash), encodeRecord(h)); err != nil {
		return fmt.Errorf("burnchain store: put record: %w", err)
	}
	ckey := canonicalKey(h.Height, h.HeaderHash)
	if h.IsCanonical {
		if err := w.Put(ckey, nil); err != nil {
			return fmt.Errorf("burnchain store: put canonical index: %w", err)
		}
	} else {
		if err := w.Delete(ckey); err != nil {
			return fmt.Errorf("burnchain store: clear canonical index: %w", err)
		}
	}
	return nil
}

// Get returns the header row for the given hash.
func (s *Store) Get(hash types.L1BlockHash) (Header, error) {
	data, err := s.db.Get(recordKey(hash))
	if err != nil {
		return Header{}, ErrHeaderNotFound
	}
	h, err := decodeRecord(hash, data)
	if err != nil {
		return Header{}, fmt.Errorf("burnchain store: decode %s: %w", hash, err)
	}
	return h, nil
}

// Has reports whether a header row exists.
func (s *Store) Has(hash types.L1BlockHash) (bool, error) {
	return s.db.Has(recordKey(hash))
}

// TipCanonical returns the canonical row with the greatest height,
// tie-broken by the greatest header_hash (P1). Returns ErrNotConfigured
// if no canonical row exists yet.
func (s *Store) TipCanonical() (Header, error) {
	var tip Header
	found := false
	err := s.db.ForEach(prefixCanonical, func(key, _ []byte) error {
		height, hash, derr := decodeCanonicalKey(key)
		if derr != nil {
			return derr
		}
		cand := Header{Height: height, HeaderHash: hash, IsCanonical: true}
		if !found || greater(cand, tip) {
			tip = cand
			found = true
		}
		return nil
	})
	if err != nil {
		return Header{}, fmt.Errorf("burnchain store: scan canonical index: %w", err)
	}
	if !found {
		return Header{}, ErrNotConfigured
	}
	// The index entry only carries (height, hash); reload the full row.
	return s.Get(tip.HeaderHash)
}

// SetCanonical flips the is_canonical flag on an existing row.
func (s *Store) SetCanonical(hash types.L1BlockHash, canonical bool) error {
	h, err := s.Get(hash)
	if err != nil {
		return err
	}
	h.IsCanonical = canonical
	return s.writeRecord(h)
}

// Range returns the ascending sequence of canonical rows with contiguous
// heights starting at start, stopping at the first gap or at end
// (exclusive).
func (s *Store) Range(start, end uint64) ([]Header, error) {
	var out []Header
	for height := start; height < end; height++ {
		h, ok, err := s.canonicalAtHeight(height)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, h)
	}
	return out, nil
}

// canonicalAtHeight returns the canonical row at an exact height, if any.
func (s *Store) canonicalAtHeight(height uint64) (Header, bool, error) {
	var prefix [2 + 8]byte
	copy(prefix[:2], prefixCanonical)
	binary.BigEndian.PutUint64(prefix[2:], height)

	var found Header
	ok := false
	err := s.db.ForEach(prefix[:], func(key, _ []byte) error {
		_, hash, derr := decodeCanonicalKey(key)
		if derr != nil {
			return derr
		}
		h, gerr := s.Get(hash)
		if gerr != nil {
			return gerr
		}
		found = h
		ok = true
		return nil
	})
	if err != nil {
		return Header{}, false, fmt.Errorf("burnchain store: canonical at height %d: %w", height, err)
	}
	return found, ok, nil
}

func recordKey(hash types.L1BlockHash) []byte {
	key := make([]byte, len(prefixRecord)+types.HashSize)
	copy(key, prefixRecord)
	copy(key[len(prefixRecord):], hash.Bytes())
	return key
}

func canonicalKey(height uint64, hash types.L1BlockHash) []byte {
	key := make([]byte, len(prefixCanonical)+8+types.HashSize)
	copy(key, prefixCanonical)
	binary.BigEndian.PutUint64(key[len(prefixCanonical):], height)
	copy(key[len(prefixCanonical)+8:], hash.Bytes())
	return key
}

func decodeCanonicalKey(key []byte) (uint64, types.L1BlockHash, error) {
	want := len(prefixCanonical) + 8 + types.HashSize
	if len(key) != want {
		return 0, types.L1BlockHash{}, fmt.Errorf("corrupt canonical index key: got %d bytes, want %d", len(key), want)
	}
	height := binary.BigEndian.Uint64(key[len(prefixCanonical) : len(prefixCanonical)+8])
	var hash types.L1BlockHash
	copy(hash[:], key[len(prefixCanonical)+8:])
	return height, hash, nil
}

// encodeRecord serializes a header row without its own hash (the key
// already carries it): height(8) + parent(32) + timestamp(8) + canonical(1).
func encodeRecord(h Header) []byte {
	buf := make([]byte, 8+types.HashSize+8+1)
	binary.BigEndian.PutUint64(buf[0:8], h.Height)
	copy(buf[8:8+types.HashSize], h.ParentHeaderHash.Bytes())
	binary.BigEndian.PutUint64(buf[8+types.HashSize:16+types.HashSize], h.Timestamp)
	if h.IsCanonical {
		buf[16+types.HashSize] = 1
	}
	return buf
}

func decodeRecord(hash types.L1BlockHash, data []byte) (Header, error) {
	want := 8 + types.HashSize + 8 + 1
	if len(data) != want {
		return Header{}, fmt.Errorf("corrupt header record: got %d bytes, want %d", len(data), want)
	}
	var h Header
	h.HeaderHash = hash
	h.Height = binary.BigEndian.Uint64(data[0:8])
	copy(h.ParentHeaderHash[:], data[8:8+types.HashSize])
	h.Timestamp = binary.BigEndian.Uint64(data[8+types.HashSize : 16+types.HashSize])
	h.IsCanonical = data[16+types.HashSize] != 0
	return h, nil
}
