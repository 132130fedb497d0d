package mempool

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Klingon-tech/klingnet-chain/internal/storage"
	"github.com/Klingon-tech/klingnet-chain/pkg/types"
)

// Store errors.
var (
	ErrNotFound          = errors.New("mempool: transaction not found")
	ErrConflictingNonce  = errors.New("mempool: row already exists for (address, nonce)")
	ErrCorruptRow        = errors.New("mempool: corrupt stored row")
)

var (
	prefixTx         = []byte("t/")
	prefixOriginIdx  = []byte("on/")
	prefixSponsorIdx = []byte("sn/")
	prefixHeightIdx  = []byte("h/")
	prefixFeeRank    = []byte("f/")
	prefixNoEstRank  = []byte("u/")
	prefixLastKnown  = []byte("lk/")
	keySchemaVersion = []byte("schema_version")
)

const (
	roleOrigin  byte = 0
	roleSponsor byte = 1
)

const currentSchemaVersion = 2

// Store is the Mempool Store (component F): a badger-backed table of
// pending transactions plus the nonce and iteration-order indices the
// Admission and Iterator components query.
//
// The key-value schema here is built directly at version 2 (it carries
// fee_estimates and last_known_*_nonce from the start); migrate() still
// records a schema_version marker so a future on-disk format change has
// a version to branch on.
type Store struct {
	db storage.DB
}

// NewStore opens a Mempool Store over db, applying the schema_version
// migration marker if absent.
func NewStore(db storage.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	has, err := s.db.Has(keySchemaVersion)
	if err != nil {
		return fmt.Errorf("mempool: check schema_version: %w", err)
	}
	if has {
		return nil
	}
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, currentSchemaVersion)
	return s.db.Put(keySchemaVersion, buf)
}

type batchWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

func (s *Store) atomically(fn func(batchWriter) error) error {
	if batcher, ok := s.db.(storage.Batcher); ok {
		b := batcher.NewBatch()
		if err := fn(b); err != nil {
			return err
		}
		return b.Commit()
	}
	return fn(s.db)
}

// Insert stages a brand new row and its indices. Callers must have
// already checked for an (address, nonce) conflict via GetByOriginNonce;
// Insert itself only guards against a duplicate txid.
func (s *Store) Insert(tx MempoolTx) error {
	has, err := s.db.Has(txKey(tx.TxId))
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("mempool: txid %s already stored", tx.TxId)
	}
	return s.atomically(func(w batchWriter) error {
		return s.stage(w, tx)
	})
}

// Replace atomically removes oldTxId's row and indices and inserts
// newTx, preserving the (origin_addr, origin_nonce) slot (M2).
func (s *Store) Replace(oldTxId types.TxId, newTx MempoolTx) error {
	old, err := s.Get(oldTxId)
	if err != nil {
		return err
	}
	return s.atomically(func(w batchWriter) error {
		if err := s.unstage(w, old); err != nil {
			return err
		}
		return s.stage(w, newTx)
	})
}

// Delete removes a row and all of its indices.
func (s *Store) Delete(txid types.TxId) error {
	row, err := s.Get(txid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.atomically(func(w batchWriter) error {
		return s.unstage(w, row)
	})
}

func (s *Store) stage(w batchWriter, tx MempoolTx) error {
	enc, err := encodeTx(tx)
	if err != nil {
		return err
	}
	if err := w.Put(txKey(tx.TxId), enc); err != nil {
		return err
	}
	if err := w.Put(originIdxKey(tx.OriginAddress, tx.OriginNonce), tx.TxId.Bytes()); err != nil {
		return err
	}
	if tx.Sponsored {
		if err := w.Put(sponsorIdxKey(tx.SponsorAddress, tx.SponsorNonce), tx.TxId.Bytes()); err != nil {
			return err
		}
	}
	if err := w.Put(heightIdxKey(tx.Height, tx.TxId), nil); err != nil {
		return err
	}
	if tx.HasFeeRate {
		if err := w.Put(feeRankKey(tx.FeeRate, tx.TxId), nil); err != nil {
			return err
		}
	} else {
		if err := w.Put(noEstRankKey(tx.TxFee, tx.TxId), nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) unstage(w batchWriter, tx MempoolTx) error {
	if err := w.Delete(txKey(tx.TxId)); err != nil {
		return err
	}
	if err := w.Delete(originIdxKey(tx.OriginAddress, tx.OriginNonce)); err != nil {
		return err
	}
	if tx.Sponsored {
		if err := w.Delete(sponsorIdxKey(tx.SponsorAddress, tx.SponsorNonce)); err != nil {
			return err
		}
	}
	if err := w.Delete(heightIdxKey(tx.Height, tx.TxId)); err != nil {
		return err
	}
	if tx.HasFeeRate {
		if err := w.Delete(feeRankKey(tx.FeeRate, tx.TxId)); err != nil {
			return err
		}
	} else {
		if err := w.Delete(noEstRankKey(tx.TxFee, tx.TxId)); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored row for txid, with LastKnownOriginNonce and
// LastKnownSponsorNonce joined in from the per-address cursor side
// index (these are account-level, not per-row: every mempool row
// belonging to an address observes the same cursor, since at most one
// of them can ever be "ready" against it at a time, per M1).
func (s *Store) Get(txid types.TxId) (MempoolTx, error) {
	raw, err := s.db.Get(txKey(txid))
	if err != nil {
		return MempoolTx{}, ErrNotFound
	}
	tx, err := decodeTx(txid, raw)
	if err != nil {
		return tx, err
	}
	tx.LastKnownOriginNonce, err = s.getLastKnown(roleOrigin, tx.OriginAddress)
	if err != nil {
		return tx, err
	}
	if tx.Sponsored {
		tx.LastKnownSponsorNonce, err = s.getLastKnown(roleSponsor, tx.SponsorAddress)
		if err != nil {
			return tx, err
		}
	}
	return tx, nil
}

func (s *Store) getLastKnown(role byte, address string) (*uint64, error) {
	raw, err := s.db.Get(lastKnownKey(role, address))
	if err != nil {
		return nil, nil
	}
	if len(raw) != 8 {
		return nil, fmt.Errorf("%w: malformed last-known-nonce entry", ErrCorruptRow)
	}
	n := binary.BigEndian.Uint64(raw)
	return &n, nil
}

// SetLastKnownOriginNonce sets the shared cursor for address's origin
// nonce. Callers (the Iterator) must only ever pass non-decreasing
// values within one iteration session (M3).
func (s *Store) SetLastKnownOriginNonce(address string, nonce uint64) error {
	return s.setLastKnown(roleOrigin, address, nonce)
}

// SetLastKnownSponsorNonce sets the shared cursor for address's sponsor
// nonce.
func (s *Store) SetLastKnownSponsorNonce(address string, nonce uint64) error {
	return s.setLastKnown(roleSponsor, address, nonce)
}

func (s *Store) setLastKnown(role byte, address string, nonce uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, nonce)
	return s.db.Put(lastKnownKey(role, address), buf)
}

func lastKnownKey(role byte, address string) []byte {
	buf := make([]byte, 0, len(prefixLastKnown)+1+len(address))
	buf = append(buf, prefixLastKnown...)
	buf = append(buf, role)
	buf = append(buf, address...)
	return buf
}

// Has reports whether txid is currently stored.
func (s *Store) Has(txid types.TxId) (bool, error) {
	return s.db.Has(txKey(txid))
}

// GetByOriginNonce looks up the row occupying the (origin_addr,
// origin_nonce) slot, if any.
func (s *Store) GetByOriginNonce(address string, nonce uint64) (MempoolTx, bool, error) {
	return s.getByIdx(originIdxKey(address, nonce))
}

// GetBySponsorNonce looks up the row occupying the (sponsor_addr,
// sponsor_nonce) slot, if any.
func (s *Store) GetBySponsorNonce(address string, nonce uint64) (MempoolTx, bool, error) {
	return s.getByIdx(sponsorIdxKey(address, nonce))
}

func (s *Store) getByIdx(idxKey []byte) (MempoolTx, bool, error) {
	raw, err := s.db.Get(idxKey)
	if err != nil {
		return MempoolTx{}, false, nil
	}
	if len(raw) != types.HashSize {
		return MempoolTx{}, false, fmt.Errorf("%w: index value not a txid", ErrCorruptRow)
	}
	var txid types.TxId
	copy(txid[:], raw)
	row, err := s.Get(txid)
	if err != nil {
		return MempoolTx{}, false, err
	}
	return row, true, nil
}

// ForEachEstimatedByFeeRateDesc visits rows that carry a fee-rate
// estimate, highest fee_rate first.
func (s *Store) ForEachEstimatedByFeeRateDesc(fn func(MempoolTx) (bool, error)) error {
	return s.forEachRank(prefixFeeRank, fn)
}

// ForEachUnestimatedByFeeDesc visits rows with no fee-rate estimate,
// highest tx_fee first.
func (s *Store) ForEachUnestimatedByFeeDesc(fn func(MempoolTx) (bool, error)) error {
	return s.forEachRank(prefixNoEstRank, fn)
}

// forEachRank visits rows in ascending rank-key order. It does not rely
// on the underlying DB.ForEach to deliver keys in sorted order (BadgerDB
// does; MemoryDB's map-backed implementation does not), so it collects
// and sorts keys in Go before visiting.
func (s *Store) forEachRank(prefix []byte, fn func(MempoolTx) (bool, error)) error {
	var keys [][]byte
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		keys = append(keys, append([]byte{}, key...))
		return nil
	})
	if err != nil {
		return err
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	for _, key := range keys {
		txid, err := txidFromRankKey(prefix, key)
		if err != nil {
			return err
		}
		row, err := s.Get(txid)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		cont, err := fn(row)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// CollectBelowHeight returns the txids of every row with height <
// minHeight, without deleting anything. Used by GC to compute the
// drop-event announcement before touching the store.
func (s *Store) CollectBelowHeight(minHeight uint64) ([]types.TxId, error) {
	var found []types.TxId
	err := s.db.ForEach(prefixHeightIdx, func(key, _ []byte) error {
		height, txid, err := decodeHeightIdxKey(key)
		if err != nil {
			return err
		}
		if height < minHeight {
			found = append(found, txid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// DeleteBelowHeight removes every row with height < minHeight, returning
// the txids removed.
func (s *Store) DeleteBelowHeight(minHeight uint64) ([]types.TxId, error) {
	toDelete, err := s.CollectBelowHeight(minHeight)
	if err != nil {
		return nil, err
	}
	for _, txid := range toDelete {
		if err := s.Delete(txid); err != nil {
			return nil, err
		}
	}
	return toDelete, nil
}

// --- key encoding ---

func txKey(txid types.TxId) []byte {
	return append(append([]byte{}, prefixTx...), txid.Bytes()...)
}

func originIdxKey(address string, nonce uint64) []byte {
	return addrNonceKey(prefixOriginIdx, address, nonce)
}

func sponsorIdxKey(address string, nonce uint64) []byte {
	return addrNonceKey(prefixSponsorIdx, address, nonce)
}

func addrNonceKey(prefix []byte, address string, nonce uint64) []byte {
	buf := make([]byte, 0, len(prefix)+2+len(address)+8)
	buf = append(buf, prefix...)
	lenBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBuf, uint16(len(address)))
	buf = append(buf, lenBuf...)
	buf = append(buf, address...)
	nonceBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBuf, nonce)
	buf = append(buf, nonceBuf...)
	return buf
}

func heightIdxKey(height uint64, txid types.TxId) []byte {
	buf := make([]byte, 0, len(prefixHeightIdx)+8+32)
	buf = append(buf, prefixHeightIdx...)
	hBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(hBuf, height)
	buf = append(buf, hBuf...)
	buf = append(buf, txid.Bytes()...)
	return buf
}

func decodeHeightIdxKey(key []byte) (uint64, types.TxId, error) {
	rest := key[len(prefixHeightIdx):]
	if len(rest) != 8+types.HashSize {
		return 0, types.TxId{}, fmt.Errorf("%w: malformed height index key", ErrCorruptRow)
	}
	height := binary.BigEndian.Uint64(rest[:8])
	var txid types.TxId
	copy(txid[:], rest[8:])
	return height, txid, nil
}

// feeRankKey inverts feeRate into a descending sort key: lower byte
// value == higher fee_rate, so ascending ForEach order visits highest
// fee_rate first.
func feeRankKey(feeRate float64, txid types.TxId) []byte {
	scaled := uint64(feeRate * 1e6)
	return rankKey(prefixFeeRank, scaled, txid)
}

func noEstRankKey(txFee uint64, txid types.TxId) []byte {
	return rankKey(prefixNoEstRank, txFee, txid)
}

func rankKey(prefix []byte, value uint64, txid types.TxId) []byte {
	inverted := math.MaxUint64 - value
	buf := make([]byte, 0, len(prefix)+8+32)
	buf = append(buf, prefix...)
	vBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(vBuf, inverted)
	buf = append(buf, vBuf...)
	buf = append(buf, txid.Bytes()...)
	return buf
}

func txidFromRankKey(prefix []byte, key []byte) (types.TxId, error) {
	rest := key[len(prefix):]
	if len(rest) != 8+types.HashSize {
		return types.TxId{}, fmt.Errorf("%w: malformed rank key", ErrCorruptRow)
	}
	var txid types.TxId
	copy(txid[:], rest[8:])
	return txid, nil
}

// --- row encoding ---

func encodeTx(tx MempoolTx) ([]byte, error) {
	var buf bytes.Buffer
	writeUint64(&buf, tx.TxFee)
	writeUint64(&buf, tx.Length)
	writeString(&buf, tx.OriginAddress)
	writeUint64(&buf, tx.OriginNonce)
	writeBool(&buf, tx.Sponsored)
	writeString(&buf, tx.SponsorAddress)
	writeUint64(&buf, tx.SponsorNonce)
	buf.Write(tx.ConsensusHash.Bytes())
	buf.Write(tx.BlockHeaderHash.Bytes())
	writeUint64(&buf, tx.Height)
	writeUint64(&buf, uint64(tx.AcceptTime))
	writeBool(&buf, tx.HasFeeRate)
	if tx.HasFeeRate {
		writeUint64(&buf, math.Float64bits(tx.FeeRate))
	}
	writeBytes(&buf, tx.Tx)
	return buf.Bytes(), nil
}

func decodeTx(txid types.TxId, raw []byte) (MempoolTx, error) {
	r := bytes.NewReader(raw)
	tx := MempoolTx{TxId: txid}
	var err error

	if tx.TxFee, err = readUint64(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.Length, err = readUint64(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.OriginAddress, err = readString(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.OriginNonce, err = readUint64(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.Sponsored, err = readBool(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.SponsorAddress, err = readString(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.SponsorNonce, err = readUint64(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	consensus := make([]byte, types.Hash20Size)
	if _, err := r.Read(consensus); err != nil {
		return tx, wrapCorrupt(err)
	}
	copy(tx.ConsensusHash[:], consensus)
	blockHash := make([]byte, types.HashSize)
	if _, err := r.Read(blockHash); err != nil {
		return tx, wrapCorrupt(err)
	}
	copy(tx.BlockHeaderHash[:], blockHash)
	if tx.Height, err = readUint64(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	acceptTime, err := readUint64(r)
	if err != nil {
		return tx, wrapCorrupt(err)
	}
	tx.AcceptTime = int64(acceptTime)
	if tx.HasFeeRate, err = readBool(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	if tx.HasFeeRate {
		bits, err := readUint64(r)
		if err != nil {
			return tx, wrapCorrupt(err)
		}
		tx.FeeRate = math.Float64frombits(bits)
	}
	if tx.Tx, err = readBytes(r); err != nil {
		return tx, wrapCorrupt(err)
	}
	return tx, nil
}

func wrapCorrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorruptRow, err)
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := r.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}


func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := r.Read(lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
