package events

import (
	"encoding/binary"
	"encoding/hex"
)

// TupleBuilder assembles a tuple Value byte-for-byte, field order
// preserved, for use in tests that need a raw_value payload without
// hand-rolling hex literals.
type TupleBuilder struct {
	fields []struct {
		key string
		val []byte
	}
}

// NewTupleBuilder creates an empty tuple builder.
func NewTupleBuilder() *TupleBuilder {
	return &TupleBuilder{}
}

func (b *TupleBuilder) add(key string, val []byte) *TupleBuilder {
	b.fields = append(b.fields, struct {
		key string
		val []byte
	}{key, val})
	return b
}

// Uint adds an unsigned-integer field.
func (b *TupleBuilder) Uint(key string, n uint64) *TupleBuilder {
	buf := make([]byte, 9)
	buf[0] = byte(kindUint)
	binary.BigEndian.PutUint64(buf[1:], n)
	return b.add(key, buf)
}

// Buffer adds a raw-bytes field.
func (b *TupleBuilder) Buffer(key string, data []byte) *TupleBuilder {
	buf := make([]byte, 5+len(data))
	buf[0] = byte(kindBuffer)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(data)))
	copy(buf[5:], data)
	return b.add(key, buf)
}

// String adds a string field.
func (b *TupleBuilder) String(key, s string) *TupleBuilder {
	buf := make([]byte, 5+len(s))
	buf[0] = byte(kindString)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(s)))
	copy(buf[5:], s)
	return b.add(key, buf)
}

// Principal adds a principal-identifier field.
func (b *TupleBuilder) Principal(key, principal string) *TupleBuilder {
	buf := make([]byte, 2+len(principal))
	buf[0] = byte(kindPrincipal)
	buf[1] = byte(len(principal))
	copy(buf[2:], principal)
	return b.add(key, buf)
}

// Bytes serializes the tuple to its wire form.
func (b *TupleBuilder) Bytes() []byte {
	header := make([]byte, 5)
	header[0] = byte(kindTuple)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(b.fields)))

	out := header
	for _, f := range b.fields {
		keyHdr := make([]byte, 2)
		binary.BigEndian.PutUint16(keyHdr, uint16(len(f.key)))
		out = append(out, keyHdr...)
		out = append(out, []byte(f.key)...)
		out = append(out, f.val...)
	}
	return out
}

// Hex serializes the tuple and hex-encodes it with a 0x prefix, matching
// the wire shape of contract_event.raw_value.
func (b *TupleBuilder) Hex() string {
	return "0x" + hex.EncodeToString(b.Bytes())
}
