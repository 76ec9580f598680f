// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package artifact defines the canonical, length-prefixed,
// little-endian serialization of every artifact and statement kind
// named by the protocol (spec.md §4.3), and the hashing used to turn
// that serialization into a types.Hash identity.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/sequentech/braid/types"
)

// Writer is a small length-prefixed little-endian binary encoder. Its
// field order, fixed per artifact/statement type, is what makes
// serialization canonical.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded byte slice accumulated so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) WriteUint8(v uint8)   { w.buf.WriteByte(v) }
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

// WriteBytes writes a uint32 length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *Writer) WriteHash(h types.Hash) { w.buf.Write(h[:]) }

// WriteHashVector writes a uint32 count followed by each hash.
func (w *Writer) WriteHashVector(hs []types.Hash) {
	w.WriteUint32(uint32(len(hs)))
	for _, h := range hs {
		w.WriteHash(h)
	}
}

// WriteBytesVector writes a uint32 count followed by each length-prefixed slice.
func (w *Writer) WriteBytesVector(bs [][]byte) {
	w.WriteUint32(uint32(len(bs)))
	for _, b := range bs {
		w.WriteBytes(b)
	}
}

func (w *Writer) WritePosition(p types.Position) { w.buf.WriteByte(byte(p)) }

func (w *Writer) WriteTrusteeSet(ts types.TrusteeSet) {
	w.WriteUint32(uint32(ts.Threshold))
	w.buf.Write(ts.Slots[:])
}

// Reader is the Writer's counterpart, consuming bytes in the same
// fixed field order.
type Reader struct {
	buf *bytes.Reader
}

func NewReader(b []byte) *Reader { return &Reader{buf: bytes.NewReader(b)} }

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.buf.ReadByte()
	return b, err
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.buf.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadUint32() (uint32, error) {
	var b [4]byte
	if _, err := readFull(r.buf, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	var b [8]byte
	if _, err := readFull(r.buf, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if n > 64*1024*1024 {
		return nil, fmt.Errorf("artifact: refusing to decode %d byte field (over limit)", n)
	}
	b := make([]byte, n)
	if _, err := readFull(r.buf, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Reader) ReadHash() (types.Hash, error) {
	var h types.Hash
	if _, err := readFull(r.buf, h[:]); err != nil {
		return h, err
	}
	return h, nil
}

func (r *Reader) ReadHashVector() ([]types.Hash, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([]types.Hash, n)
	for i := range out {
		h, err := r.ReadHash()
		if err != nil {
			return nil, err
		}
		out[i] = h
	}
	return out, nil
}

func (r *Reader) ReadBytesVector() ([][]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, n)
	for i := range out {
		b, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func (r *Reader) ReadPosition() (types.Position, error) {
	b, err := r.ReadUint8()
	return types.Position(b), err
}

func (r *Reader) ReadTrusteeSet() (types.TrusteeSet, error) {
	var ts types.TrusteeSet
	n, err := r.ReadUint32()
	if err != nil {
		return ts, err
	}
	ts.Threshold = int(n)
	if _, err := readFull(r.buf, ts.Slots[:]); err != nil {
		return ts, err
	}
	return ts, nil
}

// Remaining returns the number of unconsumed bytes; a well-formed
// decode leaves none.
func (r *Reader) Remaining() int { return r.buf.Len() }

func readFull(r *bytes.Reader, b []byte) (int, error) {
	n, err := r.Read(b)
	if err == nil && n != len(b) {
		err = fmt.Errorf("artifact: short read: got %d want %d", n, len(b))
	}
	return n, err
}

// Hash returns the canonical identifier of b: SHA-256, fixed-width.
func Hash(b []byte) types.Hash {
	return types.Hash(sha256.Sum256(b))
}
