// Package iff implements the generic chunked (IFF style) container format
// used by Maya binary scene files: framed records with a typed header, a
// length-delimited payload and format specific alignment. The package knows
// nothing about scene semantics - it only frames, bounds and aligns chunks.
package iff

import (
	"encoding/binary"
	"fmt"
)

// TypeID is a chunk type identifier - a 4-byte code packed big-endian so
// that its ASCII spelling reads naturally in a hex dump.
type TypeID uint32

// Tag packs a 4-character ASCII tag into a TypeID.
func Tag(s string) TypeID {
	if len(s) != 4 {
		panic(fmt.Sprintf("chunk tag must be 4 characters, got %q", s))
	}
	return TypeID(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]))
}

// String spells the tag out as 4 characters when printable.
func (t TypeID) String() string {
	b := [4]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08X", uint32(t))
		}
	}
	return string(b[:])
}

// Format describes one variant of the container framing. Immutable,
// selected once per parse.
type Format struct {
	Order           binary.ByteOrder
	TypeIDBytes     int
	SizeBytes       int
	HeaderAlignment int64
	ChunkAlignment  int64
}

// The two canonical variants. Maya 2014+ files use the 64-bit framing,
// older files the 32-bit one. Numeric encodings are big-endian in both.
var (
	Format32 = Format{Order: binary.BigEndian, TypeIDBytes: 4, SizeBytes: 4, HeaderAlignment: 4, ChunkAlignment: 4}
	Format64 = Format{Order: binary.BigEndian, TypeIDBytes: 4, SizeBytes: 8, HeaderAlignment: 8, ChunkAlignment: 8}
)

// HeaderSize returns the fixed width of a chunk header: the type identifier
// field and the size field, each padded up to the header alignment.
func (f Format) HeaderSize() int64 {
	return Align(int64(f.TypeIDBytes), f.HeaderAlignment) + Align(int64(f.SizeBytes), f.HeaderAlignment)
}

// Uint decodes a fixed-width unsigned integer in the format's byte order.
func (f Format) Uint(b []byte) uint64 {
	switch len(b) {
	case 2:
		return uint64(f.Order.Uint16(b))
	case 4:
		return uint64(f.Order.Uint32(b))
	case 8:
		return f.Order.Uint64(b)
	default:
		panic(fmt.Sprintf("unsupported integer width %d", len(b)))
	}
}

// PutUint encodes a fixed-width unsigned integer in the format's byte order.
func (f Format) PutUint(b []byte, v uint64) {
	switch len(b) {
	case 2:
		f.Order.PutUint16(b, uint16(v))
	case 4:
		f.Order.PutUint32(b, uint32(v))
	case 8:
		f.Order.PutUint64(b, v)
	default:
		panic(fmt.Sprintf("unsupported integer width %d", len(b)))
	}
}

// Align returns the smallest multiple of stride that is >= size.
func Align(size, stride int64) int64 {
	if stride <= 0 {
		return size
	}
	if r := size % stride; r != 0 {
		return size + stride - r
	}
	return size
}

// Chunk is one framed record: type identifier, byte offset of its payload
// and the payload's declared length. Chunks are ephemeral - produced during
// iteration and never persisted.
type Chunk struct {
	TypeID     TypeID
	DataOffset int64
	DataLength int64
}

// DataEnd returns the offset one past the last payload byte.
func (c Chunk) DataEnd() int64 {
	return c.DataOffset + c.DataLength
}

// AlignedEnd returns the offset where the next sibling's header starts.
func (c Chunk) AlignedEnd(f Format) int64 {
	return c.DataOffset + Align(c.DataLength, f.ChunkAlignment)
}
