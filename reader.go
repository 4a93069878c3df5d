// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"encoding/binary"
	"math"
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// reader is a little-endian, byte-and-bit-accurate positional cursor over a
// fully-buffered input. Only two wire shapes need sub-byte reads — the
// length-prefixed string's 7-bit varint groups, and the sbyte's 7
// magnitude bits plus 1 sign bit — so the bit API stays deliberately small
// rather than growing into a general-purpose bitstream package.
type reader struct {
	data []byte
	pos  int // absolute bit position, pos/8 is the current byte
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) byteOffset() int { return r.pos / 8 }

func (r *reader) remainingBits() int { return len(r.data)*8 - r.pos }

// peekBits returns the next n bits (1 <= n <= 32) as a little-endian
// integer without advancing the cursor. Within a byte bits are consumed
// LSB-first; across byte boundaries the low byte contributes the low bits.
func (r *reader) peekBits(n int) (uint32, error) {
	if n < 1 || n > 32 {
		panic("nbfs: peekBits: n out of range")
	}
	if r.remainingBits() < n {
		return 0, errTruncated("bits")
	}

	var out uint32
	var got int
	bitPos := r.pos
	for got < n {
		byteIdx := bitPos / 8
		bitInByte := bitPos % 8
		avail := 8 - bitInByte
		take := n - got
		if take > avail {
			take = avail
		}
		chunk := (uint32(r.data[byteIdx]) >> uint(bitInByte)) & ((1 << uint(take)) - 1)
		out |= chunk << uint(got)
		got += take
		bitPos += take
	}
	return out, nil
}

func (r *reader) readBits(n int) (uint32, error) {
	v, err := r.peekBits(n)
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// readBytes advances only when the cursor sits on a byte boundary.
func (r *reader) readBytes(n int) ([]byte, error) {
	if r.pos%8 != 0 {
		return nil, newErr(KindTruncatedInput, "readBytes called on a non-byte-aligned cursor")
	}
	off := r.byteOffset()
	if off+n > len(r.data) {
		return nil, errTruncated("bytes")
	}
	b := r.data[off : off+n]
	r.pos += n * 8
	return b, nil
}

func (r *reader) readU8() (uint8, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readU16() (uint16, error) {
	b, err := r.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) readU32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) readU64() (uint64, error) {
	b, err := r.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readI8 reads the sbyte encoding used by this format: 7 magnitude bits
// followed by 1 sign bit (the sign bit is the byte's MSB). A set sign bit
// yields value = magnitude - 128, not the two's-complement magnitude.
func (r *reader) readI8() (int8, error) {
	magnitude, err := r.readBits(7)
	if err != nil {
		return 0, err
	}
	sign, err := r.readBits(1)
	if err != nil {
		return 0, err
	}
	if sign != 0 {
		return int8(int32(magnitude) - 128), nil
	}
	return int8(magnitude), nil
}

func (r *reader) readF32() (float32, error) {
	v, err := r.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) readF64() (float64, error) {
	v, err := r.readU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// readLengthPrefixedString reads up to five 7-bit groups (each followed by
// one continuation bit, low group first) to form a byte length, then reads
// that many raw bytes. legacy selects the source program's imprecise
// one-byte-per-rune decode; the default, corrected path treats the bytes as
// UTF-8 and repairs ill-formed sequences instead of silently mis-mapping
// them (spec.md §9).
func (r *reader) readLengthPrefixedString(legacy bool) (string, error) {
	length, err := r.readVarintLength()
	if err != nil {
		return "", err
	}
	raw, err := r.readBytes(int(length))
	if err != nil {
		return "", err
	}
	if legacy {
		return legacyDecodeString(raw), nil
	}
	return correctedDecodeString(raw), nil
}

// checkCount rejects a wire-declared element count before a caller sizes an
// allocation from it, the same way readVarintLength bounds a declared
// string length against the input that remains (reader.go below). Every
// element takes at least minBytesPerElem bytes on the wire, so a count
// whose minimum cost already exceeds the remaining input is malformed
// regardless of what record is asking for it.
func (r *reader) checkCount(n uint32, minBytesPerElem int) error {
	if uint64(n)*uint64(minBytesPerElem) > uint64(r.remainingBits()/8) {
		return newErr(KindMalformedLength, "declared element count exceeds remaining input")
	}
	return nil
}

func (r *reader) readVarintLength() (uint32, error) {
	var length uint32
	for group := 0; group < 5; group++ {
		b, err := r.readU8()
		if err != nil {
			return 0, err
		}
		length |= uint32(b&0x7F) << uint(7*group)
		if b&0x80 == 0 {
			if int(length) > r.remainingBits()/8 {
				return 0, newErr(KindMalformedLength, "declared string length exceeds remaining input")
			}
			return length, nil
		}
	}
	return 0, newErr(KindMalformedLength, "varint length prefix exceeds five 7-bit groups")
}

// legacyDecodeString reproduces the original program's imprecise decode:
// one input byte becomes one rune, regardless of multi-byte UTF-8
// sequences. Kept only to match observed behavior; see readLengthPrefixedString.
func legacyDecodeString(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

// correctedDecodeString decodes raw as UTF-8, replacing any ill-formed
// sequence with U+FFFD via golang.org/x/text/runes instead of letting Go's
// implicit []byte->string conversion silently keep invalid bytes.
func correctedDecodeString(raw []byte) string {
	out, _, err := transform.Bytes(runes.ReplaceIllFormed(), raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
