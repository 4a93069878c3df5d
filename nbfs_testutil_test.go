// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import "encoding/binary"

// streamBuilder assembles a byte-exact BinaryFormatter stream for tests.
// There is no writer path in this package (decode-only per spec.md §1), so
// tests build wire bytes by hand, matching the teacher's own practice of
// driving parser tests off fixture bytes rather than a round-trip encoder.
type streamBuilder struct {
	buf []byte
}

func newStream() *streamBuilder { return &streamBuilder{} }

func (s *streamBuilder) u8(v byte) *streamBuilder {
	s.buf = append(s.buf, v)
	return s
}

func (s *streamBuilder) u16(v uint16) *streamBuilder {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
	return s
}

func (s *streamBuilder) u32(v uint32) *streamBuilder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
	return s
}

func (s *streamBuilder) u64(v uint64) *streamBuilder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	s.buf = append(s.buf, b[:]...)
	return s
}

func (s *streamBuilder) bytes(b ...byte) *streamBuilder {
	s.buf = append(s.buf, b...)
	return s
}

// str writes a length-prefixed string using the 7-bit varint length prefix
// described in spec.md §4.1.
func (s *streamBuilder) str(v string) *streamBuilder {
	s.varint(uint32(len(v)))
	s.buf = append(s.buf, []byte(v)...)
	return s
}

func (s *streamBuilder) varint(length uint32) *streamBuilder {
	for {
		b := byte(length & 0x7F)
		length >>= 7
		if length != 0 {
			s.buf = append(s.buf, b|0x80)
			continue
		}
		s.buf = append(s.buf, b)
		return s
	}
}

// header writes the SerializationHeaderRecord (tag 0x00 plus four u32
// fields). rootId/headerId/major/minor are not load-bearing for decode
// (spec.md §4.2.C), arbitrary values are fine.
func (s *streamBuilder) header() *streamBuilder {
	return s.u8(0x00).u32(1).u32(0xFFFFFFFF).u32(1).u32(0)
}

func (s *streamBuilder) messageEnd() *streamBuilder {
	return s.u8(0x0B)
}

func (s *streamBuilder) bytesOut() []byte { return s.buf }
