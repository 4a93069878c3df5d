// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderLittleEndianRoundTrip(t *testing.T) {
	// spec.md §8: 00 00 00 01 as a u32 at offset 0 yields 16777216.
	r := newReader([]byte{0x00, 0x00, 0x00, 0x01})
	v, err := r.readU32()
	require.NoError(t, err)
	require.EqualValues(t, 16777216, v)
}

func TestReaderI32SameBytes(t *testing.T) {
	r := newReader([]byte{0x00, 0x00, 0x00, 0x01})
	v, err := r.readU32()
	require.NoError(t, err)
	require.EqualValues(t, 16777216, int32(v))
}

func TestReaderVarintLength(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint32
	}{
		{"two groups", []byte{0x81, 0x02}, 257},
		{"single group", []byte{0x05}, 5},
		{"zero", []byte{0x00}, 0},
		{"max single group", []byte{0x7F}, 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append(append([]byte{}, tt.in...), make([]byte, tt.want)...)
			r := newReader(data)
			got, err := r.readVarintLength()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReaderVarintOverflow(t *testing.T) {
	r := newReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, err := r.readVarintLength()
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindMalformedLength, nerr.Kind)
}

func TestReaderSByte(t *testing.T) {
	tests := []struct {
		in   byte
		want int8
	}{
		{0x80, -128},
		{0xFF, -1},
		{0x7F, 127},
		{0x00, 0},
	}
	for _, tt := range tests {
		r := newReader([]byte{tt.in})
		v, err := r.readI8()
		require.NoError(t, err)
		require.Equal(t, tt.want, v)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := newReader([]byte{0x01})
	_, err := r.readU32()
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindTruncatedInput, nerr.Kind)
}

func TestReaderBytesRequiresAlignment(t *testing.T) {
	r := newReader([]byte{0xFF})
	_, err := r.readBits(3)
	require.NoError(t, err)
	_, err = r.readBytes(1)
	require.Error(t, err)
}

func TestCorrectedStringDecodingRepairsIllFormedUTF8(t *testing.T) {
	raw := []byte{'o', 'k', 0xFF, 'a', 'y'}
	got := correctedDecodeString(raw)
	require.Contains(t, got, "ok")
	require.Contains(t, got, "ay")
	require.NotEqual(t, string(raw), got)
}

func TestLegacyStringDecodingIsOneByteOneRune(t *testing.T) {
	raw := []byte{0xC3, 0xA9} // UTF-8 for 'é', but legacy maps byte-for-byte
	got := legacyDecodeString(raw)
	require.Equal(t, []rune{0xC3, 0xA9}, []rune(got))
}
