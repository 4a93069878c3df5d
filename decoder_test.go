// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte, opts *Options) (any, error) {
	t.Helper()
	return Deserialize(context.Background(), data, opts)
}

func TestDeserializeInvalidHeader(t *testing.T) {
	_, err := decode(t, []byte{0x01, 0x00, 0x00, 0x00}, nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindInvalidHeader, nerr.Kind)
}

func TestDeserializeNoRoot(t *testing.T) {
	// spec.md §8 scenario 1: header immediately followed by MessageEnd.
	s := newStream().header().messageEnd()
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindNoRoot, nerr.Kind)
}

func TestDeserializeSingleStringRoot(t *testing.T) {
	// spec.md §8 scenario 2.
	s := newStream().header().
		u8(0x06).u32(2).str("hello").
		messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

// classWithTwoPrimitives builds a SystemClassWithMembersAndTypes (0x04,
// no trailing libraryId) named "Foo" with an i32 member "a" and a bool
// member "b", followed by their inline values and MessageEnd.
func classWithTwoPrimitives(a int32, b bool) []byte {
	s := newStream().header().
		u8(0x04).u32(1).
		str("Foo").u32(2).
		str("a").str("b").
		u8(0).u8(0). // both members BTC Primitive
		u8(byte(ptcInt32)).u8(byte(ptcBoolean)).
		u32(uint32(a))
	if b {
		s.u8(1)
	} else {
		s.u8(0)
	}
	return s.messageEnd().bytesOut()
}

func TestDeserializeClassWithTwoPrimitives(t *testing.T) {
	// spec.md §8 scenario 3.
	v, err := decode(t, classWithTwoPrimitives(42, true), nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": int32(42), "b": true}, v)
}

func TestDeserializeReferenceFixup(t *testing.T) {
	// spec.md §8 scenario 4: a class with one String member whose value is a
	// MemberReference to id 10, followed by two BinaryObjectStrings (ids 10,
	// 11). The class comes first so that it, not a string, is the root.
	s := newStream().header().
		u8(0x04).u32(1). // SystemClassWithMembersAndTypes id=1, root
		str("Holder").u32(1).
		str("value").
		u8(byte(btcString)).
		u8(0x09).u32(10). // MemberReference to id 10 (forward reference)
		u8(0x06).u32(10).str("first").
		u8(0x06).u32(11).str("second").
		messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"value": "first"}, v)
}

func TestDeserializeEnumCollapse(t *testing.T) {
	// spec.md §8 scenario 5: class whose only member is "value__" = i32 7.
	s := newStream().header().
		u8(0x04).u32(1).
		str("SomeEnum").u32(1).
		str("value__").
		u8(byte(btcPrimitive)).
		u8(byte(ptcInt32)).
		u32(7).
		messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, int32(7), v)
}

func TestDeserializeListCollapse(t *testing.T) {
	// spec.md §8 scenario 6: "_items" wins over a sibling "_size".
	s := newStream().header().
		u8(0x04).u32(1). // SystemClassWithMembersAndTypes id=1, root
		str("List").u32(2).
		str("_items").str("_size").
		u8(byte(btcObject)).u8(byte(btcPrimitive)).
		u8(byte(ptcInt32)).                     // additionalInfo only present for the primitive member
		u8(0x09).u32(2).                        // _items -> MemberReference to array id=2 (forward ref)
		u32(3).                                 // _size inline primitive
		u8(0x0F).u32(2).u32(3).u8(byte(ptcInt32)). // ArraySinglePrimitive id=2, [1,2,3]
		u32(1).u32(2).u32(3).
		messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2), int32(3)}, v)
}

func TestDeserializeDanglingReference(t *testing.T) {
	s := newStream().header().
		u8(0x04).u32(1).
		str("Holder").u32(1).
		str("value").
		u8(byte(btcString)).
		u8(0x09).u32(999).
		messageEnd()
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindDanglingReference, nerr.Kind)
}

func TestDeserializeUnknownRecord(t *testing.T) {
	s := newStream().header().u8(0x02) // ClassWithMembersRecord, unimplemented
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindUnknownRecord, nerr.Kind)
}

func TestDeserializeUnsupportedPrimitive(t *testing.T) {
	s := newStream().header().
		u8(0x0F).u32(1).u32(1).u8(0) // ArraySinglePrimitive with PTC 0 (invalid)
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindUnsupportedPrimitive, nerr.Kind)
}

func TestDeserializeBinaryArraySumVsProduct(t *testing.T) {
	// A 2x3 rank-2 BinaryArray: source-faithful totalLength sums to 5 and
	// only 5 elements are actually on the wire; canonical .NET would want
	// the product (6). This test pins the documented default (sum), then
	// checks that Options.ArrayLengthProduct reads all 6 elements.
	s := newStream().header().
		u8(0x07).u32(1). // BinaryArray id=1
		u8(0).           // binaryArrayType = 0 (Single), no lower bounds
		u32(2).          // rank
		u32(2).u32(3).   // lengths
		u8(byte(btcPrimitive)).u8(byte(ptcInt32)). // itemType + additional info
		u32(1).u32(2).u32(3).u32(4).u32(5).
		messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2), int32(3), int32(4), int32(5)}, v)

	p := newStream().header().
		u8(0x07).u32(1).u8(0).u32(2).u32(2).u32(3).
		u8(byte(btcPrimitive)).u8(byte(ptcInt32)).
		u32(1).u32(2).u32(3).u32(4).u32(5).u32(6).
		messageEnd()
	v, err = decode(t, p.bytesOut(), &Options{ArrayLengthProduct: true})
	require.NoError(t, err)
	require.Equal(t, []any{int32(1), int32(2), int32(3), int32(4), int32(5), int32(6)}, v)
}

func TestDeserializeArraySinglePrimitiveRejectsImplausibleLength(t *testing.T) {
	// length claims four billion elements but the stream ends right after
	// the type byte; this must fail cleanly rather than attempt the
	// allocation.
	s := newStream().header().
		u8(0x0F).u32(1).u32(0xFFFFFFFF).u8(byte(ptcInt32))
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindMalformedLength, nerr.Kind)
}

func TestDeserializeBinaryArrayRejectsImplausibleRank(t *testing.T) {
	s := newStream().header().
		u8(0x07).u32(1).u8(0).u32(0xFFFFFFFF)
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindMalformedLength, nerr.Kind)
}

func TestDeserializeClassDescriptorRejectsImplausibleMemberCount(t *testing.T) {
	s := newStream().header().
		u8(0x04).u32(1).str("Foo").u32(0xFFFFFFFF)
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindMalformedLength, nerr.Kind)
}

func TestDeserializeBareTopLevelReferenceDoesNotOverrideRoot(t *testing.T) {
	// id 1 (a string) is inserted first and is the root per spec.md §4.2's
	// unconditional "first id inserted" rule, even though a bare top-level
	// MemberReference to id 2 follows it before MessageEnd.
	s := newStream().header().
		u8(0x06).u32(1).str("root").
		u8(0x06).u32(2).str("not root").
		u8(0x09).u32(2).
		messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, "root", v)
}

func TestDeserializeBareTopLevelReferenceStillCatchesDanglingId(t *testing.T) {
	s := newStream().header().
		u8(0x06).u32(1).str("root").
		u8(0x09).u32(999).
		messageEnd()
	_, err := decode(t, s.bytesOut(), nil)
	require.Error(t, err)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Equal(t, KindDanglingReference, nerr.Kind)
}

func TestDeserializeNilOptionsUsesDefaults(t *testing.T) {
	s := newStream().header().u8(0x06).u32(1).str("x").messageEnd()
	v, err := decode(t, s.bytesOut(), nil)
	require.NoError(t, err)
	require.Equal(t, "x", v)
}

func TestDeserializeContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStream().header().u8(0x06).u32(1).str("x").messageEnd()
	_, err := Deserialize(ctx, s.bytesOut(), nil)
	require.Error(t, err)
}
