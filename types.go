// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package nbfs decodes the wire format produced by the .NET Remoting
// BinaryFormatter ("the .NET Binary Format: Data Structures" specification)
// and projects the resulting object graph into a plain value tree of maps,
// ordered sequences, scalars, strings and nulls.
package nbfs

// primitiveTypeCode identifies a scalar carried inline by a member, an
// ArraySinglePrimitive element, or a PrimitiveArray element. Values 0 and 4
// are reserved by the wire format and are never valid on the wire.
type primitiveTypeCode uint8

const (
	ptcInvalid0  primitiveTypeCode = 0
	ptcBoolean   primitiveTypeCode = 1
	ptcByte      primitiveTypeCode = 2
	ptcChar      primitiveTypeCode = 3
	ptcInvalid4  primitiveTypeCode = 4
	ptcDecimal   primitiveTypeCode = 5
	ptcDouble    primitiveTypeCode = 6
	ptcInt16     primitiveTypeCode = 7
	ptcInt32     primitiveTypeCode = 8
	ptcInt64     primitiveTypeCode = 9
	ptcSByte     primitiveTypeCode = 10
	ptcSingle    primitiveTypeCode = 11
	ptcTimeSpan  primitiveTypeCode = 12
	ptcDateTime  primitiveTypeCode = 13
	ptcUInt16    primitiveTypeCode = 14
	ptcUInt32    primitiveTypeCode = 15
	ptcUInt64    primitiveTypeCode = 16
	ptcNull      primitiveTypeCode = 17
	ptcString    primitiveTypeCode = 18
)

func (p primitiveTypeCode) valid() bool {
	return p >= ptcBoolean && p <= ptcString && p != ptcInvalid4
}

// binaryTypeCode classifies a class member or array element type.
type binaryTypeCode uint8

const (
	btcPrimitive      binaryTypeCode = 0
	btcString         binaryTypeCode = 1
	btcObject         binaryTypeCode = 2
	btcSystemClass    binaryTypeCode = 3
	btcClass          binaryTypeCode = 4
	btcObjectArray    binaryTypeCode = 5
	btcStringArray    binaryTypeCode = 6
	btcPrimitiveArray binaryTypeCode = 7
)

func (b binaryTypeCode) valid() bool {
	return b <= btcPrimitiveArray
}

// recordTag identifies the kind of the next record on the wire.
type recordTag uint8

// Only the tags this decoder implements get a name. 0x02, 0x03, 0x08, 0x0E,
// 0x10, 0x11 and anything else are real .NET Remoting record kinds this
// decoder does not understand yet (spec.md §9) — they fall through to the
// default case of the dispatch switch and are reported as ErrUnknownRecord
// with their raw byte value, not given a name here.
const (
	tagSerializationHeader            recordTag = 0x00
	tagClassWithId                    recordTag = 0x01
	tagSystemClassWithMembersAndTypes recordTag = 0x04
	tagClassWithMembersAndTypes       recordTag = 0x05
	tagBinaryObjectString             recordTag = 0x06
	tagBinaryArray                    recordTag = 0x07
	tagMemberReference                recordTag = 0x09
	tagObjectNull                     recordTag = 0x0A
	tagMessageEnd                     recordTag = 0x0B
	tagBinaryLibrary                  recordTag = 0x0C
	tagObjectNull256                  recordTag = 0x0D
	tagArraySinglePrimitive           recordTag = 0x0F
)

// classDescriptor is the immutable shape of a class, shared across
// instances created via ClassWithId.
type classDescriptor struct {
	name            string
	memberNames     []string
	memberTypes     []binaryTypeCode
	additionalInfos []any // per member: primitiveTypeCode, classAddInfo, string, or nil
	libraryID       uint32
	systemClass     bool
}

// classAddInfo is the additional info carried by a BTC Class member: the
// referenced class's name and owning library id.
type classAddInfo struct {
	className string
	libraryID uint32
}

// library is one entry of the stream-scoped library table.
type library struct {
	id   uint32
	name string
}

// ref is an unresolved object reference placeholder, written into a
// composite's memberValues until the end-of-stream fix-up pass runs.
type ref struct {
	id uint32
}

// object is a composite: a class instance or a BinaryArray. Strings and
// primitive-array sequences are registered in the object table directly as
// string and []any values, not wrapped in an object. Composite membership is
// tracked positionally in memberValues, parallel to
// memberTypes/additionalInfos.
type object struct {
	id uint32

	// Composite fields. desc is nil for a BinaryArray (which synthesizes
	// its own homogeneous member-type vector instead of sharing a
	// classDescriptor).
	desc            *classDescriptor
	memberTypes     []binaryTypeCode
	additionalInfos []any
	memberValues    []any

	// Array-only fields.
	isArray     bool
	rank        uint32
	lengths     []uint32
	lowerBounds []uint32
	itemType    binaryTypeCode
}

func (o *object) filled() bool {
	return len(o.memberValues) >= len(o.memberTypes)
}

func (o *object) nextMemberType() binaryTypeCode {
	return o.memberTypes[len(o.memberValues)]
}

func (o *object) nextAdditionalInfo() any {
	return o.additionalInfos[len(o.memberValues)]
}
