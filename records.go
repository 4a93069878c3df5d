// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

// readPrimitive decodes a single scalar of the given primitive type code.
// PTC 0 and 4 are reserved and never valid; any other out-of-range code is
// also rejected here since the wire format only defines [1..18].
func (d *decoder) readPrimitive(ptc primitiveTypeCode) (any, error) {
	if !ptc.valid() {
		return nil, errUnsupportedPrimitive(uint8(ptc))
	}
	switch ptc {
	case ptcBoolean:
		v, err := d.r.readU8()
		return v != 0, err
	case ptcByte:
		return d.r.readU8()
	case ptcChar:
		return d.r.readU8()
	case ptcDecimal:
		return d.r.readLengthPrefixedString(d.opts.legacyStrings())
	case ptcDouble:
		return d.r.readF64()
	case ptcInt16:
		v, err := d.r.readU16()
		return int16(v), err
	case ptcInt32:
		v, err := d.r.readU32()
		return int32(v), err
	case ptcInt64:
		v, err := d.r.readU64()
		return int64(v), err
	case ptcSByte:
		return d.r.readI8()
	case ptcSingle:
		return d.r.readF32()
	case ptcTimeSpan:
		return d.r.readU64()
	case ptcDateTime:
		return d.r.readU64()
	case ptcUInt16:
		return d.r.readU16()
	case ptcUInt32:
		return d.r.readU32()
	case ptcUInt64:
		return d.r.readU64()
	case ptcNull:
		return nil, nil
	case ptcString:
		return d.r.readLengthPrefixedString(d.opts.legacyStrings())
	default:
		return nil, errUnsupportedPrimitive(uint8(ptc))
	}
}

// readAdditionalInfo decodes the additional-info payload that follows a
// BTC, per spec.md §4.2.A.
func (d *decoder) readAdditionalInfo(btc binaryTypeCode) (any, error) {
	switch btc {
	case btcPrimitive, btcPrimitiveArray:
		code, err := d.r.readU8()
		if err != nil {
			return nil, err
		}
		return primitiveTypeCode(code), nil
	case btcSystemClass:
		return d.r.readLengthPrefixedString(d.opts.legacyStrings())
	case btcClass:
		name, err := d.r.readLengthPrefixedString(d.opts.legacyStrings())
		if err != nil {
			return nil, err
		}
		libID, err := d.r.readU32()
		if err != nil {
			return nil, err
		}
		return classAddInfo{className: name, libraryID: libID}, nil
	case btcString, btcObject, btcObjectArray, btcStringArray:
		return nil, nil
	default:
		return nil, newErr(KindUnknownRecord, "binary type code out of range")
	}
}

// readClassDescriptor reads the member-count/names/types/additional-infos
// body shared by SystemClassWithMembersAndTypes and ClassWithMembersAndTypes.
func (d *decoder) readClassDescriptor(systemClass bool) (*classDescriptor, error) {
	name, err := d.r.readLengthPrefixedString(d.opts.legacyStrings())
	if err != nil {
		return nil, err
	}
	count, err := d.r.readU32()
	if err != nil {
		return nil, err
	}
	// A name takes at least one byte (an empty string's varint length
	// prefix) and a type takes exactly one, so this bounds names, types,
	// and infos together before any of the three is allocated.
	if err := d.r.checkCount(count, 1); err != nil {
		return nil, err
	}
	names := make([]string, count)
	for i := range names {
		names[i], err = d.r.readLengthPrefixedString(d.opts.legacyStrings())
		if err != nil {
			return nil, err
		}
	}
	types := make([]binaryTypeCode, count)
	for i := range types {
		raw, err := d.r.readU8()
		if err != nil {
			return nil, err
		}
		t := binaryTypeCode(raw)
		if !t.valid() {
			return nil, newErr(KindUnknownRecord, "binary type code out of range")
		}
		types[i] = t
	}
	infos := make([]any, count)
	for i := range infos {
		infos[i], err = d.readAdditionalInfo(types[i])
		if err != nil {
			return nil, err
		}
	}
	desc := &classDescriptor{
		name:            name,
		memberNames:     names,
		memberTypes:     types,
		additionalInfos: infos,
		systemClass:     systemClass,
	}
	if !systemClass {
		libID, err := d.r.readU32()
		if err != nil {
			return nil, err
		}
		desc.libraryID = libID
	}
	return desc, nil
}

// arrayTotalLength computes a BinaryArray's element count. The source
// program sums the dimension lengths; the canonical .NET BinaryFormatter
// behavior takes their product. See spec.md §9 / SPEC_FULL.md §9 — the
// sum is kept as the default to match observed behavior, with
// Options.ArrayLengthProduct opting into the canonical computation.
func arrayTotalLength(lengths []uint32, product bool) uint32 {
	if !product {
		var total uint32
		for _, l := range lengths {
			total += l
		}
		return total
	}
	total := uint32(1)
	for _, l := range lengths {
		total *= l
	}
	return total
}
