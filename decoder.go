// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"context"

	uuid "github.com/hashicorp/go-uuid"

	"github.com/go-nbfs/nbfs/log"
)

// fixup is a deferred write recorded by a MemberReference: at MessageEnd it
// overwrites target.memberValues[index] with the resolved object for refID.
// target is nil for a bare top-level MemberReference (no open composite to
// write into); such a fixup exists only so a dangling refID is still caught
// as an error, never to change root selection (see finish).
type fixup struct {
	target *object
	index  int
	refID  uint32
}

// decoder drives the record-stream state machine described in spec.md §4.2.
// Every field is local to a single Deserialize call; nothing here persists
// across calls.
type decoder struct {
	r       *reader
	opts    *Options
	log     *log.Helper
	traceID string

	libraries []library
	objects   map[uint32]any // *object | string | []any
	order     []uint32       // insertion order, order[0] is the root id once non-empty
	stack     []*object
	pending   []fixup
}

// Deserialize decodes a complete .NET Remoting BinaryFormatter byte stream
// and returns the projected value tree (see package doc and spec.md §4.3).
// ctx is checked once per main-loop iteration (each record tag, inline
// primitive member, or stack pop); no individual read within a call
// can block, so this only bounds pathologically long streams, it does not
// define a blocking-I/O timeout.
func Deserialize(ctx context.Context, data []byte, opts *Options) (any, error) {
	d := &decoder{
		r:       newReader(data),
		opts:    opts,
		log:     opts.logger(),
		objects: make(map[uint32]any),
	}
	if id, err := uuid.GenerateUUID(); err == nil {
		d.traceID = id
	}
	d.log.Debugf("decode start trace=%s bytes=%d", d.traceID, len(data))

	root, err := d.run(ctx)
	if err != nil {
		d.log.Errorf("decode failed trace=%s: %v", d.traceID, err)
		return nil, err
	}
	d.log.Debugf("decode complete trace=%s", d.traceID)
	return project(root), nil
}

func (d *decoder) run(ctx context.Context) (any, error) {
	first, err := d.r.readU8()
	if err != nil {
		return nil, errTruncated("header byte")
	}
	if first != 0x00 {
		return nil, ErrInvalidHeader
	}
	// The rest of the SerializationHeaderRecord (rootId, headerId, major,
	// minor) follows immediately; read it here rather than through the
	// generic dispatch since it can never recur mid-stream.
	if _, err := d.r.readU32(); err != nil { // rootId (unused, see spec.md §4.2.C)
		return nil, errTruncated("header rootId")
	}
	if _, err := d.r.readU32(); err != nil { // headerId
		return nil, errTruncated("header headerId")
	}
	if _, err := d.r.readU32(); err != nil { // majorVersion
		return nil, errTruncated("header majorVersion")
	}
	if _, err := d.r.readU32(); err != nil { // minorVersion
		return nil, errTruncated("header minorVersion")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if top := d.topOrNil(); top != nil && !top.filled() {
			t := top.nextMemberType()
			if t == btcPrimitive {
				ptc, _ := top.nextAdditionalInfo().(primitiveTypeCode)
				v, err := d.readPrimitive(ptc)
				if err != nil {
					return nil, err
				}
				top.memberValues = append(top.memberValues, v)
				continue
			}
			// Non-primitive members are introduced by a prefixed record;
			// fall through to the tag dispatch below.
		} else if top != nil && top.filled() {
			d.stack = d.stack[:len(d.stack)-1]
			continue
		}

		rawTag, err := d.r.readU8()
		if err != nil {
			return nil, errTruncated("record tag")
		}
		tag := recordTag(rawTag)
		d.log.Debugf("trace=%s record tag=0x%02X", d.traceID, rawTag)

		switch tag {
		case tagSerializationHeader:
			return nil, errUnknownRecord(rawTag) // only valid as the first byte

		case tagClassWithId:
			if err := d.handleClassWithId(); err != nil {
				return nil, err
			}

		case tagSystemClassWithMembersAndTypes:
			if err := d.handleClassWithMembersAndTypes(true); err != nil {
				return nil, err
			}

		case tagClassWithMembersAndTypes:
			if err := d.handleClassWithMembersAndTypes(false); err != nil {
				return nil, err
			}

		case tagBinaryObjectString:
			if err := d.handleBinaryObjectString(); err != nil {
				return nil, err
			}

		case tagBinaryArray:
			if err := d.handleBinaryArray(); err != nil {
				return nil, err
			}

		case tagMemberReference:
			if err := d.handleMemberReference(); err != nil {
				return nil, err
			}

		case tagObjectNull:
			d.appendToParent(nil)

		case tagObjectNull256:
			count, err := d.r.readU8()
			if err != nil {
				return nil, err
			}
			for i := uint8(0); i < count; i++ {
				d.appendToParent(nil)
			}

		case tagMessageEnd:
			return d.finish()

		case tagBinaryLibrary:
			if err := d.handleBinaryLibrary(); err != nil {
				return nil, err
			}

		case tagArraySinglePrimitive:
			if err := d.handleArraySinglePrimitive(); err != nil {
				return nil, err
			}

		default:
			return nil, errUnknownRecord(rawTag)
		}
	}
}

func (d *decoder) topOrNil() *object {
	if len(d.stack) == 0 {
		return nil
	}
	return d.stack[len(d.stack)-1]
}

// appendToParent appends value to the innermost open composite's
// memberValues, if one exists. It is a no-op at top level.
func (d *decoder) appendToParent(value any) {
	if top := d.topOrNil(); top != nil {
		top.memberValues = append(top.memberValues, value)
	}
}

// register inserts value into the object table under id, tracking
// insertion order so the root (spec.md §4.2: "implicitly taken as the
// first entry inserted") can be recovered at MessageEnd.
func (d *decoder) register(id uint32, value any) error {
	if _, exists := d.objects[id]; !exists {
		if uint32(len(d.order)) >= d.opts.maxObjects() {
			return newErr(KindTruncatedInput, "object table exceeded MaxObjects")
		}
		d.order = append(d.order, id)
	}
	d.objects[id] = value
	return nil
}

func (d *decoder) handleBinaryLibrary() error {
	id, err := d.r.readU32()
	if err != nil {
		return err
	}
	name, err := d.r.readLengthPrefixedString(d.opts.legacyStrings())
	if err != nil {
		return err
	}
	d.libraries = append(d.libraries, library{id: id, name: name})
	return nil
}

func (d *decoder) handleClassWithId() error {
	id, err := d.r.readU32()
	if err != nil {
		return err
	}
	metadataID, err := d.r.readU32()
	if err != nil {
		return err
	}
	src, ok := d.objects[metadataID].(*object)
	if !ok || src.desc == nil {
		return newErr(KindUnknownRecord, "ClassWithId references a non-class object id")
	}
	obj := &object{
		id:              id,
		desc:            src.desc,
		memberTypes:     src.memberTypes,
		additionalInfos: src.additionalInfos,
	}
	d.appendToParent(obj)
	if err := d.register(id, obj); err != nil {
		return err
	}
	d.stack = append(d.stack, obj)
	return nil
}

func (d *decoder) handleClassWithMembersAndTypes(systemClass bool) error {
	id, err := d.r.readU32()
	if err != nil {
		return err
	}
	desc, err := d.readClassDescriptor(systemClass)
	if err != nil {
		return err
	}
	obj := &object{
		id:              id,
		desc:            desc,
		memberTypes:     desc.memberTypes,
		additionalInfos: desc.additionalInfos,
	}
	d.appendToParent(obj)
	if err := d.register(id, obj); err != nil {
		return err
	}
	d.stack = append(d.stack, obj)
	return nil
}

func (d *decoder) handleBinaryObjectString() error {
	id, err := d.r.readU32()
	if err != nil {
		return err
	}
	s, err := d.r.readLengthPrefixedString(d.opts.legacyStrings())
	if err != nil {
		return err
	}
	if err := d.register(id, s); err != nil {
		return err
	}
	d.appendToParent(s)
	return nil
}

func (d *decoder) handleMemberReference() error {
	refID, err := d.r.readU32()
	if err != nil {
		return err
	}
	top := d.topOrNil()
	if top == nil {
		// No open composite to write into. The root is unconditionally
		// the first id inserted into the object table (spec.md §4.2), so
		// this reference cannot become the root either; it is still
		// queued so a dangling refID surfaces as an error at MessageEnd.
		d.pending = append(d.pending, fixup{target: nil, index: -1, refID: refID})
		return nil
	}
	index := len(top.memberValues)
	top.memberValues = append(top.memberValues, ref{id: refID})
	d.pending = append(d.pending, fixup{target: top, index: index, refID: refID})
	return nil
}

func (d *decoder) handleBinaryArray() error {
	id, err := d.r.readU32()
	if err != nil {
		return err
	}
	arrayType, err := d.r.readU8()
	if err != nil {
		return err
	}
	rank, err := d.r.readU32()
	if err != nil {
		return err
	}
	// Each dimension length (and, below, each lower bound) is a u32 on the
	// wire, so rank's minimum cost is 4 bytes per dimension.
	if err := d.r.checkCount(rank, 4); err != nil {
		return err
	}
	lengths := make([]uint32, rank)
	for i := range lengths {
		lengths[i], err = d.r.readU32()
		if err != nil {
			return err
		}
	}
	var lowerBounds []uint32
	if arrayType > 2 {
		lowerBounds = make([]uint32, rank)
		for i := range lowerBounds {
			lowerBounds[i], err = d.r.readU32()
			if err != nil {
				return err
			}
		}
	}
	itemTypeRaw, err := d.r.readU8()
	if err != nil {
		return err
	}
	itemType := binaryTypeCode(itemTypeRaw)
	if !itemType.valid() {
		return newErr(KindUnknownRecord, "binary array item type out of range")
	}
	info, err := d.readAdditionalInfo(itemType)
	if err != nil {
		return err
	}

	total := arrayTotalLength(lengths, d.opts.arrayLengthProduct())
	if !d.opts.arrayLengthProduct() && rank > 1 {
		d.log.Warnf("trace=%s BinaryArray totalLength uses sum-of-dimensions (source quirk); rank=%d lengths=%v", d.traceID, rank, lengths)
	}
	// total sizes the memberTypes/additionalInfos slices below and,
	// transitively, how many primitives the stack-fill loop will later try
	// to read; each of those costs at least one byte on the wire.
	if err := d.r.checkCount(total, 1); err != nil {
		return err
	}

	obj := &object{
		id:              id,
		isArray:         true,
		rank:            rank,
		lengths:         lengths,
		lowerBounds:     lowerBounds,
		itemType:        itemType,
		memberTypes:     repeat(itemType, total),
		additionalInfos: repeatAny(info, total),
	}
	// BinaryArray is never appended to a parent; it is reached only by
	// reference (spec.md §4.2.C).
	if err := d.register(id, obj); err != nil {
		return err
	}
	d.stack = append(d.stack, obj)
	return nil
}

func (d *decoder) handleArraySinglePrimitive() error {
	id, err := d.r.readU32()
	if err != nil {
		return err
	}
	length, err := d.r.readU32()
	if err != nil {
		return err
	}
	rawType, err := d.r.readU8()
	if err != nil {
		return err
	}
	ptc := primitiveTypeCode(rawType)
	if !ptc.valid() {
		return errUnsupportedPrimitive(rawType)
	}
	if err := d.r.checkCount(length, 1); err != nil {
		return err
	}
	values := make([]any, length)
	for i := range values {
		values[i], err = d.readPrimitive(ptc)
		if err != nil {
			return err
		}
	}
	// Complete on creation: not pushed to the stack, not appended to a
	// parent (reached only by reference, spec.md §4.2.C).
	return d.register(id, values)
}

// finish applies queued fix-ups in FIFO order and returns the root object
// for projection.
func (d *decoder) finish() (any, error) {
	for _, fx := range d.pending {
		target, ok := d.objects[fx.refID]
		if !ok {
			return nil, errDanglingReference(fx.refID)
		}
		if fx.target != nil {
			fx.target.memberValues[fx.index] = target
		}
	}
	if len(d.order) == 0 {
		return nil, ErrNoRoot
	}
	return d.objects[d.order[0]], nil
}

func repeat(t binaryTypeCode, n uint32) []binaryTypeCode {
	out := make([]binaryTypeCode, n)
	for i := range out {
		out[i] = t
	}
	return out
}

func repeatAny(v any, n uint32) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}
