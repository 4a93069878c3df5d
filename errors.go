// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure. See Error.
type Kind uint8

const (
	// KindInvalidHeader means the first byte of the stream was not 0x00.
	KindInvalidHeader Kind = iota + 1
	// KindUnknownRecord means a record tag outside the implemented set
	// (spec.md §4.2.C) was encountered. It is also reported for a binary
	// type code outside [0..7] and for a ClassWithId whose metadata id does
	// not name a class.
	KindUnknownRecord
	// KindUnsupportedPrimitive means a primitive type code of 0 or 4 was
	// read, or a code outside [1..18].
	KindUnsupportedPrimitive
	// KindTruncatedInput means the reader ran out of bytes mid-field, or a
	// resource guard (Options.MaxObjects) was exceeded.
	KindTruncatedInput
	// KindDanglingReference means a MemberReference fix-up could not find
	// its target object id in the object table.
	KindDanglingReference
	// KindMalformedLength means a length-prefix varint exceeded five
	// 7-bit groups, or its decoded length exceeds the remaining input, or a
	// declared element count (array rank or length, class member count)
	// cannot fit in the remaining input.
	KindMalformedLength
	// KindNoRoot means MessageEnd was reached without any object ever
	// having been inserted into the object table (spec.md §8 scenario 1).
	KindNoRoot
)

func (k Kind) String() string {
	switch k {
	case KindInvalidHeader:
		return "invalid header"
	case KindUnknownRecord:
		return "unknown record"
	case KindUnsupportedPrimitive:
		return "unsupported primitive"
	case KindTruncatedInput:
		return "truncated input"
	case KindDanglingReference:
		return "dangling reference"
	case KindMalformedLength:
		return "malformed length"
	case KindNoRoot:
		return "no root object"
	default:
		return "unknown error kind"
	}
}

// Error is the single failure signal callers observe from Deserialize. It
// always carries a Kind; Unwrap exposes any underlying cause.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("nbfs: %s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("nbfs: %s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, nbfs.ErrDanglingReference) against the sentinels
// below, or compare by Kind directly.
func (e *Error) Is(target error) bool {
	var te *Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, msg: msg}
}

func wrapErr(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, msg: msg, err: cause}
}

var (
	// ErrInvalidHeader is a reference sentinel for KindInvalidHeader.
	ErrInvalidHeader = &Error{Kind: KindInvalidHeader}
	// ErrUnknownRecord is a reference sentinel for KindUnknownRecord.
	ErrUnknownRecord = &Error{Kind: KindUnknownRecord}
	// ErrUnsupportedPrimitive is a reference sentinel for KindUnsupportedPrimitive.
	ErrUnsupportedPrimitive = &Error{Kind: KindUnsupportedPrimitive}
	// ErrTruncatedInput is a reference sentinel for KindTruncatedInput.
	ErrTruncatedInput = &Error{Kind: KindTruncatedInput}
	// ErrDanglingReference is a reference sentinel for KindDanglingReference.
	ErrDanglingReference = &Error{Kind: KindDanglingReference}
	// ErrMalformedLength is a reference sentinel for KindMalformedLength.
	ErrMalformedLength = &Error{Kind: KindMalformedLength}
	// ErrNoRoot is a reference sentinel for KindNoRoot.
	ErrNoRoot = &Error{Kind: KindNoRoot}
)

func errUnknownRecord(tag byte) error {
	return wrapErr(KindUnknownRecord, "unhandled record tag", fmt.Errorf("tag 0x%02X", tag))
}

func errUnsupportedPrimitive(code byte) error {
	return wrapErr(KindUnsupportedPrimitive, "unmapped primitive type code", fmt.Errorf("code %d", code))
}

func errDanglingReference(id uint32) error {
	return wrapErr(KindDanglingReference, "reference id not present in object table", fmt.Errorf("id %d", id))
}

func errTruncated(what string) error {
	return newErr(KindTruncatedInput, "reader exhausted while reading "+what)
}
