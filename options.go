// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"github.com/go-nbfs/nbfs/log"
)

// defaultMaxObjects bounds the object table so a maliciously crafted
// stream of many id-registering records (classes, strings, arrays) cannot
// force an unbounded allocation before the decoder ever gets to report an
// error. ObjectNull/ObjectNull256 register no ids and are not counted.
const defaultMaxObjects = 1 << 20

// Options configures a Deserialize call. The zero value is the documented
// default for every field.
type Options struct {
	// Logger receives debug-level traces of the record stream and
	// warn-level notices when a documented source quirk (e.g. the
	// sum-based BinaryArray length, see ArrayLengthProduct) is exercised.
	// Defaults to log.DefaultLogger() (stdout, filtered to warnings).
	Logger log.Logger

	// LegacyStringDecoding reproduces the source program's imprecise
	// one-byte-per-rune string decode instead of treating the bytes as
	// UTF-8. Default false (corrected decoding).
	LegacyStringDecoding bool

	// ArrayLengthProduct switches BinaryArray's totalLength computation
	// from the source's observed sum-of-dimensions behavior to the
	// canonical product-of-dimensions behavior. Default false preserves
	// the source's behavior; see arrayTotalLength.
	ArrayLengthProduct bool

	// MaxObjects bounds the number of entries the object table may hold.
	// Zero selects defaultMaxObjects.
	MaxObjects uint32
}

func (o *Options) logger() *log.Helper {
	if o == nil || o.Logger == nil {
		return log.NewHelper(log.DefaultLogger())
	}
	return log.NewHelper(o.Logger)
}

func (o *Options) legacyStrings() bool {
	return o != nil && o.LegacyStringDecoding
}

func (o *Options) arrayLengthProduct() bool {
	return o != nil && o.ArrayLengthProduct
}

func (o *Options) maxObjects() uint32 {
	if o == nil || o.MaxObjects == 0 {
		return defaultMaxObjects
	}
	return o.MaxObjects
}
