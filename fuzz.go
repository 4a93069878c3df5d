// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import "context"

// Fuzz is a github.com/dvyukov/go-fuzz entry point over Deserialize,
// grounded on the teacher's own fuzz.go (same shape: construct, run the
// one entry point, map error/success to 0/1). Malformed input is the
// expected steady state here — a self-describing, interleaved record
// stream with forward references is exactly the kind of format corpus
// mutation tends to desynchronize, so this is the cheapest way to keep
// the record-tag dispatch and reference fix-up pass honest over time.
func Fuzz(data []byte) int {
	if _, err := Deserialize(context.Background(), data, nil); err != nil {
		return 0
	}
	return 1
}
