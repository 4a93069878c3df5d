// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

// collapsingMemberNames are member names whose value replaces the entire
// enclosing composite in the projected tree instead of becoming a map
// entry: "_items" collapses list/collection wrappers to their backing
// sequence, "value__" collapses boxed enum values to their raw payload
// (spec.md §4.3 rule 3).
var collapsingMemberNames = map[string]bool{
	"_items":  true,
	"value__": true,
}

// project walks a decoded composite tree and rewrites it into the plain
// value shape described in spec.md §4.3: maps, ordered sequences, scalars,
// strings and null. By the time project runs, every {ref:id} placeholder
// has already been resolved by the fix-up pass (decoder.finish), so
// project never observes one.
func project(v any) any {
	obj, ok := v.(*object)
	if !ok {
		// Rule 1: no memberValues field — scalar, string, nil, or a
		// primitive-array sequence ([]any), already in its final shape.
		if seq, ok := v.([]any); ok {
			return projectSequence(seq)
		}
		return v
	}

	if obj.isArray {
		// Rule 2: BinaryArray — project each element positionally.
		return projectSequence(obj.memberValues)
	}

	// Rule 3: class instance.
	for i, name := range obj.desc.memberNames {
		if collapsingMemberNames[name] {
			return project(obj.memberValues[i])
		}
	}
	result := make(map[string]any, len(obj.desc.memberNames))
	for i, name := range obj.desc.memberNames {
		result[name] = project(obj.memberValues[i])
	}
	return result
}

func projectSequence(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = project(v)
	}
	return out
}
