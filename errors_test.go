// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package nbfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	err := errUnknownRecord(0x42)
	require.True(t, errors.Is(err, ErrUnknownRecord))
	require.False(t, errors.Is(err, ErrInvalidHeader))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	err := errDanglingReference(7)
	var nerr *Error
	require.ErrorAs(t, err, &nerr)
	require.Error(t, nerr.Unwrap())
	require.Contains(t, nerr.Unwrap().Error(), "7")
}

func TestKindString(t *testing.T) {
	require.Equal(t, "no root object", KindNoRoot.String())
	require.Equal(t, "unknown error kind", Kind(99).String())
}
