// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterDropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilter(NewStdLogger(&buf), FilterLevel(LevelWarn))
	h := NewHelper(logger)

	h.Debugf("should not appear")
	require.Empty(t, buf.String())

	h.Warnf("should appear %d", 1)
	require.True(t, strings.Contains(buf.String(), "should appear 1"))
}

func TestHelperWithPersistsKeyvals(t *testing.T) {
	var buf bytes.Buffer
	h := NewHelper(NewStdLogger(&buf)).With("trace", "abc")
	h.Infof("hello")
	require.Contains(t, buf.String(), "trace=abc")
	require.Contains(t, buf.String(), "msg=hello")
}

func TestNilHelperIsSafe(t *testing.T) {
	var h *Helper
	h.Errorf("must not panic")
}
