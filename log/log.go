// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log is a small structured logger modeled on the teacher's own
// log subpackage (observed through its call sites in file.go/cmd/pedumper.go:
// log.Helper, log.NewStdLogger, log.NewFilter, log.FilterLevel, log.LevelError).
// The subpackage's source was not part of the retrieval pack, so this is a
// from-scratch implementation matching that observed surface rather than a
// copy.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is a logging severity.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink every Helper writes through.
type Logger interface {
	Log(level Level, keyvals ...any) error
}

// stdLogger writes one line per Log call to w, prefixed with a timestamp
// and level.
type stdLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdLogger returns a Logger that writes to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{w: w}
}

func (l *stdLogger) Log(level Level, keyvals ...any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := fmt.Fprintf(l.w, "%s %-5s %s\n", ts, level, formatKeyvals(keyvals))
	return err
}

func formatKeyvals(keyvals []any) string {
	s := ""
	for i := 0; i+1 < len(keyvals); i += 2 {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%v=%v", keyvals[i], keyvals[i+1])
	}
	if len(keyvals)%2 == 1 {
		s += fmt.Sprintf(" %v", keyvals[len(keyvals)-1])
	}
	return s
}

// filterOption configures a Filter.
type filterOption func(*Filter)

// FilterLevel drops any record below level.
func FilterLevel(level Level) filterOption {
	return func(f *Filter) { f.level = level }
}

// Filter wraps a Logger, gating records by a minimum level.
type Filter struct {
	logger Logger
	level  Level
}

// NewFilter returns a Logger that drops records below the configured level.
func NewFilter(logger Logger, opts ...filterOption) Logger {
	f := &Filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) Log(level Level, keyvals ...any) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}

// Helper adds leveled convenience methods and persistent keyvals on top of
// a Logger.
type Helper struct {
	logger  Logger
	keyvals []any
}

// NewHelper wraps logger.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

// With returns a Helper that prefixes every subsequent call with keyvals.
func (h *Helper) With(keyvals ...any) *Helper {
	nk := make([]any, 0, len(h.keyvals)+len(keyvals))
	nk = append(nk, h.keyvals...)
	nk = append(nk, keyvals...)
	return &Helper{logger: h.logger, keyvals: nk}
}

func (h *Helper) log(level Level, msg string) {
	if h == nil || h.logger == nil {
		return
	}
	kv := append(append([]any{}, h.keyvals...), "msg", msg)
	_ = h.logger.Log(level, kv...)
}

func (h *Helper) Debugf(format string, args ...any) { h.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (h *Helper) Infof(format string, args ...any)  { h.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (h *Helper) Warnf(format string, args ...any)  { h.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (h *Helper) Errorf(format string, args ...any) { h.log(LevelError, fmt.Sprintf(format, args...)) }

// DefaultLogger is the fallback used when callers don't supply one: a
// stdout logger filtered to warnings and above, matching the teacher's own
// default in file.go's New/NewBytes.
func DefaultLogger() Logger {
	return NewFilter(NewStdLogger(os.Stdout), FilterLevel(LevelWarn))
}
