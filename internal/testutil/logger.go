// Package testutil provides test utilities for structured logging and
// fact fixtures.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger routes debug-level logs through t.Log so they surface only
// for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{tb: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type tbWriter struct {
	tb testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
