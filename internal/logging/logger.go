// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging holds the process-wide structured logger. Secrets passed as
// key/value pairs are rendered through their String or LogValue hooks, which
// always yield the masked form.
package logging

import (
	"fmt"
	"log/slog"
	"os"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. Callers should use the helper functions
// below for compatibility with existing calls.
var L = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
	Prefix:          "masking",
})

// SetLevel parses level ("debug", "info", "warn", "error", "fatal") and
// applies it to L.
func SetLevel(level string) error {
	lvl, err := clog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	L.SetLevel(lvl)
	return nil
}

// With returns a child of L carrying the given key/value pairs.
func With(keyvals ...any) *clog.Logger {
	return L.With(keyvals...)
}

// Slog returns an slog.Logger backed by L, for libraries that take one.
func Slog() *slog.Logger {
	return slog.New(L)
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...any) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...any) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...any) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...any) {
	L.Error(fmt.Sprintf(format, v...))
}
