// Copyright (c) 2026 Keymaster Team
// masking - secret wrapper library and merchant credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/toeirei/masking/internal/logging"
	"github.com/uptrace/bun"
)

var debugEnabled bool

// SetDebug enables or disables DB debug logging. Disabled by default.
func SetDebug(enabled bool) {
	debugEnabled = enabled
}

func dbLogf(format string, v ...any) {
	if debugEnabled {
		logging.Debugf(format, v...)
	}
}

// queryLogHook logs every query's operation and duration when debug logging
// is enabled. event.Query holds the interpolated arguments and must not be
// logged.
type queryLogHook struct{}

var _ bun.QueryHook = queryLogHook{}

func (queryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (queryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if !debugEnabled {
		return
	}
	dur := time.Since(event.StartTime)
	if event.Err != nil {
		logging.With("op", event.Operation(), "took", dur).Debug("db: query failed", "err", event.Err)
		return
	}
	logging.With("op", event.Operation(), "took", dur).Debug("db: query")
}
