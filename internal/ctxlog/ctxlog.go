// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package ctxlog provides a context key for safely passing a slog.Logger
// instance through context.Context, together with the run id of the
// computation being logged.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key int

const (
	// loggerKey is the key for the slog.Logger in a context.Context.
	loggerKey key = iota
	// runIDKey is the key for the id of the current computation run.
	runIDKey
)

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. If no logger is
// found, it returns the default global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithRunID tags the context with a run id and attaches it to the logger.
func WithRunID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, id)
	return WithLogger(ctx, FromContext(ctx).With("run_id", id))
}

// RunID returns the run id of the context, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}
