// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package executor defines the interface of the execution engine and the
// errors it reports while running a compiled pipeline.
package executor

import (
	"context"
	"errors"
	"fmt"
)

// Executor runs a compiled pipeline over its bound stores.
type Executor interface {
	Execute(ctx context.Context) error
}

// Options controls how a pipeline is mapped onto tiles and workers.
type Options struct {
	// Backend names the backend in logs, spans and metrics.
	Backend string
	// TileI and TileJ bound the horizontal tile size. Non-positive values
	// take the whole interior in that dimension.
	TileI, TileJ int
	// Workers is the number of concurrent tile workers. Non-positive means one.
	Workers int
	// Debug checks every access against its declared extent and intent.
	Debug bool
}

// StageFault reports a panic raised by functor code.
type StageFault struct {
	Stage string
	Pass  int
	Tile  int
	K     int
	Value any
}

func (f *StageFault) Error() string {
	return fmt.Sprintf("stage %s panicked in multi-stage %d, tile %d, level %d: %v", f.Stage, f.Pass, f.Tile, f.K, f.Value)
}

// Unwrap exposes the panic value when it is an error.
func (f *StageFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// IsStageFault reports whether err carries a StageFault.
func IsStageFault(err error) bool {
	var f *StageFault
	return errors.As(err, &f)
}
