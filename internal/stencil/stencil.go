// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package stencil is the entry point of the engine. It binds caller stores
// to placeholders, hands the composition to the analyzer and the cache
// planner and wraps the result in a Computation that can be run repeatedly.
package stencil

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/analysis"
	"github.com/vk/stencilgo/internal/cache"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/executor"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/localexecutor"
	"github.com/vk/stencilgo/internal/storage"
	"github.com/vk/stencilgo/internal/topology"
)

// Backend selects how the interior is mapped onto workers.
type Backend string

const (
	// Naive runs the whole interior as one tile on one worker.
	Naive Backend = "naive"
	// Block splits the interior into tiles run by a worker pool.
	Block Backend = "block"
)

// ParseBackend converts a backend name.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case Naive, Block:
		return b, nil
	}
	return "", fmt.Errorf("unknown backend %q (want %q or %q)", s, Naive, Block)
}

// Options configures compilation.
type Options struct {
	Backend Backend
	// TileI and TileJ bound the tile size of the block backend.
	TileI, TileJ int
	// Workers is the size of the block backend's worker pool.
	Workers int
	// Debug checks every access at run time.
	Debug bool
}

// DefaultOptions returns block execution with 8x8 tiles and one worker per
// available CPU.
func DefaultOptions() Options {
	return Options{Backend: Block, TileI: 8, TileJ: 8, Workers: runtime.GOMAXPROCS(0)}
}

func (o Options) executor() (executor.Options, error) {
	switch o.Backend {
	case Naive:
		return executor.Options{Backend: string(Naive), Workers: 1, Debug: o.Debug}, nil
	case Block, "":
		return executor.Options{Backend: string(Block), TileI: o.TileI, TileJ: o.TileJ, Workers: o.Workers, Debug: o.Debug}, nil
	}
	return executor.Options{}, fmt.Errorf("unknown backend %q", o.Backend)
}

// Composer builds a computation from one placeholder per bound store. The
// scope creates temporaries.
type Composer func(s *composition.Scope, args ...accessor.Placeholder) composition.Computable

// Computation is a compiled pipeline bound to its stores.
type Computation struct {
	pipeline *composition.Pipeline
	analysis *analysis.Result
	plan     *cache.Plan
	args     []accessor.Placeholder
	exec     *localexecutor.Executor
}

// locator is implemented by stores that know their grid location.
type locator interface {
	Location() topology.Location
}

// Placeholders returns one field placeholder per store, in order, named
// after the store.
func Placeholders(stores ...storage.DataStore) []accessor.Placeholder {
	args := make([]accessor.Placeholder, len(stores))
	for n, ds := range stores {
		args[n] = accessor.Arg(n)
		if ds == nil {
			continue
		}
		args[n] = accessor.Arg(n, ds.Name())
		if l, ok := ds.(locator); ok {
			args[n] = args[n].On(l.Location())
		}
	}
	return args
}

// Compile composes, analyzes and plans a computation over g, binding the
// n-th store to the n-th placeholder. Definition errors are reported before
// any store is read or written.
func Compile(ctx context.Context, compose Composer, opts Options, g *grid.Grid, stores ...storage.DataStore) (*Computation, error) {
	logger := ctxlog.FromContext(ctx)
	if g == nil {
		return nil, errors.New("compile: nil grid")
	}
	eo, err := opts.executor()
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	args := Placeholders(stores...)
	c := compose(composition.NewScope(len(args)), args...)
	if c == nil {
		return nil, errors.New("compile: composer returned no computation")
	}
	p := c.Pipeline()

	r, err := analysis.Analyze(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	plan, err := cache.Build(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	bound := make(map[int]storage.DataStore, len(stores))
	for n, ds := range stores {
		if ds != nil {
			bound[args[n].ID] = ds
		}
	}
	exec, err := localexecutor.New(ctx, r, plan, g, bound, eo)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	logger.Debug("Computation compiled.", "backend", eo.Backend, "stores", len(stores), "stages", len(p.Stages()))
	return &Computation{pipeline: p, analysis: r, plan: plan, args: args, exec: exec}, nil
}

// Run executes the computation once.
func (c *Computation) Run(ctx context.Context) error {
	return c.exec.Execute(ctx)
}

// Args returns the placeholders bound to the stores.
func (c *Computation) Args() []accessor.Placeholder { return c.args }

// Pipeline returns the validated pipeline.
func (c *Computation) Pipeline() *composition.Pipeline { return c.pipeline }

// Tiles returns the horizontal tiles the computation runs on.
func (c *Computation) Tiles() []grid.Tile { return c.exec.Tiles() }

// ArgExtent is the extent over which the computation reads ph.
func (c *Computation) ArgExtent(ph accessor.Placeholder) (extent.Extent, error) {
	return argExtent(c.analysis, ph)
}

// ArgIntent reports whether the computation writes ph.
func (c *Computation) ArgIntent(ph accessor.Placeholder) (accessor.Intent, error) {
	return argIntent(c.analysis, ph)
}

// Run compiles and runs a computation once.
func Run(ctx context.Context, compose Composer, opts Options, g *grid.Grid, stores ...storage.DataStore) error {
	c, err := Compile(ctx, compose, opts, g, stores...)
	if err != nil {
		return err
	}
	return c.Run(ctx)
}

// RunSingleStage runs functor f once in parallel order with the stores bound
// to its parameters in order.
func RunSingleStage(ctx context.Context, f composition.Functor, opts Options, g *grid.Grid, stores ...storage.DataStore) error {
	return Run(ctx, func(_ *composition.Scope, args ...accessor.Placeholder) composition.Computable {
		return composition.ExecuteParallel().Stage(f, args...)
	}, opts, g, stores...)
}

// ArgExtent analyzes c and returns the extent over which it reads ph.
func ArgExtent(ctx context.Context, c composition.Computable, ph accessor.Placeholder) (extent.Extent, error) {
	r, err := analysis.Analyze(ctx, c.Pipeline())
	if err != nil {
		return extent.Zero, err
	}
	return argExtent(r, ph)
}

// ArgIntent analyzes c and reports whether it writes ph.
func ArgIntent(ctx context.Context, c composition.Computable, ph accessor.Placeholder) (accessor.Intent, error) {
	r, err := analysis.Analyze(ctx, c.Pipeline())
	if err != nil {
		return accessor.ReadOnly, err
	}
	return argIntent(r, ph)
}

func argExtent(r *analysis.Result, ph accessor.Placeholder) (extent.Extent, error) {
	e, ok := r.Extent(ph.ID)
	if !ok {
		return extent.Zero, fmt.Errorf("%s is not used by the computation", ph)
	}
	return e, nil
}

func argIntent(r *analysis.Result, ph accessor.Placeholder) (accessor.Intent, error) {
	i, ok := r.Intent(ph.ID)
	if !ok {
		return accessor.ReadOnly, fmt.Errorf("%s is not used by the computation", ph)
	}
	return i, nil
}
