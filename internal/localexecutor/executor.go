// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package localexecutor provides the in-process implementation of the
// executor.Executor interface.
//
// A pipeline runs one multi-stage at a time. Each multi-stage is a barrier:
// its tiles are streamed by a scheduler to a fixed set of workers and the
// next multi-stage starts only when every tile is done. Workers share the
// stores and the per-tile temporaries but never the same tile, and the
// analyzer has already rejected compositions where neighboring tiles would
// race on a store.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vk/stencilgo/internal/analysis"
	"github.com/vk/stencilgo/internal/cache"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/executor"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/scheduler"
	"github.com/vk/stencilgo/internal/storage"
)

// Executor runs one compiled pipeline. Execute may be called repeatedly but
// not concurrently; concurrent calls are serialized.
type Executor struct {
	mu         sync.Mutex
	opts       executor.Options
	grid       *grid.Grid
	tiles      []grid.Tile
	stores     map[int]storage.DataStore
	written    []storage.DataStore
	temps      map[int]*temporary
	passes     []*passPlan
	stageCount int
	workers    []*worker
}

var _ executor.Executor = (*Executor)(nil)

// New plans the analyzed pipeline r with cache plan cp over g. stores maps
// every field placeholder id to its data store. All scratch memory is
// allocated here.
func New(
	ctx context.Context,
	r *analysis.Result,
	cp *cache.Plan,
	g *grid.Grid,
	stores map[int]storage.DataStore,
	opts executor.Options,
) (*Executor, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Backend == "" {
		opts.Backend = "block"
	}
	e := &Executor{
		opts:       opts,
		grid:       g,
		tiles:      g.Tiles(opts.TileI, opts.TileJ),
		stores:     stores,
		temps:      map[int]*temporary{},
		stageCount: len(r.Pipeline.Stages()),
	}
	if err := e.checkStores(r); err != nil {
		return nil, err
	}
	if err := e.plan(r, cp); err != nil {
		return nil, err
	}

	seen := map[storage.DataStore]bool{}
	for _, pass := range r.Passes {
		for _, id := range pass.ReadWrite() {
			if ds, ok := stores[id]; ok && !seen[ds] {
				seen[ds] = true
				e.written = append(e.written, ds)
			}
		}
	}

	n := min(opts.Workers, len(e.tiles))
	for id := range n {
		e.workers = append(e.workers, newWorker(id, e))
	}
	logger.Debug("Executor planned.",
		"backend", opts.Backend,
		"tiles", len(e.tiles),
		"workers", len(e.workers),
		"passes", len(e.passes),
		"temporaries", len(e.temps),
	)
	return e, nil
}

// Tiles returns the tile partition the executor uses.
func (e *Executor) Tiles() []grid.Tile { return e.tiles }

// Execute runs every multi-stage in order.
func (e *Executor) Execute(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	runID := uuid.NewString()[:12]
	ctx = ctxlog.WithRunID(ctx, runID)
	logger := ctxlog.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "executor.Execute",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("backend", e.opts.Backend),
			attribute.Int("tiles", len(e.tiles)),
			attribute.Int("workers", len(e.workers)),
			attribute.Int("passes", len(e.passes)),
		),
	)
	defer span.End()

	start := time.Now()
	logger.Debug("Pipeline run starting.", "backend", e.opts.Backend, "tiles", len(e.tiles))
	err := e.execute(ctx)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	runsTotal.WithLabelValues(e.opts.Backend, status).Inc()
	runDuration.WithLabelValues(e.opts.Backend).Observe(elapsed.Seconds())
	logger.Debug("Pipeline run finished.", "status", status, "duration", elapsed)
	return err
}

func (e *Executor) execute(ctx context.Context) error {
	var errs []error
	for _, ds := range e.stores {
		if ds.State() == storage.DeviceNewer {
			errs = append(errs, fmt.Errorf("store %s: device copy is newer than the host copy; call SyncToHost first", ds.Name()))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	for _, p := range e.passes {
		if err := e.runPass(ctx, p); err != nil {
			return fmt.Errorf("multi-stage %d: %w", p.index, err)
		}
	}
	for _, ds := range e.written {
		ds.MarkModified(storage.Host)
	}
	return nil
}

func (e *Executor) runPass(ctx context.Context, p *passPlan) error {
	ctx, span := tracer.Start(ctx, "executor.Pass",
		trace.WithAttributes(
			attribute.Int("pass", p.index),
			attribute.String("order", p.order.String()),
			attribute.Int("stages", len(p.stages)),
		),
	)
	defer span.End()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(len(e.workers))
	tiles := scheduler.New(e.tiles).Tiles(gCtx)
	for _, w := range e.workers {
		g.Go(func() error { return w.loop(gCtx, p, tiles) })
	}
	err := g.Wait()
	if err == nil {
		// The stream also ends early when the caller cancels.
		err = ctx.Err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
