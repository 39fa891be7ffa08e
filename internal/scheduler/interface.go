// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package scheduler decides which horizontal tiles a multi-stage runs on and
// streams them to the executor's workers.
//
// # Why Scheduler Exists
//
// Tiles of one multi-stage are independent by construction: the analyzer
// rejects any composition in which a tile could read what a neighboring
// tile writes in the same multi-stage. That leaves a pure distribution
// problem, which the scheduler owns:
//   - **Partitioning:** cutting the grid interior into tiles of the requested size
//   - **Streaming:** handing tiles out over a channel, one consumer per worker
//   - **Cancellation:** stopping the stream as soon as the run is cancelled
//
// # Relationship with Other Components
//
//   - **Grid:** provides the interior and the tile partition
//   - **Executor:** consumes Tiles() from every worker and sweeps each tile
package scheduler

import (
	"context"

	"github.com/vk/stencilgo/internal/grid"
)

// Scheduler streams the tiles of one multi-stage.
//
// # Usage Pattern
//
// Every worker ranges over the same channel:
//
//	for tile := range sched.Tiles(ctx) {
//	    sweep(tile)
//	}
//
// The channel is **closed by the scheduler** once every tile has been handed
// out or the context is cancelled. Each tile is delivered exactly once.
type Scheduler interface {
	Tiles(ctx context.Context) <-chan grid.Tile
	// Len returns the number of tiles a full stream delivers.
	Len() int
}
