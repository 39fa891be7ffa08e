// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scheduler

import (
	"context"

	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/grid"
)

// DefaultScheduler streams a fixed tile partition in tile id order.
type DefaultScheduler struct {
	tiles []grid.Tile
}

// New creates a scheduler over the given tiles.
func New(tiles []grid.Tile) *DefaultScheduler {
	return &DefaultScheduler{tiles: tiles}
}

// Len implements the Scheduler interface.
func (s *DefaultScheduler) Len() int { return len(s.tiles) }

// Tiles implements the Scheduler interface.
func (s *DefaultScheduler) Tiles(ctx context.Context) <-chan grid.Tile {
	logger := ctxlog.FromContext(ctx)
	ch := make(chan grid.Tile)
	go func() {
		defer close(ch)
		for _, t := range s.tiles {
			select {
			case ch <- t:
			case <-ctx.Done():
				logger.Debug("Tile stream cancelled.", "next_tile", t.ID, "error", ctx.Err())
				return
			}
		}
	}()
	return ch
}
