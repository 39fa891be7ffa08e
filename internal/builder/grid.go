// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"errors"
	"fmt"

	"github.com/vk/stencilgo/internal/axis"
	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/grid"
)

func buildGrid(c *config.Grid) (*grid.Grid, error) {
	if c == nil {
		return nil, errors.New("program declares no grid")
	}
	ni, nj, nk := c.Size[0], c.Size[1], c.Size[2]
	if c.Halo < 0 {
		return nil, fmt.Errorf("grid halo must not be negative, got %d", c.Halo)
	}

	positions := make([]int, 0, len(c.Splitters)+2)
	positions = append(positions, 0)
	positions = append(positions, c.Splitters...)
	positions = append(positions, nk)
	ax, err := axis.New(positions...)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	g, err := grid.New(grid.Symmetric(ni, c.Halo), grid.Symmetric(nj, c.Halo), ax)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return g, nil
}
