// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the grid: the horizontal index space of a computation,
// described by one halo descriptor per horizontal dimension, plus the
// vertical axis. A grid owns no data; it only tells the engine which points
// are interior (computed) and which belong to the halo.

package grid

import (
	"fmt"

	"github.com/vk/stencilgo/internal/axis"
)

// HaloDescriptor describes one dimension of a store: Minus halo points
// before Begin, the inclusive interior [Begin, End], Plus halo points after
// End, and the Total allocated size.
type HaloDescriptor struct {
	Minus, Plus int
	Begin, End  int
	Total       int
}

// NewHaloDescriptor validates and builds a halo descriptor.
func NewHaloDescriptor(minus, plus, begin, end, total int) (HaloDescriptor, error) {
	h := HaloDescriptor{Minus: minus, Plus: plus, Begin: begin, End: end, Total: total}
	return h, h.Validate()
}

// Symmetric describes a dimension of the given total size with the same halo
// on both sides.
func Symmetric(total, halo int) HaloDescriptor {
	return HaloDescriptor{Minus: halo, Plus: halo, Begin: halo, End: total - halo - 1, Total: total}
}

// Validate checks that halos and interior fit inside the allocated size.
func (h HaloDescriptor) Validate() error {
	switch {
	case h.Minus < 0 || h.Plus < 0:
		return fmt.Errorf("halo %s: negative halo width", h)
	case h.Begin > h.End:
		return fmt.Errorf("halo %s: empty interior", h)
	case h.Begin-h.Minus < 0:
		return fmt.Errorf("halo %s: minus halo starts before 0", h)
	case h.End+h.Plus >= h.Total:
		return fmt.Errorf("halo %s: plus halo ends past the allocated size", h)
	}
	return nil
}

// Interior is the number of interior points.
func (h HaloDescriptor) Interior() int { return h.End - h.Begin + 1 }

func (h HaloDescriptor) String() string {
	return fmt.Sprintf("{minus %d, plus %d, begin %d, end %d, total %d}", h.Minus, h.Plus, h.Begin, h.End, h.Total)
}

// Grid is the iteration space of a computation.
type Grid struct {
	I, J HaloDescriptor
	Axis *axis.Axis
}

// New validates the halo descriptors and builds a grid.
func New(i, j HaloDescriptor, ax *axis.Axis) (*Grid, error) {
	if err := i.Validate(); err != nil {
		return nil, fmt.Errorf("grid i: %w", err)
	}
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("grid j: %w", err)
	}
	if ax == nil {
		return nil, fmt.Errorf("grid needs a vertical axis")
	}
	return &Grid{I: i, J: j, Axis: ax}, nil
}

// Regular builds an ni x nj x nk grid with a symmetric halo of the given
// width in i and j and a single vertical interval.
func Regular(ni, nj, nk, halo int) (*Grid, error) {
	ax, err := axis.FromSizes(nk)
	if err != nil {
		return nil, err
	}
	return New(Symmetric(ni, halo), Symmetric(nj, halo), ax)
}

// NK is the number of vertical planes.
func (g *Grid) NK() int { return g.Axis.Size() }

// Halos returns the descriptors of all three dimensions. The vertical one
// has no halo.
func (g *Grid) Halos() [3]HaloDescriptor {
	nk := g.NK()
	return [3]HaloDescriptor{g.I, g.J, {Begin: 0, End: nk - 1, Total: nk}}
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid{i %s, j %s, %s}", g.I, g.J, g.Axis)
}
