// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the iterate domain: the view a functor has of the data
// while the engine walks the grid.
//
// A Cursor holds the current (i, j, k, color) position and one Binding per
// functor parameter. A Binding is everything needed to turn a relative
// offset into a flat slice index, resolved once per stage and tile, so the
// per-point work is a handful of multiply-adds. Caller stores, engine
// temporaries and cache scratch all look the same to the cursor; they only
// differ in their data slice, base offset and strides.

package iterdomain

import (
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/topology"
)

// Evaluation is what functor code sees at one grid point.
type Evaluation interface {
	// Get reads parameter a at the relative offset (di, dj, dk).
	Get(a accessor.Accessor, di, dj, dk int) float64
	// Value reads parameter a at the current point.
	Value(a accessor.Accessor) float64
	// Set writes parameter a at the current point.
	Set(a accessor.Accessor, v float64)
	// ForNeighbors folds op over the neighbors of the current element on
	// the location of parameter a, starting from init.
	ForNeighbors(a accessor.Accessor, init float64, op func(acc, v float64) float64) float64
	I() int
	J() int
	K() int
	Color() int
}

// recorder is implemented by evaluations that only record the accesses of
// a method.
type recorder interface {
	Recording() bool
}

// Recording reports whether ev is the compile-time run that records a
// method's accesses. No data is bound to it and its position is
// meaningless; functors with side effects outside their parameters should
// skip them.
func Recording(ev Evaluation) bool {
	r, ok := ev.(recorder)
	return ok && r.Recording()
}

// Binding resolves one functor parameter.
type Binding struct {
	Label    string
	Data     []float64
	Base     int
	Strides  [4]int
	Extent   extent.Extent
	Writable bool
	// Ring, when positive, wraps the k index modulo Ring.
	Ring int
	// Neighbors holds the neighbor table towards the bound location, per
	// color of the functor location. Nil on structured grids.
	Neighbors [][]topology.Neighbor
}

// Cursor is the engine's Evaluation. It is owned by one worker.
type Cursor struct {
	i, j, k, color int
	bindings       []Binding
	debug          bool
}

var _ Evaluation = (*Cursor)(nil)

// NewCursor creates a cursor. In debug mode every access is checked against
// the declared extent and intent of its parameter and violations panic.
func NewCursor(debug bool) *Cursor { return &Cursor{debug: debug} }

// Bind installs the bindings of the next stage.
func (c *Cursor) Bind(b []Binding) { c.bindings = b }

// Move positions the cursor.
func (c *Cursor) Move(i, j, k, color int) { c.i, c.j, c.k, c.color = i, j, k, color }

func (c *Cursor) I() int     { return c.i }
func (c *Cursor) J() int     { return c.j }
func (c *Cursor) K() int     { return c.k }
func (c *Cursor) Color() int { return c.color }

func (c *Cursor) index(b *Binding, di, dj, dk, color int) int {
	kk := c.k + dk
	if b.Ring > 0 {
		kk = ((kk % b.Ring) + b.Ring) % b.Ring
	}
	return b.Base + (c.i+di)*b.Strides[0] + (c.j+dj)*b.Strides[1] + kk*b.Strides[2] + color*b.Strides[3]
}

func (c *Cursor) check(b *Binding, di, dj, dk int) {
	if !b.Extent.Contains(di, dj, dk) {
		panic(fmt.Sprintf("access to %s at offset (%d,%d,%d) is outside its extent %s", b.Label, di, dj, dk, b.Extent))
	}
}

func (c *Cursor) Get(a accessor.Accessor, di, dj, dk int) float64 {
	b := &c.bindings[a.Index]
	if c.debug {
		c.check(b, di, dj, dk)
	}
	return b.Data[c.index(b, di, dj, dk, c.color)]
}

func (c *Cursor) Value(a accessor.Accessor) float64 {
	b := &c.bindings[a.Index]
	return b.Data[c.index(b, 0, 0, 0, c.color)]
}

func (c *Cursor) Set(a accessor.Accessor, v float64) {
	b := &c.bindings[a.Index]
	if c.debug && !b.Writable {
		panic(fmt.Sprintf("write to read-only parameter %s", b.Label))
	}
	b.Data[c.index(b, 0, 0, 0, c.color)] = v
}

func (c *Cursor) ForNeighbors(a accessor.Accessor, init float64, op func(acc, v float64) float64) float64 {
	b := &c.bindings[a.Index]
	if c.debug && c.color >= len(b.Neighbors) {
		panic(fmt.Sprintf("parameter %s has no neighbor table for color %d", b.Label, c.color))
	}
	acc := init
	for _, nb := range b.Neighbors[c.color] {
		if c.debug {
			c.check(b, nb.DI, nb.DJ, nb.DK)
		}
		acc = op(acc, b.Data[c.index(b, nb.DI, nb.DJ, nb.DK, nb.Color)])
	}
	return acc
}

// NeighborTables collects the per-color tables from one location to another.
// It returns nil when no table connects them.
func NeighborTables(from, to topology.Location) [][]topology.Neighbor {
	if !topology.Connected(from, to) {
		return nil
	}
	tables := make([][]topology.Neighbor, from.Colors())
	for color := range tables {
		tables[color], _ = topology.Neighbors(from, to, color)
	}
	return tables
}
