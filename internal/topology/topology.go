// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the locations of the triangular unstructured grid and the
// static neighbor tables used to address one location from another.
//
// The grid is a regular (i, j) lattice of vertices. Each lattice cell holds
// two triangles (colors 0 and 1) and three edges (colors 0, 1, 2):
//
//	cell c0 = V(i,j) V(i+1,j) V(i,j+1)
//	cell c1 = V(i+1,j) V(i+1,j+1) V(i,j+1)
//	edge e0 = V(i,j)-V(i+1,j)
//	edge e1 = V(i+1,j)-V(i,j+1)
//	edge e2 = V(i,j)-V(i,j+1)
//
// Every table entry is a relative (di, dj, dk) offset plus the absolute color
// of the target element. The tables are fixed at compile time, so neighbor
// lists have a length known per (from, to) pair.

package topology

import (
	"fmt"
	"strings"

	"github.com/vk/stencilgo/internal/extent"
)

// Location is the kind of grid element a value lives on.
type Location uint8

const (
	// None marks structured data: one value per (i, j, k).
	None Location = iota
	Cells
	Edges
	Vertices
)

// Colors returns the number of colors of a location.
func (l Location) Colors() int {
	switch l {
	case Cells:
		return 2
	case Edges:
		return 3
	default:
		return 1
	}
}

// Unstructured reports whether the location belongs to the triangular grid.
func (l Location) Unstructured() bool { return l != None }

func (l Location) String() string {
	switch l {
	case Cells:
		return "cells"
	case Edges:
		return "edges"
	case Vertices:
		return "vertices"
	default:
		return "none"
	}
}

// ParseLocation maps a program-file location name onto a Location. The
// empty string is the structured location.
func ParseLocation(s string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "structured":
		return None, nil
	case "cells", "cell":
		return Cells, nil
	case "edges", "edge":
		return Edges, nil
	case "vertices", "vertex":
		return Vertices, nil
	}
	return None, fmt.Errorf("unknown location %q", s)
}

// Neighbor is one entry of a neighbor table.
type Neighbor struct {
	DI, DJ, DK int
	Color      int
}

type pair struct{ from, to Location }

func n(di, color, dj int) Neighbor { return Neighbor{DI: di, DJ: dj, Color: color} }

// tables is indexed by (from, to) and then by the color of the source element.
var tables = map[pair][][]Neighbor{
	{Cells, Cells}: {
		{n(-1, 1, 0), n(0, 1, 0), n(0, 1, -1)},
		{n(1, 0, 0), n(0, 0, 1), n(0, 0, 0)},
	},
	{Cells, Edges}: {
		{n(0, 0, 0), n(0, 1, 0), n(0, 2, 0)},
		{n(1, 2, 0), n(0, 0, 1), n(0, 1, 0)},
	},
	{Cells, Vertices}: {
		{n(0, 0, 0), n(1, 0, 0), n(0, 0, 1)},
		{n(1, 0, 0), n(1, 0, 1), n(0, 0, 1)},
	},
	{Edges, Cells}: {
		{n(0, 0, 0), n(0, 1, -1)},
		{n(0, 0, 0), n(0, 1, 0)},
		{n(0, 0, 0), n(-1, 1, 0)},
	},
	{Edges, Edges}: {
		{n(0, 1, 0), n(0, 2, 0), n(1, 2, -1), n(0, 1, -1)},
		{n(0, 0, 0), n(0, 2, 0), n(1, 2, 0), n(0, 0, 1)},
		{n(0, 0, 0), n(0, 1, 0), n(-1, 0, 1), n(-1, 1, 0)},
	},
	{Edges, Vertices}: {
		{n(0, 0, 0), n(1, 0, 0)},
		{n(1, 0, 0), n(0, 0, 1)},
		{n(0, 0, 0), n(0, 0, 1)},
	},
	{Vertices, Cells}: {
		{n(0, 0, 0), n(-1, 0, 0), n(0, 0, -1), n(-1, 1, 0), n(-1, 1, -1), n(0, 1, -1)},
	},
	{Vertices, Edges}: {
		{n(0, 0, 0), n(-1, 0, 0), n(-1, 1, 0), n(0, 1, -1), n(0, 2, 0), n(0, 2, -1)},
	},
	{Vertices, Vertices}: {
		{n(1, 0, 0), n(0, 0, 1), n(-1, 0, 1), n(-1, 0, 0), n(0, 0, -1), n(1, 0, -1)},
	},
}

// Neighbors returns the neighbor list of an element of location from and the
// given color towards location to. The second result is false when no table
// connects the two locations or the color is out of range.
func Neighbors(from, to Location, color int) ([]Neighbor, bool) {
	t, ok := tables[pair{from, to}]
	if !ok || color < 0 || color >= len(t) {
		return nil, false
	}
	return t[color], true
}

// Connected reports whether a neighbor table exists from one location to
// another.
func Connected(from, to Location) bool {
	_, ok := tables[pair{from, to}]
	return ok
}

// Reach is the smallest extent containing every offset of the tables from
// one location to another, across all source colors.
func Reach(from, to Location) extent.Extent {
	var e extent.Extent
	for _, list := range tables[pair{from, to}] {
		for _, nb := range list {
			e = e.Expand(nb.DI, nb.DJ, nb.DK)
		}
	}
	return e
}
