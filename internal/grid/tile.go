// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package grid

// Tile is a rectangular block of the interior, half-open in both
// dimensions: [IBegin, IEnd) x [JBegin, JEnd).
type Tile struct {
	ID           int
	IBegin, IEnd int
	JBegin, JEnd int
}

// Size returns the tile's width in i and j.
func (t Tile) Size() (int, int) { return t.IEnd - t.IBegin, t.JEnd - t.JBegin }

// Tiles partitions the interior into blocks of at most bi x bj points. A
// non-positive block size takes the whole interior in that dimension. Tiles
// are numbered in j-major order.
func (g *Grid) Tiles(bi, bj int) []Tile {
	if bi <= 0 {
		bi = g.I.Interior()
	}
	if bj <= 0 {
		bj = g.J.Interior()
	}
	var tiles []Tile
	for j := g.J.Begin; j <= g.J.End; j += bj {
		for i := g.I.Begin; i <= g.I.End; i += bi {
			tiles = append(tiles, Tile{
				ID:     len(tiles),
				IBegin: i, IEnd: min(i+bi, g.I.End+1),
				JBegin: j, JEnd: min(j+bj, g.J.End+1),
			})
		}
	}
	return tiles
}
