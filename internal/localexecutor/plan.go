// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns an analyzed pipeline into the flat tables the workers
// walk: per stage a method index for every level, the horizontal compute
// region and one binding template per parameter; per pass the cache blocks
// each worker owns.

package localexecutor

import (
	"errors"
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/analysis"
	"github.com/vk/stencilgo/internal/axis"
	"github.com/vk/stencilgo/internal/cache"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/storage"
)

type source uint8

const (
	fromStore source = iota
	fromTemporary
	fromIJ
	fromK
)

// block is the shape of an engine-owned buffer relative to a tile.
type block struct {
	ext     extent.Extent
	strides [4]int
	ring    int
	size    int
}

// temporaryBlock holds every level of a temporary around one tile.
func temporaryBlock(ext extent.Extent, ti, tj, nk, colors int) block {
	ni, nj := ti+ext.IPlus-ext.IMinus, tj+ext.JPlus-ext.JMinus
	levels := nk + ext.KPlus - ext.KMinus
	return block{
		ext:     ext,
		strides: [4]int{1, ni, ni * nj * colors, ni * nj},
		size:    ni * nj * colors * levels,
	}
}

// planeBlock holds a single level; every k maps onto it.
func planeBlock(ext extent.Extent, ti, tj, colors int) block {
	ext = ext.Horizontal()
	ni, nj := ti+ext.IPlus-ext.IMinus, tj+ext.JPlus-ext.JMinus
	return block{
		ext:     ext,
		strides: [4]int{1, ni, 0, ni * nj},
		size:    ni * nj * colors,
	}
}

// ringBlock holds window levels, addressed modulo the window.
func ringBlock(ext extent.Extent, ti, tj, colors, window int) block {
	ext = ext.Horizontal()
	ni, nj := ti+ext.IPlus-ext.IMinus, tj+ext.JPlus-ext.JMinus
	return block{
		ext:     ext,
		strides: [4]int{1, ni, ni * nj * colors, ni * nj},
		ring:    window,
		size:    ni * nj * colors * window,
	}
}

// base places the first point of the block's region at index zero.
func (b block) base(t grid.Tile) int {
	return -((t.IBegin+b.ext.IMinus)*b.strides[0] + (t.JBegin+b.ext.JMinus)*b.strides[1] + b.ext.KMinus*b.strides[2])
}

type temporary struct {
	placeholder accessor.Placeholder
	shape       block
	// tiles holds one buffer per tile so values survive between passes.
	tiles [][]float64
}

// view is a flat addressing of some backing data.
type view struct {
	data    []float64
	base    int
	strides [4]int
	ring    int
}

func (v view) index(i, j, k, c int) int {
	if v.ring > 0 {
		k = ((k % v.ring) + v.ring) % v.ring
	}
	return v.base + i*v.strides[0] + j*v.strides[1] + k*v.strides[2] + c*v.strides[3]
}

type param struct {
	source source
	id     int
	slot   int
	tmpl   iterdomain.Binding
}

type stagePlan struct {
	stage   *composition.Stage
	name    string
	table   []int
	methods []composition.Method
	region  extent.Extent
	colors  int
	params  []param
}

type kCache struct {
	cache.KEntry
	shape  block
	colors int
	// written marks the levels some stage of the pass writes.
	written []bool
}

type ijCache struct {
	cache.IJEntry
	shape block
}

type passPlan struct {
	index  int
	order  composition.Order
	stages []*stagePlan
	ij     []ijCache
	k      []kCache
}

// levels returns the sweep order of the pass.
func (p *passPlan) levels(nk int) []int {
	ks := make([]int, nk)
	for n := range ks {
		ks[n] = n
		if p.order == composition.Backward {
			ks[n] = nk - 1 - n
		}
	}
	return ks
}

func (e *Executor) plan(r *analysis.Result, cp *cache.Plan) error {
	nk := e.grid.NK()
	ti, tj := e.tiles[0].Size()

	for _, ph := range r.Placeholders() {
		if !ph.IsTemporary() {
			continue
		}
		shape := temporaryBlock(r.Footprint(ph.ID), ti, tj, nk, ph.Location.Colors())
		tmp := &temporary{placeholder: ph, shape: shape, tiles: make([][]float64, len(e.tiles))}
		for n := range tmp.tiles {
			tmp.tiles[n] = make([]float64, shape.size)
		}
		e.temps[ph.ID] = tmp
	}

	var errs []error
	for n, pass := range r.Passes {
		pp := &passPlan{index: n, order: pass.MultiStage.Order()}
		slots := map[int]int{}
		for _, c := range cp.Passes[n].IJ {
			slots[c.Placeholder.ID] = len(pp.ij)
			pp.ij = append(pp.ij, ijCache{IJEntry: c, shape: planeBlock(c.Extent, ti, tj, c.Placeholder.Location.Colors())})
		}
		for _, c := range cp.Passes[n].K {
			slots[c.Placeholder.ID] = len(pp.k)
			pp.k = append(pp.k, kCache{
				KEntry:  c,
				shape:   ringBlock(c.Extent, ti, tj, c.Placeholder.Location.Colors(), c.Window()),
				colors:  c.Placeholder.Location.Colors(),
				written: make([]bool, nk),
			})
		}

		for _, s := range pass.MultiStage.Stages() {
			sp, err := e.planStage(r, s, cp.Passes[n], slots)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			pp.stages = append(pp.stages, sp)
			for _, prm := range sp.params {
				if prm.source != fromK || !prm.tmpl.Writable {
					continue
				}
				for k, m := range sp.table {
					if m != axis.NoMethod {
						pp.k[prm.slot].written[k] = true
					}
				}
			}
		}
		e.passes = append(e.passes, pp)
	}
	return errors.Join(errs...)
}

func (e *Executor) planStage(r *analysis.Result, s *composition.Stage, pc cache.PassPlan, slots map[int]int) (*stagePlan, error) {
	f := s.Functor()
	segments, err := composition.ResolveMethods(f, e.grid.Axis)
	if err != nil {
		return nil, err
	}
	sp := &stagePlan{
		stage:   s,
		name:    s.Name(),
		table:   axis.Table(segments, e.grid.NK()),
		methods: f.Methods(),
		region:  r.StageExtent(s).Horizontal(),
		colors:  f.Location().Colors(),
	}
	for _, b := range s.Bindings() {
		ph := b.Placeholder
		prm := param{
			id: ph.ID,
			tmpl: iterdomain.Binding{
				Label:    fmt.Sprintf("%s of %s", ph.Name, sp.name),
				Extent:   b.Accessor.Extent,
				Writable: b.Accessor.Intent == accessor.ReadWrite,
			},
		}
		if f.Location().Unstructured() {
			prm.tmpl.Neighbors = iterdomain.NeighborTables(f.Location(), b.Location)
		}
		switch {
		case pc.Cached(ph.ID):
			prm.slot = slots[ph.ID]
			prm.source = fromK
			for _, c := range pc.IJ {
				if c.Placeholder.ID == ph.ID {
					prm.source = fromIJ
				}
			}
		case ph.IsTemporary():
			prm.source = fromTemporary
			prm.tmpl.Strides = e.temps[ph.ID].shape.strides
		default:
			ds := e.stores[ph.ID]
			prm.source = fromStore
			prm.tmpl.Data = ds.Host()
			prm.tmpl.Strides = ds.Strides()
		}
		sp.params = append(sp.params, prm)
	}
	return sp, nil
}

// checkStores verifies that every field placeholder is bound to a store that
// can hold the grid and every region the pipeline touches.
func (e *Executor) checkStores(r *analysis.Result) error {
	var errs []error
	nk := e.grid.NK()
	for _, ph := range r.Placeholders() {
		if ph.IsTemporary() {
			continue
		}
		subject := ph.String()
		ds, ok := e.stores[ph.ID]
		if !ok || ds == nil {
			errs = append(errs, composition.Definitionf(composition.KindBinding, subject, "no data store bound"))
			continue
		}
		if ds.Colors() != ph.Location.Colors() {
			errs = append(errs, composition.Definitionf(composition.KindBinding, subject,
				"store %s has %d colors, location %s needs %d", ds.Name(), ds.Colors(), ph.Location, ph.Location.Colors()))
		}
		dims := ds.Dims()
		if dims[storage.DimI] < e.grid.I.Total || dims[storage.DimJ] < e.grid.J.Total || dims[storage.DimK] < nk {
			errs = append(errs, composition.Definitionf(composition.KindBinding, subject,
				"store %s of size %v is smaller than the grid (%d, %d, %d)", ds.Name(), dims, e.grid.I.Total, e.grid.J.Total, nk))
			continue
		}
		fp := r.Footprint(ph.ID)
		if e.grid.I.Begin+fp.IMinus < 0 || e.grid.I.End+fp.IPlus >= dims[storage.DimI] ||
			e.grid.J.Begin+fp.JMinus < 0 || e.grid.J.End+fp.JPlus >= dims[storage.DimJ] {
			errs = append(errs, composition.Definitionf(composition.KindBinding, subject,
				"accessed over %s around the interior, beyond the halo of store %s", fp, ds.Name()))
		}
	}
	return errors.Join(errs...)
}
