// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package localexecutor

import (
	"context"

	"github.com/vk/stencilgo/internal/axis"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/executor"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
)

// worker owns everything a tile sweep mutates besides the stores and the
// per-tile temporaries: the cursor, the cache scratch and the bindings.
type worker struct {
	id       int
	e        *Executor
	cursor   *iterdomain.Cursor
	ij       [][][]float64
	k        [][][]float64
	bindings [][]iterdomain.Binding
}

func newWorker(id int, e *Executor) *worker {
	w := &worker{
		id:       id,
		e:        e,
		cursor:   iterdomain.NewCursor(e.opts.Debug),
		ij:       make([][][]float64, len(e.passes)),
		k:        make([][][]float64, len(e.passes)),
		bindings: make([][]iterdomain.Binding, e.stageCount),
	}
	for n, p := range e.passes {
		for _, c := range p.ij {
			w.ij[n] = append(w.ij[n], make([]float64, c.shape.size))
		}
		for _, c := range p.k {
			w.k[n] = append(w.k[n], make([]float64, c.shape.size))
		}
		for _, s := range p.stages {
			bs := make([]iterdomain.Binding, len(s.params))
			for m, prm := range s.params {
				bs[m] = prm.tmpl
				switch prm.source {
				case fromIJ:
					bs[m].Data = w.ij[n][prm.slot]
					bs[m].Strides = p.ij[prm.slot].shape.strides
				case fromK:
					bs[m].Data = w.k[n][prm.slot]
					bs[m].Strides = p.k[prm.slot].shape.strides
					bs[m].Ring = p.k[prm.slot].shape.ring
				}
			}
			w.bindings[s.stage.ID()] = bs
		}
	}
	return w
}

// loop sweeps tiles until the stream ends or a sweep fails.
func (w *worker) loop(ctx context.Context, p *passPlan, tiles <-chan grid.Tile) error {
	logger := ctxlog.FromContext(ctx).With("workerID", w.id, "pass", p.index)
	logger.Debug("Worker started.")

	for t := range tiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.sweep(p, t); err != nil {
			logger.Error("Tile sweep failed.", "tile", t.ID, "error", err)
			return err
		}
		tilesTotal.WithLabelValues(w.e.opts.Backend, p.order.String()).Inc()
	}
	logger.Debug("Worker finished.")
	return nil
}

// sweep runs every stage of the pass over one tile, level by level.
func (w *worker) sweep(p *passPlan, t grid.Tile) (err error) {
	var current *stagePlan
	level := -1
	defer func() {
		if v := recover(); v != nil {
			name := "<cache>"
			if current != nil {
				name = current.name
			}
			err = &executor.StageFault{Stage: name, Pass: p.index, Tile: t.ID, K: level, Value: v}
		}
	}()

	w.bindTile(p, t)
	nk := w.e.grid.NK()
	for step, k := range p.levels(nk) {
		level = k
		current = nil
		w.fill(p, t, k, step == 0)
		for _, s := range p.stages {
			m := s.table[k]
			if m == axis.NoMethod {
				continue
			}
			current = s
			do := s.methods[m].Do
			w.cursor.Bind(w.bindings[s.stage.ID()])
			for j := t.JBegin + s.region.JMinus; j < t.JEnd+s.region.JPlus; j++ {
				for i := t.IBegin + s.region.IMinus; i < t.IEnd+s.region.IPlus; i++ {
					for c := 0; c < s.colors; c++ {
						w.cursor.Move(i, j, k, c)
						do(w.cursor)
					}
				}
			}
		}
		current = nil
		w.flush(p, t, k)
	}
	return nil
}

// bindTile points the tile-relative bindings of the pass at tile t.
func (w *worker) bindTile(p *passPlan, t grid.Tile) {
	for _, s := range p.stages {
		bs := w.bindings[s.stage.ID()]
		for m, prm := range s.params {
			switch prm.source {
			case fromTemporary:
				tmp := w.e.temps[prm.id]
				bs[m].Data = tmp.tiles[t.ID]
				bs[m].Base = tmp.shape.base(t)
			case fromIJ:
				bs[m].Base = p.ij[prm.slot].shape.base(t)
			case fromK:
				bs[m].Base = p.k[prm.slot].shape.base(t)
			}
		}
	}
}

// backing is the uncached view of a k-cached placeholder for tile t.
func (w *worker) backing(c *kCache, t grid.Tile) view {
	id := c.Placeholder.ID
	if tmp, ok := w.e.temps[id]; ok {
		return view{data: tmp.tiles[t.ID], base: tmp.shape.base(t), strides: tmp.shape.strides}
	}
	ds := w.e.stores[id]
	return view{data: ds.Host(), strides: ds.Strides()}
}

func (w *worker) ring(p *passPlan, slot int, t grid.Tile) view {
	c := &p.k[slot]
	return view{data: w.k[p.index][slot], base: c.shape.base(t), strides: c.shape.strides, ring: c.shape.ring}
}

// fill loads the whole window on entry and the leading level afterwards.
func (w *worker) fill(p *passPlan, t grid.Tile, k int, entry bool) {
	nk := w.e.grid.NK()
	for n := range p.k {
		c := &p.k[n]
		if !c.Policy.Fills() {
			continue
		}
		from, to := k+c.KMinus, k+c.KPlus
		if !entry {
			if p.order == composition.Backward {
				to = from
			} else {
				from = to
			}
		}
		src, dst := w.backing(c, t), w.ring(p, n, t)
		for kl := max(from, 0); kl <= min(to, nk-1); kl++ {
			copyLevel(dst, src, t, c.Extent, kl, c.colors)
		}
	}
}

// flush writes level k back once every stage has run on it.
func (w *worker) flush(p *passPlan, t grid.Tile, k int) {
	for n := range p.k {
		c := &p.k[n]
		if !c.Policy.Flushes() || !c.written[k] {
			continue
		}
		copyLevel(w.backing(c, t), w.ring(p, n, t), t, c.WriteExtent, k, c.colors)
	}
}

func copyLevel(dst, src view, t grid.Tile, region extent.Extent, k, colors int) {
	for j := t.JBegin + region.JMinus; j < t.JEnd+region.JPlus; j++ {
		for i := t.IBegin + region.IMinus; i < t.IEnd+region.IPlus; i++ {
			for c := 0; c < colors; c++ {
				dst.data[dst.index(i, j, k, c)] = src.data[src.index(i, j, k, c)]
			}
		}
	}
}
