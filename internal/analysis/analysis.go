// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the extent and dependency analyzer.
//
// The analyzer walks each multi-stage backwards. A stage must compute every
// point any later consumer reads, so its compute extent is the union of the
// extents already required of the placeholders it writes. Each of its reads
// then pushes that requirement, grown by the accessor's declared extent,
// back onto the read placeholder. One reverse pass per multi-stage is
// enough because stages only consume what earlier stages produce.
//
// Fields written by an earlier multi-stage are complete over the interior
// before the next one starts, so requirements on fields stop at multi-stage
// boundaries. Temporaries live in per-tile buffers, so a requirement on a
// temporary flows back into the multi-stage that produced it.

package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/dag"
	"github.com/vk/stencilgo/internal/extent"
)

// Pass is the analysis of one multi-stage.
type Pass struct {
	Index      int
	MultiStage *composition.MultiStage
	// Written holds the ids of placeholders some stage of the pass writes.
	Written map[int]bool
	// Access is the union of the declared accessor extents per placeholder.
	Access map[int]extent.Extent
	// Footprint is the horizontal region, relative to a tile, that the pass
	// touches per placeholder, vertical reach included.
	Footprint map[int]extent.Extent
	// Graph orders the stages of the pass by their data hazards.
	Graph *dag.Graph
}

// ReadOnly returns the sorted ids of placeholders the pass only reads.
func (p *Pass) ReadOnly() []int {
	var out []int
	for id := range p.Access {
		if !p.Written[id] {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

// ReadWrite returns the sorted ids of placeholders the pass writes.
func (p *Pass) ReadWrite() []int {
	out := make([]int, 0, len(p.Written))
	for id := range p.Written {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Result is the analysis of a pipeline.
type Result struct {
	Pipeline *composition.Pipeline
	Passes   []*Pass

	placeholders map[int]accessor.Placeholder
	extents      map[int]extent.Extent
	footprints   map[int]extent.Extent
	intents      map[int]accessor.Intent
	stages       []extent.Extent
}

// Extent is the union over all multi-stages of the region around each
// computed point from which placeholder id is read.
func (r *Result) Extent(id int) (extent.Extent, bool) {
	e, ok := r.extents[id]
	return e, ok
}

// Intent is ReadWrite if any stage writes placeholder id.
func (r *Result) Intent(id int) (accessor.Intent, bool) {
	i, ok := r.intents[id]
	return i, ok
}

// Footprint is the union over all passes of the region touched around a
// tile for placeholder id. Temporary buffers are sized from it.
func (r *Result) Footprint(id int) extent.Extent { return r.footprints[id] }

// StageExtent is the compute extent of a stage.
func (r *Result) StageExtent(s *composition.Stage) extent.Extent { return r.stages[s.ID()] }

// Placeholders returns every placeholder of the pipeline, ordered by id.
func (r *Result) Placeholders() []accessor.Placeholder {
	out := make([]accessor.Placeholder, 0, len(r.placeholders))
	for _, ph := range r.placeholders {
		out = append(out, ph)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Analyze validates the pipeline, probes its functors, computes extents and
// checks hazards and independence claims. All definition errors found are
// returned joined.
func Analyze(ctx context.Context, p *composition.Pipeline) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var errs []error
	for _, s := range p.Stages() {
		if err := probeStage(s); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	r := &Result{
		Pipeline:     p,
		placeholders: map[int]accessor.Placeholder{},
		extents:      map[int]extent.Extent{},
		footprints:   map[int]extent.Extent{},
		intents:      map[int]accessor.Intent{},
		stages:       make([]extent.Extent, len(p.Stages())),
	}
	r.computeExtents()

	for _, pass := range r.Passes {
		if err := pass.Graph.DetectCycles(); err != nil {
			errs = append(errs, fmt.Errorf("multi-stage %d: %w", pass.Index, err))
		}
		errs = append(errs, r.checkHazards(pass)...)
		errs = append(errs, checkIndependence(pass)...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, ph := range r.Placeholders() {
		intent := r.intents[ph.ID]
		logger.Debug("Placeholder analyzed.", "placeholder", ph.Name, "kind", ph.Kind, "extent", r.extents[ph.ID].String(), "intent", intent.String())
	}
	logger.Debug("Extent analysis complete.", "passes", len(r.Passes), "stages", len(r.stages))
	return r, nil
}

func (r *Result) computeExtents() {
	passes := r.Pipeline.Passes()
	r.Passes = make([]*Pass, len(passes))
	carried := map[int]extent.Extent{}

	for m := len(passes) - 1; m >= 0; m-- {
		ms := passes[m]
		pass := &Pass{
			Index:      m,
			MultiStage: ms,
			Written:    map[int]bool{},
			Access:     map[int]extent.Extent{},
			Footprint:  map[int]extent.Extent{},
			Graph:      dag.New(),
		}
		r.Passes[m] = pass

		need := map[int]extent.Extent{}
		for id, e := range carried {
			need[id] = e
		}
		stages := ms.Stages()
		for n := len(stages) - 1; n >= 0; n-- {
			s := stages[n]
			bindings := s.Bindings()
			se := extent.Zero
			for _, b := range bindings {
				if b.Accessor.Intent == accessor.ReadWrite {
					se = se.Union(need[b.Placeholder.ID])
				}
			}
			if pinned, ok := s.Pinned(); ok {
				se = pinned
			}
			r.stages[s.ID()] = se
			for _, b := range bindings {
				id := b.Placeholder.ID
				need[id] = need[id].Union(se.Compose(b.Accessor.Extent))
			}
		}

		for _, s := range stages {
			se := r.stages[s.ID()].Horizontal()
			for _, b := range s.Bindings() {
				id := b.Placeholder.ID
				r.placeholders[id] = b.Placeholder
				pass.Access[id] = pass.Access[id].Union(b.Accessor.Extent)
				pass.Footprint[id] = pass.Footprint[id].Union(se.Compose(b.Accessor.Extent))
				if b.Accessor.Intent == accessor.ReadWrite {
					pass.Written[id] = true
					r.intents[id] = accessor.ReadWrite
				} else if _, ok := r.intents[id]; !ok {
					r.intents[id] = accessor.ReadOnly
				}
			}
		}
		for id, fp := range pass.Footprint {
			r.footprints[id] = r.footprints[id].Union(fp)
		}
		for id, e := range need {
			r.extents[id] = r.extents[id].Union(e)
			if r.placeholders[id].IsTemporary() {
				carried[id] = e
			}
		}
		buildGraph(pass)
	}
}

// buildGraph links every pair of stages of a pass that share a placeholder
// in a way that fixes their order.
func buildGraph(pass *Pass) {
	stages := pass.MultiStage.Stages()
	reads := make([]map[int]bool, len(stages))
	writes := make([]map[int]bool, len(stages))
	for n, s := range stages {
		pass.Graph.AddNode(s.ID())
		reads[n], writes[n] = map[int]bool{}, map[int]bool{}
		for _, b := range s.Bindings() {
			if b.Accessor.Intent == accessor.ReadWrite {
				writes[n][b.Placeholder.ID] = true
			} else {
				reads[n][b.Placeholder.ID] = true
			}
		}
	}
	for a := range stages {
		for b := a + 1; b < len(stages); b++ {
			var h dag.Hazard
			for id := range writes[a] {
				if reads[b][id] {
					h |= dag.ReadAfterWrite
				}
				if writes[b][id] {
					h |= dag.WriteAfterWrite
				}
			}
			for id := range reads[a] {
				if writes[b][id] {
					h |= dag.WriteAfterRead
				}
			}
			if h != 0 {
				// Both nodes exist and a < b, so the edge is always valid.
				_ = pass.Graph.AddEdge(stages[a].ID(), stages[b].ID(), h)
			}
		}
	}
}

// checkHazards rejects compositions whose result would depend on how tiles
// are scheduled.
func (r *Result) checkHazards(pass *Pass) []error {
	var errs []error
	order := pass.MultiStage.Order()
	for _, s := range pass.MultiStage.Stages() {
		se := r.stages[s.ID()]
		for _, b := range s.Bindings() {
			ph := b.Placeholder
			if !pass.Written[ph.ID] {
				continue
			}
			a := b.Accessor
			// A read reaches the declared extent around every point of the
			// stage's compute region, which may spill into neighboring tiles.
			reach := se.Horizontal().Compose(a.Extent)
			isRead := a.Intent == accessor.ReadOnly || !a.Extent.IsHorizontalZero()
			if !ph.IsTemporary() && isRead && !reach.IsHorizontalZero() {
				errs = append(errs, composition.Definitionf(composition.KindHazard, s.Name(),
					"%s is written in multi-stage %d and read over %s; neighboring tiles race on it",
					ph, pass.Index, reach.Horizontal()))
			}
			if order == composition.Parallel && !a.Extent.IsVerticalZero() {
				errs = append(errs, composition.Definitionf(composition.KindHazard, s.Name(),
					"%s is written in parallel multi-stage %d and read with vertical extent %s",
					ph, pass.Index, a.Extent))
			}
			if a.Intent == accessor.ReadWrite && !ph.IsTemporary() && !se.IsHorizontalZero() {
				errs = append(errs, composition.Definitionf(composition.KindHazard, s.Name(),
					"%s is written over the extended region %s; only temporaries may be computed beyond a tile",
					ph, se.Horizontal()))
			}
		}
	}
	return errs
}

// checkIndependence rejects independent groups in which one member has to
// run after another, directly or through other stages.
func checkIndependence(pass *Pass) []error {
	var errs []error
	for g, group := range pass.MultiStage.Groups() {
		members := make(map[int]*composition.Stage, len(group))
		for _, s := range group {
			members[s.ID()] = s
		}
		for _, s := range group {
			// Every stage of the group is a node of the graph.
			after, _ := pass.Graph.Descendants(s.ID())
			for _, id := range after {
				other, ok := members[id]
				if !ok {
					continue
				}
				hazard := "a transitive"
				if h, direct := pass.Graph.Edge(s.ID(), id); direct {
					hazard = "a " + h.String()
				}
				errs = append(errs, composition.Definitionf(composition.KindIndependence,
					fmt.Sprintf("independent group %d of multi-stage %d", g, pass.Index),
					"stages %s and %s are ordered by %s hazard", s.Name(), other.Name(), hazard))
			}
		}
	}
	return errs
}
