// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the cache planner. It checks every cache a multi-stage
// requests, drops caches no stage uses and sizes the survivors from the
// analyzed access extents, so that the executor can allocate all scratch
// space once per worker before running anything.

package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/analysis"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/extent"
)

// IJEntry is a planned horizontal plane cache.
type IJEntry struct {
	Placeholder accessor.Placeholder
	// Extent is the region around a tile the plane must hold.
	Extent extent.Extent
}

// KEntry is a planned vertical ring cache.
type KEntry struct {
	Placeholder accessor.Placeholder
	Policy      composition.CachePolicy
	// KMinus and KPlus bound the planes read around the current one.
	KMinus, KPlus int
	// Extent is the region around a tile each plane must hold.
	Extent extent.Extent
	// WriteExtent is the region around a tile the pass writes, flushed
	// after each plane.
	WriteExtent extent.Extent
}

// Window is the number of planes the ring holds.
func (e KEntry) Window() int { return e.KPlus - e.KMinus + 1 }

// PassPlan lists the caches of one multi-stage.
type PassPlan struct {
	IJ []IJEntry
	K  []KEntry
}

// Cached reports whether placeholder id is served by a cache in this pass.
func (p PassPlan) Cached(id int) bool {
	for _, e := range p.IJ {
		if e.Placeholder.ID == id {
			return true
		}
	}
	for _, e := range p.K {
		if e.Placeholder.ID == id {
			return true
		}
	}
	return false
}

// Plan is the cache layout of a pipeline, one entry per multi-stage.
type Plan struct {
	Passes []PassPlan
}

// Build validates the requested caches against the analysis and plans them.
func Build(ctx context.Context, r *analysis.Result) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	plan := &Plan{Passes: make([]PassPlan, len(r.Passes))}
	var errs []error

	for n, pass := range r.Passes {
		ms := pass.MultiStage
		subject := fmt.Sprintf("multi-stage %d", n)
		seen := map[int]bool{}
		for _, c := range ms.Caches() {
			id := c.Placeholder.ID
			if seen[id] {
				errs = append(errs, composition.Definitionf(composition.KindCache, subject, "%s requested twice", c))
				continue
			}
			seen[id] = true

			access, used := pass.Access[id]
			if !used {
				logger.Debug("Dropping cache on placeholder no stage uses.", "pass", n, "cache", c.String())
				continue
			}
			if c.Policy == composition.Local && !c.Placeholder.IsTemporary() {
				errs = append(errs, composition.Definitionf(composition.KindCache, subject,
					"local %s would never reach its store; use a temporary or a fill/flush policy", c))
				continue
			}
			if c.Policy == composition.Local {
				if others := otherPasses(r, n, id); len(others) > 0 {
					errs = append(errs, composition.Definitionf(composition.KindCache, subject,
						"local %s only lives while multi-stage %d runs, but multi-stages %v also access it", c, n, others))
					continue
				}
			}

			switch c.Kind {
			case composition.IJCache:
				if c.Policy != composition.Local {
					errs = append(errs, composition.Definitionf(composition.KindCache, subject, "%s: ij caches are always local", c))
					continue
				}
				if !access.IsVerticalZero() {
					errs = append(errs, composition.Definitionf(composition.KindCache, subject,
						"%s: accessed with vertical extent %s, an ij cache holds one plane", c, access))
					continue
				}
				plan.Passes[n].IJ = append(plan.Passes[n].IJ, IJEntry{
					Placeholder: c.Placeholder,
					Extent:      pass.Footprint[id].Horizontal(),
				})
			case composition.KCache:
				if ms.Order() == composition.Parallel {
					errs = append(errs, composition.Definitionf(composition.KindCache, subject,
						"%s: k caches need a forward or backward multi-stage", c))
					continue
				}
				plan.Passes[n].K = append(plan.Passes[n].K, KEntry{
					Placeholder: c.Placeholder,
					Policy:      c.Policy,
					KMinus:      access.KMinus,
					KPlus:       access.KPlus,
					Extent:      pass.Footprint[id].Horizontal(),
					WriteExtent: writeExtent(r, pass, id),
				})
			}
		}
		logger.Debug("Caches planned.", "pass", n, "ij", len(plan.Passes[n].IJ), "k", len(plan.Passes[n].K))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return plan, nil
}

// otherPasses lists the passes other than n that access placeholder id.
func otherPasses(r *analysis.Result, n, id int) []int {
	var out []int
	for m, pass := range r.Passes {
		if _, ok := pass.Access[id]; ok && m != n {
			out = append(out, m)
		}
	}
	return out
}

func writeExtent(r *analysis.Result, pass *analysis.Pass, id int) extent.Extent {
	e := extent.Zero
	for _, s := range pass.MultiStage.Stages() {
		for _, b := range s.Bindings() {
			if b.Placeholder.ID == id && b.Accessor.Intent == accessor.ReadWrite {
				e = e.Union(r.StageExtent(s).Horizontal())
			}
		}
	}
	return e
}
