// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/stencil"
	"github.com/vk/stencilgo/internal/storage"
	"github.com/vk/stencilgo/internal/topology"
)

// Computation is a compiled computation of a program.
type Computation struct {
	Name       string
	Iterations int
	*stencil.Computation
}

// ref is a resolved stage argument: a field, by store index, or a
// temporary, by declaration index.
type ref struct {
	field, temp int
}

type tempDecl struct {
	name string
	loc  topology.Location
}

type stagePlan struct {
	functor composition.Functor
	args    []ref
	extent  *extent.Extent
	group   string
}

type kPlan struct {
	policy composition.CachePolicy
	refs   []ref
}

type passPlan struct {
	order  composition.Order
	ij     []ref
	k      []kPlan
	stages []stagePlan
}

// buildComputation resolves every name of c, then compiles it over all
// program fields, field n being bound to placeholder n.
func (b *Builder) buildComputation(ctx context.Context, p *Program, c *config.Computation) (*Computation, error) {
	logger := ctxlog.FromContext(ctx)
	iterations := c.Iterations
	switch {
	case iterations == 0:
		iterations = 1
	case iterations < 0:
		return nil, fmt.Errorf("iterations must be positive, got %d", iterations)
	}

	names := make(map[string]ref, len(p.fields)+len(c.Temporaries))
	for n, f := range p.fields {
		names[f.Name()] = ref{field: n, temp: -1}
	}
	temps := make([]tempDecl, 0, len(c.Temporaries))
	for n, t := range c.Temporaries {
		if _, taken := names[t.Name]; taken {
			return nil, fmt.Errorf("temporary %q shadows a field or another temporary", t.Name)
		}
		loc, err := topology.ParseLocation(t.Location)
		if err != nil {
			return nil, fmt.Errorf("temporary %q: %w", t.Name, err)
		}
		names[t.Name] = ref{field: -1, temp: n}
		temps = append(temps, tempDecl{name: t.Name, loc: loc})
	}

	var errs []error
	resolve := func(list []string) []ref {
		out := make([]ref, 0, len(list))
		for _, name := range list {
			r, ok := names[name]
			if !ok {
				errs = append(errs, fmt.Errorf("unknown field or temporary %q", name))
				continue
			}
			out = append(out, r)
		}
		return out
	}

	plans := make([]passPlan, 0, len(c.MultiStages))
	for n, ms := range c.MultiStages {
		order, err := composition.ParseOrder(ms.Order)
		if err != nil {
			errs = append(errs, fmt.Errorf("multi-stage %d: %w", n, err))
		}
		plan := passPlan{order: order, ij: resolve(ms.IJCached)}
		for _, kc := range ms.KCached {
			policy, err := composition.ParseCachePolicy(kc.Policy)
			if err != nil {
				errs = append(errs, fmt.Errorf("multi-stage %d: %w", n, err))
				continue
			}
			plan.k = append(plan.k, kPlan{policy: policy, refs: resolve(kc.Fields)})
		}
		for _, st := range ms.Stages {
			sp, err := b.planStage(ctx, p, st)
			if err != nil {
				errs = append(errs, fmt.Errorf("multi-stage %d, stage %q: %w", n, st.Functor, err))
				continue
			}
			sp.args = resolve(st.Args)
			if len(sp.args) != len(st.Args) {
				continue
			}
			plan.stages = append(plan.stages, sp)
		}
		plans = append(plans, plan)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	compose := func(s *composition.Scope, args ...accessor.Placeholder) composition.Computable {
		tmp := make([]accessor.Placeholder, len(temps))
		for n, t := range temps {
			tmp[n] = s.Temporary(t.name, t.loc)
		}
		ph := func(refs []ref) []accessor.Placeholder {
			out := make([]accessor.Placeholder, len(refs))
			for n, r := range refs {
				if r.temp >= 0 {
					out[n] = tmp[r.temp]
				} else {
					out[n] = args[r.field]
				}
			}
			return out
		}
		passes := make([]*composition.MultiStage, len(plans))
		for n, plan := range plans {
			ms := composition.Execute(plan.order)
			if len(plan.ij) > 0 {
				ms.IJCached(ph(plan.ij)...)
			}
			for _, k := range plan.k {
				ms.KCached(k.policy, ph(k.refs)...)
			}
			for i := 0; i < len(plan.stages); {
				first := plan.stages[i]
				if first.group == "" {
					ms.Append(first.stage(ph))
					i++
					continue
				}
				var group []*composition.Stage
				for ; i < len(plan.stages) && plan.stages[i].group == first.group; i++ {
					group = append(group, plan.stages[i].stage(ph))
				}
				ms.Independent(group...)
			}
			passes[n] = ms
		}
		return composition.MultiPass(passes...)
	}

	stores := make([]storage.DataStore, len(p.fields))
	for n, f := range p.fields {
		stores[n] = f
	}
	compiled, err := stencil.Compile(ctx, compose, b.opts, p.Grid, stores...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Computation compiled.", "computation", c.Name, "multi_stages", len(plans), "iterations", iterations, "tiles", len(compiled.Tiles()))
	return &Computation{Name: c.Name, Iterations: iterations, Computation: compiled}, nil
}

func (b *Builder) planStage(ctx context.Context, p *Program, st *config.Stage) (stagePlan, error) {
	factory, ok := b.registry.Functor(st.Functor)
	if !ok {
		return stagePlan{}, fmt.Errorf("unknown functor %q", st.Functor)
	}
	params, err := b.decodeParams(ctx, p.Grid, factory.NewParams, st.Params)
	if err != nil {
		return stagePlan{}, fmt.Errorf("params: %w", err)
	}
	f, err := factory.New(p.Grid, params)
	if err != nil {
		return stagePlan{}, err
	}
	sp := stagePlan{functor: f, group: st.Group}
	if len(st.Extent) > 0 {
		e, err := extent.New(st.Extent...)
		if err != nil {
			return stagePlan{}, fmt.Errorf("extent: %w", err)
		}
		sp.extent = &e
	}
	return sp, nil
}

func (sp stagePlan) stage(ph func([]ref) []accessor.Placeholder) *composition.Stage {
	s := composition.NewStage(sp.functor, ph(sp.args)...)
	if sp.extent != nil {
		s = s.WithExtent(*sp.extent)
	}
	return s
}
