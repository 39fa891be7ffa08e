// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package tridiagonal registers a vertical tri-diagonal solver (the Thomas
// algorithm) split into a forward elimination and a backward substitution.
// Each column solves a[k]*x[k-1] + b[k]*x[k] + c[k]*x[k+1] = d[k].
package tridiagonal

import (
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/axis"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var (
	below = extent.MustNew(0, 0, 0, 0, -1, 0)
	above = extent.MustNew(0, 0, 0, 0, 0, 1)
)

// Forward eliminates the lower diagonal. It must run in a forward
// multi-stage and writes the modified upper diagonal and right-hand side.
// Arguments: a, b, c, d, cp, dp.
func Forward(ax *axis.Axis) (*composition.Definition, error) {
	full := ax.Full()
	rest, err := full.Shift(1, 0)
	if err != nil {
		return nil, fmt.Errorf("forward sweep: %w", err)
	}
	a, b, c, d := accessor.In(0).Named("a"), accessor.In(1).Named("b"), accessor.In(2).Named("c"), accessor.In(3).Named("d")
	cp, dp := accessor.InOut(4, below).Named("cp"), accessor.InOut(5, below).Named("dp")

	return composition.NewFunctor("tridiagonal_forward", accessor.ParamList{a, b, c, d, cp, dp},
		composition.DoOn(full.First(), func(ev iterdomain.Evaluation) {
			m := ev.Value(b)
			ev.Set(cp, ev.Value(c)/m)
			ev.Set(dp, ev.Value(d)/m)
		}),
		composition.DoOn(rest, func(ev iterdomain.Evaluation) {
			ak := ev.Value(a)
			m := ev.Value(b) - ak*ev.Get(cp, 0, 0, -1)
			ev.Set(cp, ev.Value(c)/m)
			ev.Set(dp, (ev.Value(d)-ak*ev.Get(dp, 0, 0, -1))/m)
		}),
	), nil
}

// Backward substitutes from the top level down. It must run in a backward
// multi-stage after Forward. Arguments: cp, dp, x.
func Backward(ax *axis.Axis) (*composition.Definition, error) {
	full := ax.Full()
	rest, err := full.Shift(0, -1)
	if err != nil {
		return nil, fmt.Errorf("backward sweep: %w", err)
	}
	cp, dp := accessor.In(0).Named("cp"), accessor.In(1).Named("dp")
	x := accessor.InOut(2, above).Named("x")

	return composition.NewFunctor("tridiagonal_backward", accessor.ParamList{cp, dp, x},
		composition.DoOn(full.Last(), func(ev iterdomain.Evaluation) {
			ev.Set(x, ev.Value(dp))
		}),
		composition.DoOn(rest, func(ev iterdomain.Evaluation) {
			ev.Set(x, ev.Value(dp)-ev.Value(cp)*ev.Get(x, 0, 0, 1))
		}),
	), nil
}

// Register registers the functors with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunctor("tridiagonal_forward", &registry.RegisteredFunctor{
		Description: "forward elimination: (a, b, c, d) -> (cp, dp)",
		New:         func(g *grid.Grid, _ any) (composition.Functor, error) { return Forward(g.Axis) },
	})
	r.RegisterFunctor("tridiagonal_backward", &registry.RegisteredFunctor{
		Description: "backward substitution: (cp, dp) -> x",
		New:         func(g *grid.Grid, _ any) (composition.Functor, error) { return Backward(g.Axis) },
	})
}
