// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package basic registers point-wise functors.
package basic

import (
	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// ScaleParams defines the arguments of the scale functor.
type ScaleParams struct {
	Factor float64 `stencil:"factor,required"`
	Offset float64 `stencil:"offset"`
}

// Copy writes its first argument into its second.
func Copy() *composition.Definition {
	in, out := accessor.In(0).Named("in"), accessor.InOut(1).Named("out")
	return composition.NewFunctor("copy", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, ev.Value(in))
	}))
}

// Scale writes factor*in + offset.
func Scale(p ScaleParams) *composition.Definition {
	in, out := accessor.In(0).Named("in"), accessor.InOut(1).Named("out")
	return composition.NewFunctor("scale", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, p.Factor*ev.Value(in)+p.Offset)
	}))
}

// Register registers the functors with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunctor("copy", &registry.RegisteredFunctor{
		Description: "out = in",
		New: func(*grid.Grid, any) (composition.Functor, error) {
			return Copy(), nil
		},
	})
	r.RegisterFunctor("scale", &registry.RegisteredFunctor{
		Description: "out = factor * in + offset",
		NewParams:   func() any { return new(ScaleParams) },
		New: func(_ *grid.Grid, p any) (composition.Functor, error) {
			return Scale(*p.(*ScaleParams)), nil
		},
	})
}
