// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package diffusion registers the functors of horizontal, flux-limited
// diffusion: a five-point Laplacian, limited fluxes along i and j, and the
// update that applies their divergence.
package diffusion

import (
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params holds the diffusion coefficient.
type Params struct {
	Alpha float64 `stencil:"alpha,required"`
}

// Laplacian computes out = 4*in minus the four horizontal neighbors.
func Laplacian() *composition.Definition {
	in := accessor.In(0, extent.MustNew(-1, 1, -1, 1)).Named("in")
	out := accessor.InOut(1).Named("lap")
	return composition.NewFunctor("laplacian", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, 4*ev.Value(in)-ev.Get(in, 1, 0, 0)-ev.Get(in, -1, 0, 0)-ev.Get(in, 0, 1, 0)-ev.Get(in, 0, -1, 0))
	}))
}

// FluxI computes the limited flux between a point and its i+1 neighbor.
func FluxI() *composition.Definition { return flux("flux_i", 1, 0) }

// FluxJ computes the limited flux between a point and its j+1 neighbor.
func FluxJ() *composition.Definition { return flux("flux_j", 0, 1) }

// flux is zero where it would steepen the gradient of in.
func flux(name string, di, dj int) *composition.Definition {
	reach := extent.MustNew(0, di, 0, dj)
	in := accessor.In(0, reach).Named("in")
	lap := accessor.In(1, reach).Named("lap")
	out := accessor.InOut(2).Named("flux")
	return composition.NewFunctor(name, accessor.ParamList{in, lap, out}, composition.Do(func(ev iterdomain.Evaluation) {
		f := ev.Get(lap, di, dj, 0) - ev.Value(lap)
		if f*(ev.Get(in, di, dj, 0)-ev.Value(in)) > 0 {
			f = 0
		}
		ev.Set(out, f)
	}))
}

// Diffusion applies out = in - alpha * div(flux).
func Diffusion(p Params) *composition.Definition {
	in := accessor.In(0).Named("in")
	fx := accessor.In(1, extent.MustNew(-1, 0, 0, 0)).Named("flux_i")
	fy := accessor.In(2, extent.MustNew(0, 0, -1, 0)).Named("flux_j")
	out := accessor.InOut(3).Named("out")
	return composition.NewFunctor("diffusion", accessor.ParamList{in, fx, fy, out}, composition.Do(func(ev iterdomain.Evaluation) {
		div := ev.Value(fx) - ev.Get(fx, -1, 0, 0) + ev.Value(fy) - ev.Get(fy, 0, -1, 0)
		ev.Set(out, ev.Value(in)-p.Alpha*div)
	}))
}

// Smoothing applies out = in - alpha * lap without limiting.
func Smoothing(p Params) *composition.Definition {
	in, lap, out := accessor.In(0).Named("in"), accessor.In(1).Named("lap"), accessor.InOut(2).Named("out")
	return composition.NewFunctor("smoothing", accessor.ParamList{in, lap, out}, composition.Do(func(ev iterdomain.Evaluation) {
		ev.Set(out, ev.Value(in)-p.Alpha*ev.Value(lap))
	}))
}

func coefficient(p any) (Params, error) {
	params := *p.(*Params)
	if params.Alpha < 0 {
		return params, fmt.Errorf("alpha must not be negative, got %g", params.Alpha)
	}
	return params, nil
}

// Register registers the functors with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunctor("laplacian", &registry.RegisteredFunctor{
		Description: "lap = 4*in - in(i+1) - in(i-1) - in(j+1) - in(j-1)",
		New:         func(*grid.Grid, any) (composition.Functor, error) { return Laplacian(), nil },
	})
	r.RegisterFunctor("flux_i", &registry.RegisteredFunctor{
		Description: "limited flux along i from in and lap",
		New:         func(*grid.Grid, any) (composition.Functor, error) { return FluxI(), nil },
	})
	r.RegisterFunctor("flux_j", &registry.RegisteredFunctor{
		Description: "limited flux along j from in and lap",
		New:         func(*grid.Grid, any) (composition.Functor, error) { return FluxJ(), nil },
	})
	r.RegisterFunctor("diffusion", &registry.RegisteredFunctor{
		Description: "out = in - alpha * (flux divergence)",
		NewParams:   func() any { return new(Params) },
		New: func(_ *grid.Grid, p any) (composition.Functor, error) {
			params, err := coefficient(p)
			if err != nil {
				return nil, err
			}
			return Diffusion(params), nil
		},
	})
	r.RegisterFunctor("smoothing", &registry.RegisteredFunctor{
		Description: "out = in - alpha * lap",
		NewParams:   func() any { return new(Params) },
		New: func(_ *grid.Grid, p any) (composition.Functor, error) {
			params, err := coefficient(p)
			if err != nil {
				return nil, err
			}
			return Smoothing(params), nil
		},
	})
}
