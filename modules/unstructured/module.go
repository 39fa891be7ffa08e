// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package unstructured registers neighbor reductions over the triangular
// grid.
package unstructured

import (
	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/registry"
	"github.com/vk/stencilgo/internal/topology"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params selects the locations of a reduction.
type Params struct {
	// From is the location the functor runs on and writes.
	From string `stencil:"from"`
	// To is the location of the neighbors that are reduced.
	To string `stencil:"to"`
}

// DefaultParams reduce cells over their neighboring cells.
func DefaultParams() *Params {
	return &Params{From: topology.Cells.String(), To: topology.Cells.String()}
}

// NeighborSum writes the sum of in over the neighbors of every element.
func NeighborSum(from, to topology.Location) *composition.Definition {
	return reduction("neighbor_sum", from, to, func(sum float64, _ int) float64 { return sum })
}

// NeighborMean writes the mean of in over the neighbors of every element.
func NeighborMean(from, to topology.Location) *composition.Definition {
	return reduction("neighbor_mean", from, to, func(sum float64, n int) float64 { return sum / float64(n) })
}

func reduction(name string, from, to topology.Location, finish func(sum float64, n int) float64) *composition.Definition {
	in := accessor.In(0, topology.Reach(from, to)).WithLocation(to).Named("in")
	out := accessor.InOut(1).Named("out")
	return composition.NewFunctor(name, accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
		n := 0
		sum := ev.ForNeighbors(in, 0, func(acc, v float64) float64 {
			n++
			return acc + v
		})
		ev.Set(out, finish(sum, n))
	})).OnLocation(from)
}

func locations(p any) (topology.Location, topology.Location, error) {
	params := p.(*Params)
	from, err := topology.ParseLocation(params.From)
	if err != nil {
		return 0, 0, err
	}
	to, err := topology.ParseLocation(params.To)
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

// Register registers the functors with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunctor("neighbor_sum", &registry.RegisteredFunctor{
		Description: "out = sum of in over the neighbors of each element",
		NewParams:   func() any { return DefaultParams() },
		New: func(_ *grid.Grid, p any) (composition.Functor, error) {
			from, to, err := locations(p)
			if err != nil {
				return nil, err
			}
			return NeighborSum(from, to), nil
		},
	})
	r.RegisterFunctor("neighbor_mean", &registry.RegisteredFunctor{
		Description: "out = mean of in over the neighbors of each element",
		NewParams:   func() any { return DefaultParams() },
		New: func(_ *grid.Grid, p any) (composition.Functor, error) {
			from, to, err := locations(p)
			if err != nil {
				return nil, err
			}
			return NeighborMean(from, to), nil
		},
	})
}
