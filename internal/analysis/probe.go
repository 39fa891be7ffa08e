// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the offset probe.
//
// Functor bodies are plain Go closures, so the offsets they use cannot be
// read from a type. Instead every method is run once against a recording
// Evaluation before any data exists. The probe sees every constant offset
// the method uses, every write and every neighbor reduction, and compares
// them with what the functor declared. Accesses that only happen under a
// data-dependent branch escape the probe; debug mode catches those at run
// time.

package analysis

import (
	"errors"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/topology"
)

type probe struct {
	subject string
	from    topology.Location
	params  accessor.ParamList
	locs    []topology.Location
	reach   []extent.Extent
	errs    []error
}

var _ iterdomain.Evaluation = (*probe)(nil)

func (p *probe) fail(kind composition.ErrorKind, format string, args ...any) {
	p.errs = append(p.errs, composition.Definitionf(kind, p.subject, format, args...))
}

func (p *probe) param(a accessor.Accessor) (int, bool) {
	if a.Index < 0 || a.Index >= len(p.params) {
		p.fail(composition.KindFunctor, "access through undeclared parameter index %d", a.Index)
		return 0, false
	}
	return a.Index, true
}

func (p *probe) Get(a accessor.Accessor, di, dj, dk int) float64 {
	n, ok := p.param(a)
	if !ok {
		return 0
	}
	if p.from.Unstructured() && p.locs[n] != p.from {
		p.fail(composition.KindBinding, "parameter %s lives on %s and can only be reached with ForNeighbors", p.params[n].Label(), p.locs[n])
		return 0
	}
	p.reach[n] = p.reach[n].Expand(di, dj, dk)
	return 0
}

func (p *probe) Value(a accessor.Accessor) float64 { return p.Get(a, 0, 0, 0) }

func (p *probe) Set(a accessor.Accessor, _ float64) {
	n, ok := p.param(a)
	if !ok {
		return
	}
	if p.params[n].Intent != accessor.ReadWrite {
		p.fail(composition.KindIntent, "write to read-only parameter %s", p.params[n].Label())
	}
	if p.locs[n] != p.from {
		p.fail(composition.KindBinding, "write to parameter %s on %s from a %s functor", p.params[n].Label(), p.locs[n], p.from)
	}
}

func (p *probe) ForNeighbors(a accessor.Accessor, init float64, op func(acc, v float64) float64) float64 {
	n, ok := p.param(a)
	if !ok {
		return init
	}
	tables := iterdomain.NeighborTables(p.from, p.locs[n])
	if tables == nil {
		p.fail(composition.KindBinding, "no neighbor table from %s to %s for parameter %s", p.from, p.locs[n], p.params[n].Label())
		return init
	}
	acc := init
	for color, list := range tables {
		for _, nb := range list {
			p.reach[n] = p.reach[n].Expand(nb.DI, nb.DJ, nb.DK)
			if color == 0 {
				acc = op(acc, 0)
			}
		}
	}
	return acc
}

func (p *probe) I() int          { return 0 }
func (p *probe) J() int          { return 0 }
func (p *probe) K() int          { return 0 }
func (p *probe) Color() int      { return 0 }
func (p *probe) Recording() bool { return true }

// probeStage runs every method of the stage's functor once and checks the
// recorded accesses against the declared parameters.
func probeStage(s *composition.Stage) error {
	f := s.Functor()
	bindings := s.Bindings()
	p := &probe{
		subject: s.Name(),
		from:    f.Location(),
		params:  f.Params(),
		locs:    make([]topology.Location, len(bindings)),
		reach:   make([]extent.Extent, len(bindings)),
	}
	for n, b := range bindings {
		p.locs[n] = b.Location
	}
	for n, m := range f.Methods() {
		runMethod(p, n, m)
	}
	for n, a := range p.params {
		if !a.Extent.Covers(p.reach[n]) {
			p.fail(composition.KindExtent, "parameter %s is accessed over %s, beyond its declared extent %s", a.Label(), p.reach[n], a.Extent)
		}
	}
	return errors.Join(p.errs...)
}

func runMethod(p *probe, n int, m composition.Method) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(composition.KindFunctor, "method %d panicked while probing: %v", n, r)
		}
	}()
	m.Do(p)
}
