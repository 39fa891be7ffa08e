// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines functors, the user code of a stencil computation.
//
// A functor declares its parameters once and provides one or more methods,
// each bound to a vertical interval. At every k plane the engine calls the
// method of the most specific interval containing that plane; planes no
// interval covers are skipped. A method without an interval covers the
// whole axis.

package composition

import (
	"errors"
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/axis"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/topology"
)

// Method is the update rule of a functor on one vertical interval.
type Method struct {
	// Interval is nil for a method covering the whole axis.
	Interval *axis.Interval
	Do       func(iterdomain.Evaluation)
}

// Do declares a method over the whole axis.
func Do(fn func(iterdomain.Evaluation)) Method { return Method{Do: fn} }

// DoOn declares a method over one interval.
func DoOn(iv axis.Interval, fn func(iterdomain.Evaluation)) Method {
	return Method{Interval: &iv, Do: fn}
}

// Functor is a local update rule applied at every point of a stage's
// compute region.
//
// Every method body also runs once during compilation, against an
// Evaluation for which iterdomain.Recording is true, so the accesses it
// makes can be checked against Params.
type Functor interface {
	Name() string
	Params() accessor.ParamList
	// Location is the location the functor iterates over. None for
	// structured grids.
	Location() topology.Location
	Methods() []Method
}

// Definition is the plain Functor implementation.
type Definition struct {
	name     string
	params   accessor.ParamList
	location topology.Location
	methods  []Method
}

var _ Functor = (*Definition)(nil)

// NewFunctor defines a structured functor.
func NewFunctor(name string, params accessor.ParamList, methods ...Method) *Definition {
	return &Definition{name: name, params: params, methods: methods}
}

// OnLocation moves the functor onto an unstructured location.
func (d *Definition) OnLocation(l topology.Location) *Definition {
	d.location = l
	return d
}

func (d *Definition) Name() string                { return d.name }
func (d *Definition) Params() accessor.ParamList  { return d.params }
func (d *Definition) Location() topology.Location { return d.location }
func (d *Definition) Methods() []Method           { return d.methods }

// ValidateFunctor checks the parameter list and methods of f.
func ValidateFunctor(f Functor) error {
	if f == nil {
		return Definitionf(KindFunctor, "stage", "nil functor")
	}
	if err := f.Params().Validate(); err != nil {
		return Definitionf(KindFunctor, f.Name(), "%v", err)
	}
	if len(f.Methods()) == 0 {
		return Definitionf(KindFunctor, f.Name(), "functor declares no method")
	}
	for n, m := range f.Methods() {
		if m.Do == nil {
			return Definitionf(KindFunctor, f.Name(), "method %d has no body", n)
		}
		if m.Interval != nil {
			if _, err := axis.NewInterval(m.Interval.From, m.Interval.To); err != nil {
				return Definitionf(KindFunctor, f.Name(), "method %d: %v", n, err)
			}
		}
	}
	return nil
}

// ResolveMethods maps the methods of f onto the planes of an axis.
func ResolveMethods(f Functor, ax *axis.Axis) ([]axis.Segment, error) {
	declared := make([]axis.Interval, len(f.Methods()))
	for n, m := range f.Methods() {
		if m.Interval == nil {
			declared[n] = ax.Full()
		} else {
			declared[n] = *m.Interval
		}
	}
	segs, err := axis.Resolve(ax, declared)
	if err != nil {
		var amb *axis.AmbiguityError
		if errors.As(err, &amb) {
			return nil, Definitionf(KindAmbiguous, f.Name(), "%v", amb)
		}
		return nil, Definitionf(KindFunctor, f.Name(), "%v", err)
	}
	return segs, nil
}

func functorLabel(f Functor) string {
	if f == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q", f.Name())
}
