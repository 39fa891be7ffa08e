// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the two halves of a stage's data binding: the accessor,
// which is what a functor declares about one of its parameters, and the
// placeholder, which is what a composition binds to that parameter.
//
// Accessors are positional. A functor lists them in parameter order and the
// composition binds placeholders in the same order, so the accessor index is
// the only link between the two.

package accessor

import (
	"fmt"

	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/topology"
)

// Intent states whether a functor only reads a parameter or also writes it.
type Intent uint8

const (
	ReadOnly Intent = iota
	ReadWrite
)

func (i Intent) String() string {
	if i == ReadWrite {
		return "inout"
	}
	return "in"
}

// Accessor is a functor's declaration of one parameter.
type Accessor struct {
	Name   string
	Index  int
	Extent extent.Extent
	Intent Intent
	// Location is the location of the bound data. None means the location
	// of the functor itself.
	Location topology.Location
}

// In declares a read-only parameter. The optional extent defaults to zero.
func In(index int, ext ...extent.Extent) Accessor {
	return Accessor{Index: index, Extent: first(ext), Intent: ReadOnly}
}

// InOut declares a parameter the functor writes. Writes happen at the zero
// offset only; the extent bounds the reads.
func InOut(index int, ext ...extent.Extent) Accessor {
	return Accessor{Index: index, Extent: first(ext), Intent: ReadWrite}
}

func first(ext []extent.Extent) extent.Extent {
	if len(ext) == 0 {
		return extent.Zero
	}
	return ext[0]
}

// WithLocation returns a copy of a bound to data on another location of the
// unstructured grid.
func (a Accessor) WithLocation(l topology.Location) Accessor {
	a.Location = l
	return a
}

// Named returns a copy of a carrying a name for diagnostics.
func (a Accessor) Named(name string) Accessor {
	a.Name = name
	return a
}

// Label is the accessor name, or its index when unnamed.
func (a Accessor) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("#%d", a.Index)
}

func (a Accessor) String() string {
	return fmt.Sprintf("%s(%s %s)", a.Intent, a.Label(), a.Extent)
}

// ParamList is the ordered parameter list of a functor.
type ParamList []Accessor

// Validate checks that the indices run 0..n-1 in order and that every
// declared extent contains the origin.
func (p ParamList) Validate() error {
	for pos, a := range p {
		if a.Index != pos {
			return fmt.Errorf("parameter %d declares index %d; indices must be 0..%d in order", pos, a.Index, len(p)-1)
		}
		if err := a.Extent.Validate(); err != nil {
			return fmt.Errorf("parameter %s: %w", a.Label(), err)
		}
	}
	return nil
}

// Arity is the number of parameters.
func (p ParamList) Arity() int { return len(p) }
