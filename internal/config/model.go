// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of a program: the
// grid, the fields living on it, the computations over them and the
// boundary conditions applied before each computation step.
type Model struct {
	Grid         *Grid
	Fields       []*Field
	Computations []*Computation
	Boundaries   []*Boundary
}

// Grid describes the iteration space.
type Grid struct {
	// Size is the allocated size in i and j, halo included, and the number
	// of vertical levels.
	Size [3]int
	Halo int
	// Splitters are the inner vertical splitter positions, strictly between
	// 0 and the number of levels. Empty means a single interval.
	Splitters []int
}

// Field is a named data store.
type Field struct {
	Name     string
	Location string
	// Init is evaluated at every point with i, j, k and c bound. Nil leaves
	// the field at zero.
	Init hcl.Expression
}

// Computation is a named pipeline of multi-stages.
type Computation struct {
	Name        string
	Iterations  int
	Temporaries []*Temporary
	MultiStages []*MultiStage
}

// Temporary is an engine-allocated placeholder local to a computation.
type Temporary struct {
	Name     string
	Location string
}

// MultiStage is the format-agnostic representation of a `multi_stage` block.
type MultiStage struct {
	Order    string
	IJCached []string
	KCached  []*KCache
	Stages   []*Stage
}

// KCache requests vertical caches with one policy for some placeholders.
type KCache struct {
	Policy string
	Fields []string
}

// Stage applies a registered functor to named placeholders.
type Stage struct {
	Functor string
	Args    []string
	// Extent, when set, pins the stage's compute extent.
	Extent []int
	// Group marks consecutive stages declared independent of each other.
	Group  string
	Params map[string]hcl.Expression
}

// Boundary fills the halo of one field.
type Boundary struct {
	Field string
	// Sources are extra fields handed to the handlers after the target.
	Sources []string
	Rules   []*BoundaryRule
}

// BoundaryRule binds a registered boundary handler to a direction pattern.
type BoundaryRule struct {
	Handler string
	// Direction holds one of "-", "0", "+" or "*" per axis. Empty matches
	// every direction.
	Direction []string
	Params    map[string]hcl.Expression
}

// Merge folds o into m. The grid may be declared only once and names must
// stay unique.
func (m *Model) Merge(o *Model) error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.Grid != nil {
		if m.Grid != nil {
			errs = append(errs, errors.New("grid is declared more than once"))
		} else {
			m.Grid = o.Grid
		}
	}

	fields := map[string]bool{}
	for _, f := range m.Fields {
		fields[f.Name] = true
	}
	for _, f := range o.Fields {
		if fields[f.Name] {
			errs = append(errs, fmt.Errorf("field %q is declared more than once", f.Name))
			continue
		}
		fields[f.Name] = true
		m.Fields = append(m.Fields, f)
	}

	comps := map[string]bool{}
	for _, c := range m.Computations {
		comps[c.Name] = true
	}
	for _, c := range o.Computations {
		if comps[c.Name] {
			errs = append(errs, fmt.Errorf("computation %q is declared more than once", c.Name))
			continue
		}
		comps[c.Name] = true
		m.Computations = append(m.Computations, c)
	}

	m.Boundaries = append(m.Boundaries, o.Boundaries...)
	return errors.Join(errs...)
}

// Field returns the field with the given name.
func (m *Model) Field(name string) (*Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}
