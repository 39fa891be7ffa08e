// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package composition

import (
	"fmt"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/extent"
	"github.com/vk/stencilgo/internal/topology"
)

// NoGroup marks a stage outside every independent group.
const NoGroup = -1

// Stage is one functor applied with a fixed placeholder binding.
type Stage struct {
	id      int
	functor Functor
	args    []accessor.Placeholder
	pinned  *extent.Extent
	group   int
}

// NewStage binds placeholders to the parameters of f, in order.
func NewStage(f Functor, args ...accessor.Placeholder) *Stage {
	return &Stage{id: -1, functor: f, args: append([]accessor.Placeholder(nil), args...), group: NoGroup}
}

// WithExtent pins the compute extent of the stage instead of deriving it.
func (s *Stage) WithExtent(e extent.Extent) *Stage {
	s.pinned = &e
	return s
}

// ID is the position of the stage in its pipeline, assigned on validation.
func (s *Stage) ID() int                      { return s.id }
func (s *Stage) Functor() Functor             { return s.functor }
func (s *Stage) Args() []accessor.Placeholder { return s.args }
func (s *Stage) Group() int                   { return s.group }

// Pinned returns the pinned extent, if any.
func (s *Stage) Pinned() (extent.Extent, bool) {
	if s.pinned == nil {
		return extent.Zero, false
	}
	return *s.pinned, true
}

// Location is the location the stage iterates over.
func (s *Stage) Location() topology.Location { return s.functor.Location() }

// Name identifies the stage in diagnostics.
func (s *Stage) Name() string {
	name := "<nil>"
	if s.functor != nil {
		name = s.functor.Name()
	}
	return fmt.Sprintf("%s#%d", name, s.id)
}

// Binding is one accessor and the placeholder bound to it.
type Binding struct {
	Accessor    accessor.Accessor
	Placeholder accessor.Placeholder
	// Location is the effective location of the accessed data.
	Location topology.Location
}

// Bindings pairs each parameter with its placeholder. It assumes the arity
// was validated.
func (s *Stage) Bindings() []Binding {
	params := s.functor.Params()
	out := make([]Binding, len(params))
	for n, a := range params {
		loc := a.Location
		if loc == topology.None {
			loc = s.functor.Location()
		}
		out[n] = Binding{Accessor: a, Placeholder: s.args[n], Location: loc}
	}
	return out
}

// Order is the vertical traversal order of a multi-stage.
type Order uint8

const (
	Parallel Order = iota
	Forward
	Backward
)

func (o Order) String() string {
	switch o {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return "parallel"
}

// ParseOrder maps a program-file order name onto an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "parallel":
		return Parallel, nil
	case "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	}
	return Parallel, fmt.Errorf("unknown execution order %q", s)
}

// MultiStage is an ordered list of stages sharing one vertical order.
type MultiStage struct {
	order  Order
	stages []*Stage
	caches []Cache
	groups int
}

// ExecuteParallel starts a multi-stage whose k planes are independent.
func ExecuteParallel() *MultiStage { return &MultiStage{order: Parallel} }

// ExecuteForward starts a multi-stage swept from the bottom plane up.
func ExecuteForward() *MultiStage { return &MultiStage{order: Forward} }

// ExecuteBackward starts a multi-stage swept from the top plane down.
func ExecuteBackward() *MultiStage { return &MultiStage{order: Backward} }

// Execute starts a multi-stage of the given order.
func Execute(o Order) *MultiStage { return &MultiStage{order: o} }

// Stage appends a stage.
func (m *MultiStage) Stage(f Functor, args ...accessor.Placeholder) *MultiStage {
	m.stages = append(m.stages, NewStage(f, args...))
	return m
}

// StageWithExtent appends a stage with a pinned compute extent.
func (m *MultiStage) StageWithExtent(e extent.Extent, f Functor, args ...accessor.Placeholder) *MultiStage {
	m.stages = append(m.stages, NewStage(f, args...).WithExtent(e))
	return m
}

// Append appends prepared stages.
func (m *MultiStage) Append(stages ...*Stage) *MultiStage {
	m.stages = append(m.stages, stages...)
	return m
}

// Independent appends stages that do not depend on each other. The grouping
// is a hint; the stages still run in the given order.
func (m *MultiStage) Independent(stages ...*Stage) *MultiStage {
	g := m.groups
	m.groups++
	for _, s := range stages {
		s.group = g
		m.stages = append(m.stages, s)
	}
	return m
}

// IJCached requests a horizontal plane cache for each placeholder.
func (m *MultiStage) IJCached(ps ...accessor.Placeholder) *MultiStage {
	for _, p := range ps {
		m.caches = append(m.caches, Cache{Placeholder: p, Kind: IJCache, Policy: Local})
	}
	return m
}

// KCached requests a vertical ring cache with the given policy for each
// placeholder.
func (m *MultiStage) KCached(policy CachePolicy, ps ...accessor.Placeholder) *MultiStage {
	for _, p := range ps {
		m.caches = append(m.caches, Cache{Placeholder: p, Kind: KCache, Policy: policy})
	}
	return m
}

// WithCache requests an arbitrary cache.
func (m *MultiStage) WithCache(c Cache) *MultiStage {
	m.caches = append(m.caches, c)
	return m
}

func (m *MultiStage) Order() Order     { return m.order }
func (m *MultiStage) Stages() []*Stage { return m.stages }
func (m *MultiStage) Caches() []Cache  { return m.caches }

// Groups returns the stages of each independent group.
func (m *MultiStage) Groups() [][]*Stage {
	out := make([][]*Stage, m.groups)
	for _, s := range m.stages {
		if s.group != NoGroup {
			out[s.group] = append(out[s.group], s)
		}
	}
	return out
}

// Pipeline wraps m into a single-pass pipeline.
func (m *MultiStage) Pipeline() *Pipeline { return MultiPass(m) }
