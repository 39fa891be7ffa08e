// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package composition

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/topology"
)

// Computable is anything that can be run: a single multi-stage or a
// multi-pass pipeline.
type Computable interface {
	Pipeline() *Pipeline
}

// Pipeline is a sequence of multi-stages executed strictly one after the
// other.
type Pipeline struct {
	passes    []*MultiStage
	validated bool
	err       error
}

// MultiPass composes multi-stages into a pipeline.
func MultiPass(ms ...*MultiStage) *Pipeline {
	return &Pipeline{passes: ms}
}

func (p *Pipeline) Pipeline() *Pipeline   { return p }
func (p *Pipeline) Passes() []*MultiStage { return p.passes }

// Stages returns every stage in execution order.
func (p *Pipeline) Stages() []*Stage {
	var out []*Stage
	for _, m := range p.passes {
		out = append(out, m.stages...)
	}
	return out
}

// Placeholders returns every placeholder bound by a stage, ordered by id.
func (p *Pipeline) Placeholders() []accessor.Placeholder {
	seen := map[int]accessor.Placeholder{}
	for _, m := range p.passes {
		for _, s := range m.stages {
			for _, a := range s.args {
				seen[a.ID] = a
			}
		}
	}
	out := make([]accessor.Placeholder, 0, len(seen))
	for _, ph := range seen {
		out = append(out, ph)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Validate checks the structural rules of the pipeline and numbers its
// stages. Every violation is reported; the result is a join of
// DefinitionErrors. Validation runs once; later calls return the first
// result.
func (p *Pipeline) Validate() error {
	if p.validated {
		return p.err
	}
	p.validated = true

	var errs []error
	if len(p.passes) == 0 {
		errs = append(errs, Definitionf(KindArity, "pipeline", "no multi-stage"))
	}
	placeholders := map[int]accessor.Placeholder{}
	claim := func(ph accessor.Placeholder, where string) {
		prev, ok := placeholders[ph.ID]
		if !ok {
			placeholders[ph.ID] = ph
			return
		}
		if prev != ph {
			errs = append(errs, Definitionf(KindDuplicate, where, "placeholder id %d names both %s and %s", ph.ID, prev, ph))
		}
	}

	seenStages := map[*Stage]bool{}
	id := 0
	for n, m := range p.passes {
		if m == nil || len(m.stages) == 0 {
			errs = append(errs, Definitionf(KindArity, fmt.Sprintf("multi-stage %d", n), "no stage"))
			continue
		}
		for _, s := range m.stages {
			if seenStages[s] {
				errs = append(errs, Definitionf(KindDuplicate, s.Name(), "stage appears twice in the pipeline"))
				continue
			}
			seenStages[s] = true
			s.id = id
			id++
			if err := ValidateFunctor(s.functor); err != nil {
				errs = append(errs, err)
				continue
			}
			params := s.functor.Params()
			if len(params) != len(s.args) {
				errs = append(errs, Definitionf(KindArity, s.Name(), "functor %s takes %d parameters, %d placeholders bound",
					functorLabel(s.functor), len(params), len(s.args)))
				continue
			}
			for _, b := range s.Bindings() {
				claim(b.Placeholder, s.Name())
				if err := checkBinding(s, b); err != nil {
					errs = append(errs, err)
				}
			}
		}
		for _, c := range m.caches {
			claim(c.Placeholder, fmt.Sprintf("multi-stage %d", n))
		}
	}
	p.err = errors.Join(errs...)
	return p.err
}

func checkBinding(s *Stage, b Binding) error {
	from := s.functor.Location()
	if b.Placeholder.Location != b.Location {
		return Definitionf(KindBinding, s.Name(), "parameter %s expects data on %s, placeholder %s lives on %s",
			b.Accessor.Label(), b.Location, b.Placeholder, b.Placeholder.Location)
	}
	if from == topology.None && b.Location != topology.None {
		return Definitionf(KindBinding, s.Name(), "structured functor cannot access %s data", b.Location)
	}
	if from != b.Location && !topology.Connected(from, b.Location) {
		return Definitionf(KindBinding, s.Name(), "no neighbor table from %s to %s", from, b.Location)
	}
	return nil
}

// Scope hands out temporary placeholders to a composition. Temporary ids
// follow the ids of the bound stores.
type Scope struct {
	next  int
	temps []accessor.Placeholder
}

// NewScope creates a scope for a computation over n stores.
func NewScope(n int) *Scope { return &Scope{next: n} }

// Temporary declares an engine-allocated placeholder.
func (s *Scope) Temporary(name string, loc ...topology.Location) accessor.Placeholder {
	ph := accessor.Placeholder{ID: s.next, Name: name, Kind: accessor.Temporary}
	if len(loc) > 0 {
		ph.Location = loc[0]
	}
	s.next++
	s.temps = append(s.temps, ph)
	return ph
}

// Temporaries returns the temporaries declared so far.
func (s *Scope) Temporaries() []accessor.Placeholder { return s.temps }
