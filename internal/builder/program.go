// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/storage"
)

// Program is a built program: a grid, the fields on it and the compiled
// computations over them.
type Program struct {
	Grid *grid.Grid

	fields       []*storage.Field
	byName       map[string]*storage.Field
	computations []*Computation
	boundaries   []*Boundary
}

// Field returns the field with the given name.
func (p *Program) Field(name string) (*storage.Field, bool) {
	f, ok := p.byName[name]
	return f, ok
}

// Fields returns the fields in declaration order.
func (p *Program) Fields() []*storage.Field { return p.fields }

// Computations returns the computations in declaration order.
func (p *Program) Computations() []*Computation { return p.computations }

// Boundaries returns the boundaries in declaration order.
func (p *Program) Boundaries() []*Boundary { return p.boundaries }

// ApplyBoundaries fills the halo of every field that has a boundary.
func (p *Program) ApplyBoundaries() error {
	for _, b := range p.boundaries {
		if err := b.Apply(); err != nil {
			return err
		}
	}
	return nil
}

// Run runs every computation for its number of iterations, applying the
// boundaries before each iteration and once more at the end.
func (p *Program) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for _, c := range p.computations {
		logger.Debug("Computation starting.", "computation", c.Name, "iterations", c.Iterations)
		for it := range c.Iterations {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.ApplyBoundaries(); err != nil {
				return err
			}
			if err := c.Run(ctx); err != nil {
				return fmt.Errorf("computation %q, iteration %d: %w", c.Name, it, err)
			}
		}
		logger.Info("Computation finished.", "computation", c.Name, "iterations", c.Iterations)
	}
	return p.ApplyBoundaries()
}

// Summary describes the interior values of one field.
type Summary struct {
	Field          string
	Min, Max, Mean float64
	Points         int
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: min=%g max=%g mean=%g points=%d", s.Field, s.Min, s.Max, s.Mean, s.Points)
}

// Summaries returns one summary per field, over the interior and every
// color.
func (p *Program) Summaries() []Summary {
	out := make([]Summary, 0, len(p.fields))
	for _, f := range p.fields {
		s := Summary{Field: f.Name(), Min: math.Inf(1), Max: math.Inf(-1)}
		sum := 0.0
		for i := p.Grid.I.Begin; i <= p.Grid.I.End; i++ {
			for j := p.Grid.J.Begin; j <= p.Grid.J.End; j++ {
				for k := range p.Grid.NK() {
					for c := range f.Colors() {
						v := f.AtColor(i, j, k, c)
						s.Min = math.Min(s.Min, v)
						s.Max = math.Max(s.Max, v)
						sum += v
						s.Points++
					}
				}
			}
		}
		if s.Points > 0 {
			s.Mean = sum / float64(s.Points)
		}
		out = append(out, s)
	}
	return out
}
