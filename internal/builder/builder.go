// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/registry"
	"github.com/vk/stencilgo/internal/stencil"
	"github.com/vk/stencilgo/internal/storage"
)

// Builder translates one program model.
type Builder struct {
	model     *config.Model
	registry  *registry.Registry
	converter config.Converter
	opts      stencil.Options
}

// New creates a builder. The registry must already hold every functor and
// boundary handler the model references.
func New(model *config.Model, reg *registry.Registry, conv config.Converter, opts stencil.Options) *Builder {
	return &Builder{model: model, registry: reg, converter: conv, opts: opts}
}

// Build constructs a complete, compiled program from the model.
func (b *Builder) Build(ctx context.Context) (*Program, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting program construction.")

	g, err := buildGrid(b.model.Grid)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: Grid created.", "grid", g.String())

	p := &Program{Grid: g, byName: make(map[string]*storage.Field)}
	if err := b.buildFields(ctx, p); err != nil {
		return nil, err
	}
	logger.Debug("Build: Fields allocated.", "count", len(p.fields))

	var errs []error
	for _, c := range b.model.Computations {
		comp, err := b.buildComputation(ctx, p, c)
		if err != nil {
			errs = append(errs, fmt.Errorf("computation %q: %w", c.Name, err))
			continue
		}
		p.computations = append(p.computations, comp)
	}
	for _, bd := range b.model.Boundaries {
		bnd, err := b.buildBoundary(ctx, p, bd)
		if err != nil {
			errs = append(errs, fmt.Errorf("boundary of field %q: %w", bd.Field, err))
			continue
		}
		p.boundaries = append(p.boundaries, bnd)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	logger.Info("Build: Program construction successful.",
		"fields", len(p.fields),
		"computations", len(p.computations),
		"boundaries", len(p.boundaries),
	)
	return p, nil
}

// evalContext binds the grid sizes. Initial values add the point variables.
func evalContext(g *grid.Grid) *hcl.EvalContext {
	return config.NewEvalContext(map[string]cty.Value{
		"ni": cty.NumberIntVal(int64(g.I.Total)),
		"nj": cty.NumberIntVal(int64(g.J.Total)),
		"nk": cty.NumberIntVal(int64(g.NK())),
	})
}

// decodeParams fills the parameter struct of a factory, or returns nil when
// the factory takes none.
func (b *Builder) decodeParams(ctx context.Context, g *grid.Grid, newParams func() any, params map[string]hcl.Expression) (any, error) {
	if newParams == nil {
		if len(params) > 0 {
			return nil, errors.New("takes no parameters")
		}
		return nil, nil
	}
	target := newParams()
	if err := b.converter.DecodeParams(ctx, target, params, evalContext(g)); err != nil {
		return nil, err
	}
	return target, nil
}
