// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"context"
	"fmt"

	"github.com/vk/stencilgo/internal/boundary"
	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/storage"
)

// Boundary fills the halo of one field before every computation step.
type Boundary struct {
	Field      string
	applicator *boundary.Applicator
	stores     []storage.DataStore
}

// Apply fills the halo of the target field.
func (b *Boundary) Apply() error {
	if err := b.applicator.Apply(b.stores...); err != nil {
		return fmt.Errorf("boundary of field %q: %w", b.Field, err)
	}
	return nil
}

func (b *Builder) buildBoundary(ctx context.Context, p *Program, bd *config.Boundary) (*Boundary, error) {
	logger := ctxlog.FromContext(ctx)
	target, ok := p.byName[bd.Field]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", bd.Field)
	}
	stores := []storage.DataStore{target}
	for _, name := range bd.Sources {
		src, ok := p.byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown source field %q", name)
		}
		stores = append(stores, src)
	}

	handlers := make([]boundary.Handler, 0, len(bd.Rules))
	for n, rule := range bd.Rules {
		h, err := b.buildRule(ctx, p, rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", n, rule.Handler, err)
		}
		if h.Stores > len(stores) {
			return nil, fmt.Errorf("rule %d (%s): handler needs %d fields, boundary provides %d", n, rule.Handler, h.Stores, len(stores))
		}
		handlers = append(handlers, h)
	}

	a, err := boundary.New(p.Grid.Halos(), handlers...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Boundary built.", "field", bd.Field, "rules", len(handlers), "sources", len(bd.Sources))
	return &Boundary{Field: bd.Field, applicator: a, stores: stores}, nil
}

func (b *Builder) buildRule(ctx context.Context, p *Program, rule *config.BoundaryRule) (boundary.Handler, error) {
	factory, ok := b.registry.Handler(rule.Handler)
	if !ok {
		return boundary.Handler{}, fmt.Errorf("unknown boundary handler %q", rule.Handler)
	}

	var pattern boundary.Pattern
	switch len(rule.Direction) {
	case 0:
	case 3:
		for axis, s := range rule.Direction {
			m, err := boundary.ParseMatch(s)
			if err != nil {
				return boundary.Handler{}, err
			}
			pattern[axis] = m
		}
	default:
		return boundary.Handler{}, fmt.Errorf("direction needs 3 entries (i, j, k), got %d", len(rule.Direction))
	}

	params, err := b.decodeParams(ctx, p.Grid, factory.NewParams, rule.Params)
	if err != nil {
		return boundary.Handler{}, fmt.Errorf("params: %w", err)
	}
	h, err := factory.New(params)
	if err != nil {
		return boundary.Handler{}, err
	}
	return boundary.On(pattern[0], pattern[1], pattern[2], h), nil
}
