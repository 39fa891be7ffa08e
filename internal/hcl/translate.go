// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/schema"
)

// translateProgram converts one decoded file into a partial model.
func (l *Loader) translateProgram(ctx context.Context, f *schema.ProgramFile) (*config.Model, error) {
	m := &config.Model{}
	switch len(f.Grid) {
	case 0:
	case 1:
		g, err := translateGrid(f.Grid[0])
		if err != nil {
			return nil, err
		}
		m.Grid = g
	default:
		return nil, fmt.Errorf("grid is declared %d times", len(f.Grid))
	}

	for _, field := range f.Fields {
		out := &config.Field{Name: field.Name, Location: field.Location}
		if isExprDefined(ctx, field.Init, "init") {
			out.Init = field.Init
		}
		m.Fields = append(m.Fields, out)
	}
	for _, c := range f.Computations {
		m.Computations = append(m.Computations, l.translateComputation(c))
	}
	for _, b := range f.Boundaries {
		m.Boundaries = append(m.Boundaries, l.translateBoundary(b))
	}
	return m, nil
}

func translateGrid(g *schema.Grid) (*config.Grid, error) {
	if len(g.Size) != 3 {
		return nil, fmt.Errorf("grid size needs 3 values (i, j, k), got %d", len(g.Size))
	}
	return &config.Grid{
		Size:      [3]int{g.Size[0], g.Size[1], g.Size[2]},
		Halo:      g.Halo,
		Splitters: g.Splitters,
	}, nil
}

// translateComputation converts the HCL-specific computation schema into the
// agnostic model.
func (l *Loader) translateComputation(c *schema.Computation) *config.Computation {
	out := &config.Computation{Name: c.Name, Iterations: c.Iterations}
	for _, t := range c.Temporaries {
		out.Temporaries = append(out.Temporaries, &config.Temporary{Name: t.Name, Location: t.Location})
	}
	for _, ms := range c.MultiStages {
		m := &config.MultiStage{Order: ms.Order, IJCached: ms.IJCached}
		for _, k := range ms.KCached {
			m.KCached = append(m.KCached, &config.KCache{Policy: k.Policy, Fields: k.Fields})
		}
		for _, s := range ms.Stages {
			m.Stages = append(m.Stages, &config.Stage{
				Functor: s.Functor,
				Args:    s.Args,
				Extent:  s.Extent,
				Group:   s.Group,
				Params:  l.extractBodyAttributes(s.Params),
			})
		}
		out.MultiStages = append(out.MultiStages, m)
	}
	return out
}

// translateBoundary converts the HCL-specific boundary schema into the
// agnostic model.
func (l *Loader) translateBoundary(b *schema.Boundary) *config.Boundary {
	out := &config.Boundary{Field: b.Field, Sources: b.Sources}
	for _, r := range b.Rules {
		out.Rules = append(out.Rules, &config.BoundaryRule{
			Handler:   r.Handler,
			Direction: r.Direction,
			Params:    l.extractBodyAttributes(r.Params),
		})
	}
	return out
}

// extractBodyAttributes converts a params block body into a map of expressions.
func (l *Loader) extractBodyAttributes(p *schema.Params) map[string]hcl.Expression {
	if p == nil || p.Body == nil {
		return nil
	}
	attrs, _ := p.Body.JustAttributes()
	if attrs == nil {
		return nil
	}
	exprMap := make(map[string]hcl.Expression)
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap
}

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		logger.Debug("Expression is nil, considering it undefined.", "attribute", attrName)
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)

	return isDefined
}
