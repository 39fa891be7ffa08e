// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builder

import (
	"context"
	"fmt"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/storage"
	"github.com/vk/stencilgo/internal/topology"
)

// buildFields allocates every declared field and evaluates its initial
// values. The first failing point aborts the field.
func (b *Builder) buildFields(ctx context.Context, p *Program) error {
	logger := ctxlog.FromContext(ctx)
	g := p.Grid
	halo := b.model.Grid.Halo

	for _, fc := range b.model.Fields {
		loc, err := topology.ParseLocation(fc.Location)
		if err != nil {
			return fmt.Errorf("field %q: %w", fc.Name, err)
		}
		fb := storage.NewBuilder(fc.Name).
			Dimensions(g.I.Total, g.J.Total, g.NK()).
			Halos(halo, halo, 0)
		if loc.Unstructured() {
			fb = fb.Location(loc)
		}

		var evalErr error
		if fc.Init != nil {
			evalCtx := evalContext(g)
			fb = fb.Initializer(func(i, j, k, c int) float64 {
				if evalErr != nil {
					return 0
				}
				config.PointVariables(evalCtx, i, j, k, c)
				v, err := config.EvalFloat(fc.Init, evalCtx)
				if err != nil {
					evalErr = fmt.Errorf("at (%d, %d, %d, %d): %w", i, j, k, c, err)
				}
				return v
			})
		}

		f, err := fb.Build()
		if err != nil {
			return err
		}
		if evalErr != nil {
			return fmt.Errorf("field %q: init: %w", fc.Name, evalErr)
		}
		p.fields = append(p.fields, f)
		p.byName[fc.Name] = f
		logger.Debug("Field allocated.", "field", f.String(), "location", loc.String(), "initialized", fc.Init != nil)
	}
	return nil
}
