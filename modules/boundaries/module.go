// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package boundaries registers the built-in boundary handler kinds.
package boundaries

import (
	"github.com/vk/stencilgo/internal/boundary"
	"github.com/vk/stencilgo/internal/handlers"
	"github.com/vk/stencilgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// ValueParams defines the arguments of the value handler.
type ValueParams struct {
	Value float64 `stencil:"value,required"`
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("value", &handlers.RegisteredHandler{
		Description: "sets the halo to a constant",
		NewParams:   func() any { return new(ValueParams) },
		New: func(p any) (boundary.Handler, error) {
			return boundary.Value(p.(*ValueParams).Value), nil
		},
	})
	r.RegisterHandler("copy", &handlers.RegisteredHandler{
		Description: "copies the halo from the first source field",
		New:         func(any) (boundary.Handler, error) { return boundary.Copy(), nil },
	})
	r.RegisterHandler("zero_gradient", &handlers.RegisteredHandler{
		Description: "extends the nearest interior value into the halo",
		New:         func(any) (boundary.Handler, error) { return boundary.ZeroGradient(), nil },
	})
}
