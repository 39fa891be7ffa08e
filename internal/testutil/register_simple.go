// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"github.com/vk/stencilgo/internal/handlers"
	"github.com/vk/stencilgo/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single functor or boundary handler.
type SimpleModule struct {
	FunctorName string
	Functor     *registry.RegisteredFunctor

	HandlerName string
	Handler     *handlers.RegisteredHandler
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.FunctorName != "" && m.Functor != nil {
		r.RegisterFunctor(m.FunctorName, m.Functor)
	}
	if m.HandlerName != "" && m.Handler != nil {
		r.RegisterHandler(m.HandlerName, m.Handler)
	}
}
