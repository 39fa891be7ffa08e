// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/handlers"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredFunctor builds a functor from decoded stage parameters.
type RegisteredFunctor struct {
	Description string
	// NewParams returns a pointer to a fresh parameter struct. Nil means the
	// functor takes no parameters.
	NewParams func() any
	// New receives the grid the program runs on and the value NewParams
	// returned, filled from the stage.
	New func(g *grid.Grid, params any) (composition.Functor, error)
}

// Registry holds all the registered functors and boundary handlers for a
// single application instance.
type Registry struct {
	functors map[string]*RegisteredFunctor
	handlers *handlers.Handlers
}

// New creates and initializes a new Registry instance. A nil handler store
// is replaced by an empty one.
func New(h *handlers.Handlers) *Registry {
	if h == nil {
		h = handlers.New()
	}
	return &Registry{
		functors: make(map[string]*RegisteredFunctor),
		handlers: h,
	}
}

// RegisterFunctor registers a functor factory under the name stage blocks
// use.
func (r *Registry) RegisterFunctor(name string, f *RegisteredFunctor) {
	if _, exists := r.functors[name]; exists {
		panic(fmt.Sprintf("functor with name '%s' already registered", name))
	}
	slog.Debug("Registering functor.", "name", name)
	r.functors[name] = f
}

// RegisterHandler registers a boundary handler kind under the name rule
// blocks use.
func (r *Registry) RegisterHandler(name string, h *handlers.RegisteredHandler) {
	r.handlers.RegisterHandler(name, h)
}

// Functor returns the functor factory registered under name.
func (r *Registry) Functor(name string) (*RegisteredFunctor, bool) {
	f, ok := r.functors[name]
	return f, ok
}

// Handler returns the boundary handler kind registered under name.
func (r *Registry) Handler(name string) (*handlers.RegisteredHandler, bool) {
	return r.handlers.Lookup(name)
}

// FunctorNames returns the registered functor names in sorted order.
func (r *Registry) FunctorNames() []string {
	names := make([]string, 0, len(r.functors))
	for name := range r.functors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandlerNames returns the registered boundary handler names in sorted order.
func (r *Registry) HandlerNames() []string { return r.handlers.Names() }

// RegisterModules registers every module and validates the result.
func (r *Registry) RegisterModules(ctx context.Context, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	for _, m := range modules {
		m.Register(r)
	}
	logger.Debug("Modules registered.", "modules", len(modules), "functors", len(r.functors), "handlers", len(r.handlers.Names()))
	return r.ValidateRegistry(ctx)
}
