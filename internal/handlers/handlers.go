// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package handlers stores the boundary handler kinds that program files
// reference by name in `rule` blocks.
package handlers

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/stencilgo/internal/boundary"
)

// Handlers holds all the registered boundary handler kinds.
type Handlers struct {
	all map[string]*RegisteredHandler
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*RegisteredHandler),
	}
}

// RegisteredHandler builds a boundary handler from decoded rule parameters.
type RegisteredHandler struct {
	Description string
	// NewParams returns a pointer to a fresh parameter struct. Nil means the
	// handler takes no parameters.
	NewParams func() any
	// New receives the value NewParams returned, filled from the rule.
	New func(params any) (boundary.Handler, error)
}

// RegisterHandler registers a boundary handler kind.
func (h *Handlers) RegisterHandler(name string, handler *RegisteredHandler) {
	if _, exists := h.all[name]; exists {
		panic(fmt.Sprintf("boundary handler with name '%s' already registered", name))
	}
	slog.Debug("Registering boundary handler.", "name", name)
	h.all[name] = handler
}

// Lookup returns the handler kind registered under name.
func (h *Handlers) Lookup(name string) (*RegisteredHandler, bool) {
	handler, ok := h.all[name]
	return handler, ok
}

// Names returns the registered names in sorted order.
func (h *Handlers) Names() []string {
	names := make([]string, 0, len(h.all))
	for name := range h.all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
