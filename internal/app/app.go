// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	hclload "github.com/vk/stencilgo/internal/hcl"
	"github.com/vk/stencilgo/internal/registry"
	"github.com/vk/stencilgo/internal/yamlcfg"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	loaders    []config.Loader
	httpServer *http.Server
}

// DefaultLoaders returns the HCL and YAML program loaders.
func DefaultLoaders() []config.Loader {
	return []config.Loader{hclload.NewLoader(), yamlcfg.NewLoader()}
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// With no loaders the defaults are used; with no modules the core modules
// are registered.
func NewApp(outW io.Writer, cfg *Config, loaders []config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(loaders) == 0 {
		loaders = DefaultLoaders()
	}
	if len(modules) == 0 {
		modules = coreModules
	}

	reg := registry.New(nil)
	if err := reg.RegisterModules(ctx, modules...); err != nil {
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	logger.Debug("All Go modules registered.",
		"modules", len(modules),
		"functors", reg.FunctorNames(),
		"handlers", reg.HandlerNames(),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		loaders:  loaders,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
