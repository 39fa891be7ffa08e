// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"

	"github.com/vk/stencilgo/internal/builder"
	"github.com/vk/stencilgo/internal/ctxlog"
)

// Run loads, builds and runs the program, then writes one summary line per
// field to the app's output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer func() {
			if err := a.closeHealthcheckServer(ctx); err != nil {
				a.logger.Error("Health check server shutdown failed.", "error", err)
			}
		}()
	}

	model, converter, err := a.Load(ctx)
	if err != nil {
		return err
	}

	program, err := builder.New(model, a.registry, converter, a.config.Options()).Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build program: %w", err)
	}
	a.logger.Debug("Program built.", "grid", program.Grid.String(), "computations", len(program.Computations()))

	a.logger.Info("🚀 Starting program run...", "backend", a.config.Backend, "workers", a.config.Workers)
	if err := program.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Program run finished.")

	for _, s := range program.Summaries() {
		fmt.Fprintln(a.outW, s.String())
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
