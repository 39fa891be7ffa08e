// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/fsutil"
)

// Load reads the configured program paths with every loader that finds
// files of its format and merges the results into one model.
func (a *App) Load(ctx context.Context) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading program...", "paths", a.config.ProgramPaths)

	model := &config.Model{}
	var converter config.Converter
	found := 0
	for _, loader := range a.loaders {
		files, err := fsutil.CollectFiles(a.config.ProgramPaths, loader.Extensions()...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load program: %w", err)
		}
		if len(files) == 0 {
			continue
		}
		found += len(files)

		part, conv, err := loader.Load(ctx, files...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load program: %w", err)
		}
		if err := model.Merge(part); err != nil {
			return nil, nil, fmt.Errorf("failed to merge program files: %w", err)
		}
		if converter == nil {
			converter = conv
		}
		logger.Debug("Program files loaded.", "extensions", loader.Extensions(), "files", len(files))
	}
	if found == 0 {
		return nil, nil, errors.New("no program files found")
	}

	logger.Info("Program loaded.",
		"files", found,
		"fields", len(model.Fields),
		"computations", len(model.Computations),
		"boundaries", len(model.Boundaries),
	)
	return model, converter, nil
}
