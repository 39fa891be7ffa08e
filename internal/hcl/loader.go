// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/fsutil"
	"github.com/vk/stencilgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL program loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements the config.Loader interface.
func (l *Loader) Extensions() []string { return []string{".hcl"} }

// Load orchestrates the entire HCL loading process. Paths may name files or
// directories; every block of every file is merged into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, l.Extensions()...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.ProgramFile
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		part, err := l.translateProgram(ctx, &root)
		if err != nil {
			return nil, nil, fmt.Errorf("in HCL file %s: %w", file, err)
		}
		if err := model.Merge(part); err != nil {
			return nil, nil, fmt.Errorf("in HCL file %s: %w", file, err)
		}
		logger.Debug("Loaded program file.", "file", file)
	}

	logger.Debug("HCL loading complete.",
		"fields", len(model.Fields),
		"computations", len(model.Computations),
		"boundaries", len(model.Boundaries),
	)
	return model, NewConverter(), nil
}
