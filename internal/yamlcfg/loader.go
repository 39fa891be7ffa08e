// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package yamlcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
	"github.com/vk/stencilgo/internal/fsutil"
	hclload "github.com/vk/stencilgo/internal/hcl"
)

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new YAML program loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements the config.Loader interface.
func (l *Loader) Extensions() []string { return []string{".yaml", ".yml"} }

// Load reads every YAML program file under paths into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, l.Extensions()...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	model := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read YAML file %s: %w", file, err)
		}

		var root programFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("failed to decode YAML file %s: %w", file, err)
		}

		part, err := translateProgram(file, &root)
		if err != nil {
			return nil, nil, fmt.Errorf("in YAML file %s: %w", file, err)
		}
		if err := model.Merge(part); err != nil {
			return nil, nil, fmt.Errorf("in YAML file %s: %w", file, err)
		}
		logger.Debug("Loaded program file.", "file", file)
	}

	logger.Debug("YAML loading complete.",
		"fields", len(model.Fields),
		"computations", len(model.Computations),
		"boundaries", len(model.Boundaries),
	)
	return model, hclload.NewConverter(), nil
}
