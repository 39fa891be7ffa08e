// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific program loader.
type Loader interface {
	// Extensions lists the file extensions the loader reads, dot included.
	Extensions() []string
	// Load reads the given files, translates them into the format-agnostic
	// model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter binds raw program values to Go types.
type Converter interface {
	// DecodeParams decodes functor or handler parameters into the struct
	// target points to. Fields are matched by their `stencil` tag; fields
	// without a matching parameter keep their value unless tagged required.
	DecodeParams(ctx context.Context, target any, params map[string]hcl.Expression, evalCtx *hcl.EvalContext) error

	// ToCtyValue converts a native Go value into its cty equivalent.
	ToCtyValue(v any) (cty.Value, error)
}
