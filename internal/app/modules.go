// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"github.com/vk/stencilgo/internal/registry"
	"github.com/vk/stencilgo/modules/basic"
	"github.com/vk/stencilgo/modules/boundaries"
	"github.com/vk/stencilgo/modules/diffusion"
	"github.com/vk/stencilgo/modules/tridiagonal"
	"github.com/vk/stencilgo/modules/unstructured"
)

// coreModules is the definitive list of all modules that are compiled into
// the stencilgo binary.
var coreModules = []registry.Module{
	&basic.Module{},
	&diffusion.Module{},
	&tridiagonal.Module{},
	&unstructured.Module{},
	&boundaries.Module{},
}
