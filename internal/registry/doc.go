// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package registry provides the central "glue" for the module system.
//
// The Registry maps the names used in program files (the label of a `stage`
// or `rule` block) to the Go code that implements them: functor factories
// that build composition.Functor values and boundary handler kinds. Each
// factory declares its parameters as a tagged Go struct, which the config
// converter fills from the block's `params`.
//
// During application startup, the registry is populated by the compiled-in
// modules and then validated, so that a broken parameter struct fails fast
// instead of on the first program that uses it.
package registry
