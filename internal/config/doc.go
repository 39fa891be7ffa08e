// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package config defines the format-agnostic program model, along with the
// core interfaces (Loader, Converter) for loading and interpreting programs
// from various sources.
//
// The `config.Model` is the single source of truth for the `builder`
// package. Concrete implementations of the interfaces, such as for HCL and
// YAML, are provided in separate packages.
package config
