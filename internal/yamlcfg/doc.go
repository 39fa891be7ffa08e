// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package yamlcfg provides a YAML implementation of the config.Loader
// interface. YAML programs describe the same blocks as HCL ones; initial
// values are HCL expressions written as strings, and parameters are plain
// YAML values. Parameters are decoded with the HCL converter.
package yamlcfg
