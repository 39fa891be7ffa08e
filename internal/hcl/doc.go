// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package hcl provides the HCL implementation of the config.Loader and
// config.Converter interfaces.
package hcl
