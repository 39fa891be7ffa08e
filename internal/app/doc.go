// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: load the
// program files, build the program against the functor registry, run it and
// report field summaries. It is decoupled from any specific entrypoint like a
// CLI or server.
package app
