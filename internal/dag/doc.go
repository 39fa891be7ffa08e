// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package dag holds the stage dependency graph of a multi-stage. Nodes are
// stage ids; an edge from a producer to a consumer records every data hazard
// (read-after-write, write-after-read, write-after-write) that forces the
// two stages to run in their declared order. The analyzer uses it to verify
// that stages marked independent really are.
package dag
