// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

/*
Package builder is responsible for turning a loaded program model (defined in
the 'config' package) into a runnable *Program. It acts as the bridge between
the static configuration and the stencil engine.

The construction is a multi-phase process:

 1. Grid: the grid block becomes a *grid.Grid with symmetric horizontal
    halos and a vertical axis cut at the declared splitters.

 2. Fields: every field block becomes a *storage.Field on the grid. Initial
    values are evaluated at every point with i, j, k, c and the grid sizes
    ni, nj, nk bound.

 3. Computations: stage blocks are resolved against the registry, their
    parameters decoded through the config converter and their arguments
    linked to fields or computation-local temporaries. Each computation is
    then compiled with stencil.Compile, so every definition error of every
    computation is reported before any field is touched.

 4. Boundaries: rule blocks are resolved against the registered boundary
    handlers and folded into one boundary.Applicator per target field.

A Program runs its computations in declaration order. Before every iteration
of a computation, all boundaries are applied.
*/
package builder
