// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package schema holds the HCL decoding targets of program files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Primary Program Structures ---

// Params represents the content of a 'params' block within a stage or rule.
type Params struct {
	Body hcl.Body `hcl:",remain"`
}

// Grid represents the `grid` block: allocated horizontal sizes with the halo
// included, the number of levels and optional vertical splitters.
type Grid struct {
	Size      []int `hcl:"size"`
	Halo      int   `hcl:"halo,optional"`
	Splitters []int `hcl:"splitters,optional"`
}

// Field represents a `field` block. Init is an expression over i, j, k and c.
type Field struct {
	Name     string         `hcl:"name,label"`
	Location string         `hcl:"location,optional"`
	Init     hcl.Expression `hcl:"init,optional"`
}

// Temporary represents a `temporary` block inside a computation.
type Temporary struct {
	Name     string `hcl:"name,label"`
	Location string `hcl:"location,optional"`
}

// KCache represents a `k_cached` block; the label is the cache policy.
type KCache struct {
	Policy string   `hcl:"policy,label"`
	Fields []string `hcl:"fields"`
}

// Stage represents a `stage` block; the label names a registered functor.
type Stage struct {
	Functor string   `hcl:"functor,label"`
	Args    []string `hcl:"args"`
	Extent  []int    `hcl:"extent,optional"`
	Group   string   `hcl:"group,optional"`
	Params  *Params  `hcl:"params,block"`
}

// MultiStage represents a `multi_stage` block.
type MultiStage struct {
	Order    string    `hcl:"order,optional"`
	IJCached []string  `hcl:"ij_cached,optional"`
	KCached  []*KCache `hcl:"k_cached,block"`
	Stages   []*Stage  `hcl:"stage,block"`
}

// Computation represents a `computation` block.
type Computation struct {
	Name        string        `hcl:"name,label"`
	Iterations  int           `hcl:"iterations,optional"`
	Temporaries []*Temporary  `hcl:"temporary,block"`
	MultiStages []*MultiStage `hcl:"multi_stage,block"`
}

// Rule represents a `rule` block; the label names a registered boundary
// handler.
type Rule struct {
	Handler   string   `hcl:"handler,label"`
	Direction []string `hcl:"direction,optional"`
	Params    *Params  `hcl:"params,block"`
}

// Boundary represents a `boundary` block; the label names the target field.
type Boundary struct {
	Field   string   `hcl:"field,label"`
	Sources []string `hcl:"sources,optional"`
	Rules   []*Rule  `hcl:"rule,block"`
}

// ProgramFile represents the top-level structure of a program file. Every
// block is optional so that a program can be split across files.
type ProgramFile struct {
	Grid         []*Grid        `hcl:"grid,block"`
	Fields       []*Field       `hcl:"field,block"`
	Computations []*Computation `hcl:"computation,block"`
	Boundaries   []*Boundary    `hcl:"boundary,block"`
}
