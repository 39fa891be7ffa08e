// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// functions are available to every program expression.
var functions = map[string]function.Function{
	"abs":   stdlib.AbsoluteFunc,
	"ceil":  stdlib.CeilFunc,
	"floor": stdlib.FloorFunc,
	"max":   stdlib.MaxFunc,
	"min":   stdlib.MinFunc,
	"pow":   stdlib.PowFunc,
}

// NewEvalContext returns an evaluation context with the program functions
// and the given variables.
func NewEvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{Variables: vars, Functions: functions}
}

// PointVariables binds i, j, k and c for the evaluation of initial values.
func PointVariables(ctx *hcl.EvalContext, i, j, k, c int) {
	ctx.Variables["i"] = cty.NumberIntVal(int64(i))
	ctx.Variables["j"] = cty.NumberIntVal(int64(j))
	ctx.Variables["k"] = cty.NumberIntVal(int64(k))
	ctx.Variables["c"] = cty.NumberIntVal(int64(c))
}

// EvalFloat evaluates expr to a number.
func EvalFloat(expr hcl.Expression, ctx *hcl.EvalContext) (float64, error) {
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("evaluating expression at %s: %w", expr.Range(), diags)
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		return 0, fmt.Errorf("expression at %s: %w", expr.Range(), err)
	}
	return f, nil
}
