// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package yamlcfg

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/stencilgo/internal/config"
)

func translateProgram(file string, f *programFile) (*config.Model, error) {
	m := &config.Model{}
	var errs []error

	if f.Grid != nil {
		if len(f.Grid.Size) != 3 {
			errs = append(errs, fmt.Errorf("grid size needs 3 values (i, j, k), got %d", len(f.Grid.Size)))
		} else {
			m.Grid = &config.Grid{
				Size:      [3]int{f.Grid.Size[0], f.Grid.Size[1], f.Grid.Size[2]},
				Halo:      f.Grid.Halo,
				Splitters: f.Grid.Splitters,
			}
		}
	}

	for _, fd := range f.Fields {
		if fd.Name == "" {
			errs = append(errs, errors.New("field without a name"))
			continue
		}
		init, err := initExpression(file, &fd.Init)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", fd.Name, err))
			continue
		}
		m.Fields = append(m.Fields, &config.Field{Name: fd.Name, Location: fd.Location, Init: init})
	}

	for _, cd := range f.Computations {
		c, err := translateComputation(file, cd)
		if err != nil {
			errs = append(errs, fmt.Errorf("computation %q: %w", cd.Name, err))
			continue
		}
		m.Computations = append(m.Computations, c)
	}

	for _, bd := range f.Boundaries {
		b := &config.Boundary{Field: bd.Field, Sources: bd.Sources}
		for _, rd := range bd.Rules {
			params, err := paramExpressions(file, rd.Params)
			if err != nil {
				errs = append(errs, fmt.Errorf("boundary %q, rule %q: %w", bd.Field, rd.Handler, err))
				continue
			}
			b.Rules = append(b.Rules, &config.BoundaryRule{Handler: rd.Handler, Direction: rd.Direction, Params: params})
		}
		m.Boundaries = append(m.Boundaries, b)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func translateComputation(file string, cd *computationDoc) (*config.Computation, error) {
	if cd.Name == "" {
		return nil, errors.New("computation without a name")
	}
	c := &config.Computation{Name: cd.Name, Iterations: cd.Iterations}
	for _, t := range cd.Temporaries {
		c.Temporaries = append(c.Temporaries, &config.Temporary{Name: t.Name, Location: t.Location})
	}
	for _, md := range cd.MultiStages {
		ms := &config.MultiStage{Order: md.Order, IJCached: md.IJCached}
		for _, k := range md.KCached {
			ms.KCached = append(ms.KCached, &config.KCache{Policy: k.Policy, Fields: k.Fields})
		}
		for _, sd := range md.Stages {
			params, err := paramExpressions(file, sd.Params)
			if err != nil {
				return nil, fmt.Errorf("stage %q: %w", sd.Functor, err)
			}
			ms.Stages = append(ms.Stages, &config.Stage{
				Functor: sd.Functor,
				Args:    sd.Args,
				Extent:  sd.Extent,
				Group:   sd.Group,
				Params:  params,
			})
		}
		c.MultiStages = append(c.MultiStages, ms)
	}
	return c, nil
}

// initExpression parses an init value as an HCL expression. Numbers are
// accepted as they are.
func initExpression(file string, n *yaml.Node) (hcl.Expression, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: init must be a scalar expression", n.Line)
	}
	expr, diags := hclsyntax.ParseExpression([]byte(n.Value), file, hcl.Pos{Line: n.Line, Column: n.Column, Byte: 0})
	if diags.HasErrors() {
		return nil, diags
	}
	return expr, nil
}

// paramExpressions turns YAML parameter values into static expressions.
func paramExpressions(file string, params map[string]yaml.Node) (map[string]hcl.Expression, error) {
	if len(params) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]hcl.Expression, len(params))
	var errs []error
	for _, name := range names {
		n := params[name]
		val, err := nodeValue(&n)
		if err != nil {
			errs = append(errs, fmt.Errorf("parameter %q at line %d: %w", name, n.Line, err))
			continue
		}
		out[name] = hcl.StaticExpr(val, nodeRange(file, &n))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func nodeValue(n *yaml.Node) (cty.Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return cty.NilVal, err
			}
			return cty.NumberFloatVal(f), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return cty.NilVal, err
			}
			return cty.BoolVal(b), nil
		case "!!null":
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return cty.StringVal(n.Value), nil
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = v
		}
		return cty.TupleVal(elems), nil
	case yaml.MappingNode:
		attrs := make(map[string]cty.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[n.Content[i].Value] = v
		}
		return cty.ObjectVal(attrs), nil
	}
	return cty.NilVal, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
}

func nodeRange(file string, n *yaml.Node) hcl.Range {
	start := hcl.Pos{Line: n.Line, Column: n.Column}
	end := hcl.Pos{Line: n.Line, Column: n.Column + len(n.Value)}
	return hcl.Range{Filename: file, Start: start, End: end}
}
