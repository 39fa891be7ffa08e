// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/stencilgo/internal/config"
	"github.com/vk/stencilgo/internal/ctxlog"
)

// TagName is the struct tag that binds a Go field to a parameter name.
const TagName = "stencil"

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

var _ config.Converter = (*Converter)(nil)

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// DecodeParams implements the config.Converter interface. Every parameter
// must match a tagged field; every field tagged `required` must be set.
func (c *Converter) DecodeParams(ctx context.Context, target any, params map[string]hcl.Expression, evalCtx *hcl.EvalContext) error {
	logger := ctxlog.FromContext(ctx)
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a non-nil pointer to a struct, got %T", target)
	}
	st := ptr.Elem()
	known := make(map[string]bool)
	var errs []error

	for i := 0; i < st.NumField(); i++ {
		fieldDef := st.Type().Field(i)
		if !fieldDef.IsExported() {
			continue
		}
		name, required := parseTag(fieldDef.Tag.Get(TagName))
		if name == "" || name == "-" {
			continue
		}
		known[name] = true

		expr, ok := params[name]
		if !ok {
			if required {
				errs = append(errs, fmt.Errorf("missing required parameter %q", name))
			}
			continue
		}
		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			errs = append(errs, fmt.Errorf("parameter %q: %w", name, diags))
			continue
		}
		if err := assign(val, st.Field(i)); err != nil {
			errs = append(errs, fmt.Errorf("parameter %q: %w", name, err))
			continue
		}
		logger.Debug("Decoded parameter.", "name", name, "type", val.Type().FriendlyName())
	}

	var unknown []string
	for name := range params {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, fmt.Errorf("unknown parameter %q", name))
	}
	return errors.Join(errs...)
}

// assign converts val to the field's implied cty type and stores it.
func assign(val cty.Value, field reflect.Value) error {
	if field.Type() == reflect.TypeOf(cty.Value{}) {
		field.Set(reflect.ValueOf(val))
		return nil
	}
	if !val.IsKnown() || val.IsNull() {
		return errors.New("value must be known and not null")
	}
	ty, err := gocty.ImpliedType(field.Interface())
	if err != nil {
		return fmt.Errorf("unsupported Go type %s: %w", field.Type(), err)
	}
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return fmt.Errorf("cannot use %s as %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, field.Addr().Interface())
}

func parseTag(tag string) (name string, required bool) {
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "required" {
			required = true
		}
	}
	return parts[0], required
}
