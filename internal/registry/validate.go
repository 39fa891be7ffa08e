// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/stencilgo/internal/ctxlog"
)

// TagName is the struct tag that binds a parameter field to its name.
const TagName = "stencil"

var ctyValueType = reflect.TypeOf(cty.Value{})

// ValidateRegistry checks every registered factory: it must have a
// constructor, and its parameter struct must map each tagged field onto a
// cty type exactly once.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.FunctorNames() {
		f := r.functors[name]
		if f.New == nil {
			errs = append(errs, fmt.Sprintf("functor '%s': no constructor", name))
			continue
		}
		errs = append(errs, validateParams("functor", name, f.NewParams)...)
		logger.Debug("Functor validated.", "name", name)
	}
	for _, name := range r.HandlerNames() {
		h, _ := r.handlers.Lookup(name)
		if h.New == nil {
			errs = append(errs, fmt.Sprintf("boundary handler '%s': no constructor", name))
			continue
		}
		errs = append(errs, validateParams("boundary handler", name, h.NewParams)...)
		logger.Debug("Boundary handler validated.", "name", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func validateParams(kind, name string, newParams func() any) []string {
	if newParams == nil {
		return nil
	}
	params := newParams()
	t := reflect.TypeOf(params)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return []string{fmt.Sprintf("%s '%s': parameters must be a pointer to a struct, got %T", kind, name, params)}
	}
	t = t.Elem()

	var errs []string
	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get(TagName), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}
		if seen[tagName] {
			errs = append(errs, fmt.Sprintf("%s '%s': parameter '%s' is bound to more than one field", kind, name, tagName))
			continue
		}
		seen[tagName] = true
		if field.Type == ctyValueType {
			continue
		}
		if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
			errs = append(errs, fmt.Sprintf("%s '%s', parameter '%s': could not imply cty type from Go field type %s: %v", kind, name, tagName, field.Type, err))
		}
	}
	return errs
}
