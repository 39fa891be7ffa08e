// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package composition

import (
	"errors"
	"fmt"
)

// ErrorKind classifies definition errors.
type ErrorKind string

const (
	KindArity        ErrorKind = "arity"
	KindExtent       ErrorKind = "extent"
	KindAmbiguous    ErrorKind = "ambiguous-interval"
	KindCache        ErrorKind = "cache"
	KindDuplicate    ErrorKind = "duplicate-placeholder"
	KindIntent       ErrorKind = "intent"
	KindHazard       ErrorKind = "hazard"
	KindIndependence ErrorKind = "independence"
	KindBinding      ErrorKind = "binding"
	KindFunctor      ErrorKind = "functor"
)

// DefinitionError is a composition mistake detected before any data is
// touched.
type DefinitionError struct {
	Kind    ErrorKind
	Subject string
	Msg     string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition error [%s] %s: %s", e.Kind, e.Subject, e.Msg)
}

// Definitionf builds a DefinitionError.
func Definitionf(kind ErrorKind, subject, format string, args ...any) error {
	return &DefinitionError{Kind: kind, Subject: subject, Msg: fmt.Sprintf(format, args...)}
}

// IsDefinitionError reports whether err holds a DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// DefinitionErrors extracts every DefinitionError of a possibly joined error
// tree.
func DefinitionErrors(err error) []*DefinitionError {
	var out []*DefinitionError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if de, ok := e.(*DefinitionError); ok {
			out = append(out, de)
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

// HasKind reports whether err holds a DefinitionError of the given kind.
func HasKind(err error, kind ErrorKind) bool {
	for _, de := range DefinitionErrors(err) {
		if de.Kind == kind {
			return true
		}
	}
	return false
}
