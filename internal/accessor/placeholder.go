// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package accessor

import (
	"fmt"

	"github.com/vk/stencilgo/internal/topology"
)

// Kind separates caller-provided fields from engine-allocated temporaries.
type Kind uint8

const (
	Field Kind = iota
	Temporary
)

func (k Kind) String() string {
	if k == Temporary {
		return "temporary"
	}
	return "field"
}

// Placeholder is a named slot in a composition. Field placeholders are bound
// to caller stores by position; temporaries are allocated by the engine.
type Placeholder struct {
	ID       int
	Name     string
	Kind     Kind
	Location topology.Location
}

// Arg is the placeholder for the store passed at position id.
func Arg(id int, name ...string) Placeholder {
	p := Placeholder{ID: id, Kind: Field}
	if len(name) > 0 {
		p.Name = name[0]
	} else {
		p.Name = fmt.Sprintf("arg%d", id)
	}
	return p
}

// On returns a copy of p living on an unstructured location.
func (p Placeholder) On(l topology.Location) Placeholder {
	p.Location = l
	return p
}

// IsTemporary reports whether the engine owns the placeholder's data.
func (p Placeholder) IsTemporary() bool { return p.Kind == Temporary }

func (p Placeholder) String() string {
	return fmt.Sprintf("%s %q (id %d)", p.Kind, p.Name, p.ID)
}
