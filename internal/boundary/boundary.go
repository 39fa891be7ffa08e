// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package boundary fills the halo of data stores.
//
// The halo around the interior splits into 26 regions, one per direction
// (minus, zero or plus along each axis, excluding the interior itself).
// Handlers are registered against patterns that fix some axes and leave
// others open. For each direction the most specific matching handler wins;
// a tie is a definition error and a direction nothing matches is left
// untouched.
package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/storage"
)

// Sign is the position of a region along one axis.
type Sign int8

const (
	Minus Sign = -1
	Zero  Sign = 0
	Plus  Sign = 1
)

func (s Sign) String() string {
	switch s {
	case Minus:
		return "-"
	case Plus:
		return "+"
	}
	return "0"
}

// Direction is one of the 26 halo regions.
type Direction [3]Sign

func (d Direction) String() string {
	return fmt.Sprintf("(%s,%s,%s)", d[0], d[1], d[2])
}

// Directions lists every halo region in a fixed order.
func Directions() []Direction {
	out := make([]Direction, 0, 26)
	signs := []Sign{Minus, Zero, Plus}
	for _, i := range signs {
		for _, j := range signs {
			for _, k := range signs {
				if d := (Direction{i, j, k}); d != (Direction{}) {
					out = append(out, d)
				}
			}
		}
	}
	return out
}

// Match constrains one axis of a pattern.
type Match int8

const (
	Any Match = iota
	IsMinus
	IsZero
	IsPlus
)

func (m Match) matches(s Sign) bool {
	switch m {
	case IsMinus:
		return s == Minus
	case IsZero:
		return s == Zero
	case IsPlus:
		return s == Plus
	}
	return true
}

func (m Match) String() string {
	switch m {
	case IsMinus:
		return "-"
	case IsZero:
		return "0"
	case IsPlus:
		return "+"
	}
	return "*"
}

// ParseMatch maps "-", "0", "+" or "*" onto a Match.
func ParseMatch(s string) (Match, error) {
	switch s {
	case "-":
		return IsMinus, nil
	case "0":
		return IsZero, nil
	case "+":
		return IsPlus, nil
	case "*", "":
		return Any, nil
	}
	return Any, fmt.Errorf("unknown direction match %q (want -, 0, + or *)", s)
}

// Pattern selects directions.
type Pattern [3]Match

// Specificity is the number of fixed axes.
func (p Pattern) Specificity() int {
	n := 0
	for _, m := range p {
		if m != Any {
			n++
		}
	}
	return n
}

// Matches reports whether d is selected by p.
func (p Pattern) Matches(d Direction) bool {
	return p[0].matches(d[0]) && p[1].matches(d[1]) && p[2].matches(d[2])
}

func (p Pattern) String() string {
	return fmt.Sprintf("(%s,%s,%s)", p[0], p[1], p[2])
}

// Point is a halo point being filled.
type Point struct {
	Direction Direction
	I, J, K   int
	Halos     [3]grid.HaloDescriptor
}

// Nearest is the interior point closest to p.
func (p Point) Nearest() (int, int, int) {
	clamp := func(v int, h grid.HaloDescriptor) int { return min(max(v, h.Begin), h.End) }
	return clamp(p.I, p.Halos[0]), clamp(p.J, p.Halos[1]), clamp(p.K, p.Halos[2])
}

// HandlerFunc fills one halo point. The first store is the target.
type HandlerFunc func(p Point, stores []storage.DataStore)

// Handler is a named handler bound to a pattern.
type Handler struct {
	Name    string
	Pattern Pattern
	// Stores is the minimum number of stores Apply must receive.
	Stores int
	Fn     HandlerFunc
}

// On binds fn to the directions matching (i, j, k).
func On(i, j, k Match, h Handler) Handler {
	h.Pattern = Pattern{i, j, k}
	return h
}

// Applicator dispatches halo points to handlers.
type Applicator struct {
	halos [3]grid.HaloDescriptor
	table map[Direction]Handler
}

// New builds the dispatch table for the given halos. Equally specific
// handlers matching the same direction are reported as ambiguous.
func New(halos [3]grid.HaloDescriptor, handlers ...Handler) (*Applicator, error) {
	a := &Applicator{halos: halos, table: map[Direction]Handler{}}
	var errs []error
	for _, d := range Directions() {
		best := -1
		var tied []string
		for _, h := range handlers {
			if !h.Pattern.Matches(d) {
				continue
			}
			switch s := h.Pattern.Specificity(); {
			case s > best:
				best = s
				a.table[d] = h
				tied = []string{h.Name + h.Pattern.String()}
			case s == best:
				tied = append(tied, h.Name+h.Pattern.String())
			}
		}
		if len(tied) > 1 {
			errs = append(errs, composition.Definitionf(composition.KindAmbiguous, "boundary direction "+d.String(),
				"handlers %s are equally specific", strings.Join(tied, ", ")))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return a, nil
}

// Handler returns the handler selected for d.
func (a *Applicator) Handler(d Direction) (Handler, bool) {
	h, ok := a.table[d]
	return h, ok
}

func (a *Applicator) span(axis int, s Sign) (int, int) {
	h := a.halos[axis]
	switch s {
	case Minus:
		return h.Begin - h.Minus, h.Begin - 1
	case Plus:
		return h.End + 1, h.End + h.Plus
	}
	return h.Begin, h.End
}

// Apply fills every halo point of the target store, the first of stores,
// exactly once. Directions without a handler are skipped. Stores whose
// device copy is newer are refused.
func (a *Applicator) Apply(stores ...storage.DataStore) error {
	if len(stores) == 0 {
		return errors.New("boundary: no store to fill")
	}
	for _, ds := range stores {
		if ds.State() == storage.DeviceNewer {
			return fmt.Errorf("boundary: store %s: device copy is newer than the host copy; call SyncToHost first", ds.Name())
		}
		dims := ds.Dims()
		for axis, h := range a.halos {
			if dims[axis] < h.Total {
				return fmt.Errorf("boundary: store %s of size %v is smaller than the halo descriptors", ds.Name(), dims)
			}
		}
	}
	for _, d := range Directions() {
		h, ok := a.table[d]
		if !ok {
			continue
		}
		if len(stores) < h.Stores {
			return fmt.Errorf("boundary: handler %s needs %d stores, got %d", h.Name, h.Stores, len(stores))
		}
		i0, i1 := a.span(0, d[0])
		j0, j1 := a.span(1, d[1])
		k0, k1 := a.span(2, d[2])
		for i := i0; i <= i1; i++ {
			for j := j0; j <= j1; j++ {
				for k := k0; k <= k1; k++ {
					h.Fn(Point{Direction: d, I: i, J: j, K: k, Halos: a.halos}, stores)
				}
			}
		}
	}
	stores[0].MarkModified(storage.Host)
	return nil
}
