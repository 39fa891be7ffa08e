// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines Extent, the axis-aligned box of relative offsets that an
// accessor may touch or that a stage must compute beyond its tile.
//
// Why a closed box instead of a list of offsets?
//
// Extents are combined constantly during analysis: unions when several
// consumers read the same field, Minkowski sums when a consumer's reach is
// pushed back onto its producer. Both operations stay closed over boxes and
// cost six integer operations, which keeps the analyzer linear in the number
// of accessors.

package extent

import "fmt"

// Extent is a box of relative offsets. Minus bounds are <= 0 and plus bounds
// are >= 0, so every extent contains the zero offset.
type Extent struct {
	IMinus, IPlus int
	JMinus, JPlus int
	KMinus, KPlus int
}

// Zero is the single-point extent.
var Zero = Extent{}

// New builds an extent from up to six bounds in the order
// iminus, iplus, jminus, jplus, kminus, kplus. Missing bounds are zero.
func New(bounds ...int) (Extent, error) {
	if len(bounds) > 6 {
		return Zero, fmt.Errorf("extent takes at most 6 bounds, got %d", len(bounds))
	}
	var b [6]int
	copy(b[:], bounds)
	e := Extent{b[0], b[1], b[2], b[3], b[4], b[5]}
	if err := e.Validate(); err != nil {
		return Zero, err
	}
	return e, nil
}

// MustNew is like New but panics on invalid bounds. It is meant for
// package-level accessor declarations.
func MustNew(bounds ...int) Extent {
	e, err := New(bounds...)
	if err != nil {
		panic(err)
	}
	return e
}

// Validate reports whether the extent contains the zero offset.
func (e Extent) Validate() error {
	if e.IMinus > 0 || e.JMinus > 0 || e.KMinus > 0 {
		return fmt.Errorf("extent %s: minus bounds must be <= 0", e)
	}
	if e.IPlus < 0 || e.JPlus < 0 || e.KPlus < 0 {
		return fmt.Errorf("extent %s: plus bounds must be >= 0", e)
	}
	return nil
}

// Union returns the smallest extent containing both e and o.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		IMinus: min(e.IMinus, o.IMinus), IPlus: max(e.IPlus, o.IPlus),
		JMinus: min(e.JMinus, o.JMinus), JPlus: max(e.JPlus, o.JPlus),
		KMinus: min(e.KMinus, o.KMinus), KPlus: max(e.KPlus, o.KPlus),
	}
}

// Compose returns the Minkowski sum of e and o: every offset reachable by
// first stepping inside e and then inside o.
func (e Extent) Compose(o Extent) Extent {
	return Extent{
		IMinus: e.IMinus + o.IMinus, IPlus: e.IPlus + o.IPlus,
		JMinus: e.JMinus + o.JMinus, JPlus: e.JPlus + o.JPlus,
		KMinus: e.KMinus + o.KMinus, KPlus: e.KPlus + o.KPlus,
	}
}

// Contains reports whether the offset (di, dj, dk) lies inside e.
func (e Extent) Contains(di, dj, dk int) bool {
	return di >= e.IMinus && di <= e.IPlus &&
		dj >= e.JMinus && dj <= e.JPlus &&
		dk >= e.KMinus && dk <= e.KPlus
}

// Covers reports whether e is a superset of o in every dimension.
func (e Extent) Covers(o Extent) bool {
	return e.IMinus <= o.IMinus && e.IPlus >= o.IPlus &&
		e.JMinus <= o.JMinus && e.JPlus >= o.JPlus &&
		e.KMinus <= o.KMinus && e.KPlus >= o.KPlus
}

// IsZero reports whether e is the single-point extent.
func (e Extent) IsZero() bool { return e == Zero }

// IsHorizontalZero reports whether e has no reach in i or j.
func (e Extent) IsHorizontalZero() bool {
	return e.IMinus == 0 && e.IPlus == 0 && e.JMinus == 0 && e.JPlus == 0
}

// IsVerticalZero reports whether e has no reach in k.
func (e Extent) IsVerticalZero() bool { return e.KMinus == 0 && e.KPlus == 0 }

// Horizontal returns e with its vertical bounds dropped.
func (e Extent) Horizontal() Extent {
	e.KMinus, e.KPlus = 0, 0
	return e
}

// Expand widens e so that it contains the offset (di, dj, dk).
func (e Extent) Expand(di, dj, dk int) Extent {
	return e.Union(Extent{
		IMinus: min(di, 0), IPlus: max(di, 0),
		JMinus: min(dj, 0), JPlus: max(dj, 0),
		KMinus: min(dk, 0), KPlus: max(dk, 0),
	})
}

// Bounds returns the six bounds in constructor order.
func (e Extent) Bounds() [6]int {
	return [6]int{e.IMinus, e.IPlus, e.JMinus, e.JPlus, e.KMinus, e.KPlus}
}

func (e Extent) String() string {
	return fmt.Sprintf("i[%d,%d] j[%d,%d] k[%d,%d]", e.IMinus, e.IPlus, e.JMinus, e.JPlus, e.KMinus, e.KPlus)
}
