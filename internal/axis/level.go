// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines levels and intervals, the symbolic vocabulary used to
// describe vertical ranges independently of the actual grid size.
//
// A level is a splitter plus a non-zero offset. Negative offsets count the
// k planes just below the splitter, positive offsets the planes starting at
// it, so (s, -1) and (s, 1) are adjacent planes on either side of splitter s.

package axis

import "fmt"

// OffsetLimit bounds the absolute offset of a level.
const OffsetLimit = 3

// Level is a symbolic vertical position.
type Level struct {
	Splitter int
	Offset   int
}

// NewLevel validates the offset range and builds a level.
func NewLevel(splitter, offset int) (Level, error) {
	l := Level{Splitter: splitter, Offset: offset}
	if err := l.Validate(); err != nil {
		return Level{}, err
	}
	return l, nil
}

// MustLevel is like NewLevel but panics on an invalid level.
func MustLevel(splitter, offset int) Level {
	l, err := NewLevel(splitter, offset)
	if err != nil {
		panic(err)
	}
	return l
}

// Validate checks the offset range and the splitter sign.
func (l Level) Validate() error {
	if l.Splitter < 0 {
		return fmt.Errorf("level %s: negative splitter", l)
	}
	if l.Offset == 0 || l.Offset < -OffsetLimit || l.Offset > OffsetLimit {
		return fmt.Errorf("level %s: offset must be in [-%d,-1] or [1,%d]", l, OffsetLimit, OffsetLimit)
	}
	return nil
}

// Index maps the level onto a dense integer that preserves level order.
func (l Level) Index() int {
	pos := l.Offset + OffsetLimit
	if l.Offset > 0 {
		pos--
	}
	return l.Splitter*2*OffsetLimit + pos
}

// LevelFromIndex inverts Index.
func LevelFromIndex(idx int) Level {
	s, pos := idx/(2*OffsetLimit), idx%(2*OffsetLimit)
	off := pos - OffsetLimit
	if off >= 0 {
		off++
	}
	return Level{Splitter: s, Offset: off}
}

// Compare returns -1, 0 or 1 as l sorts before, equal to or after o.
func (l Level) Compare(o Level) int {
	a, b := l.Index(), o.Index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Less reports whether l sorts before o.
func (l Level) Less(o Level) bool { return l.Compare(o) < 0 }

func (l Level) String() string { return fmt.Sprintf("(%d,%+d)", l.Splitter, l.Offset) }

// Interval is the inclusive range [From, To] of levels.
type Interval struct {
	From, To Level
}

// NewInterval validates both levels and their order.
func NewInterval(from, to Level) (Interval, error) {
	if err := from.Validate(); err != nil {
		return Interval{}, err
	}
	if err := to.Validate(); err != nil {
		return Interval{}, err
	}
	if to.Less(from) {
		return Interval{}, fmt.Errorf("interval [%s, %s]: from must not follow to", from, to)
	}
	return Interval{From: from, To: to}, nil
}

// MustInterval is like NewInterval but panics on an invalid interval.
func MustInterval(from, to Level) Interval {
	iv, err := NewInterval(from, to)
	if err != nil {
		panic(err)
	}
	return iv
}

// Shift moves both ends by the given level offsets, the way a functor
// narrows an axis interval to its first or last planes.
func (iv Interval) Shift(from, to int) (Interval, error) {
	f, err := NewLevel(iv.From.Splitter, step(iv.From.Offset, from))
	if err != nil {
		return Interval{}, err
	}
	t, err := NewLevel(iv.To.Splitter, step(iv.To.Offset, to))
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(f, t)
}

// step moves an offset by d planes, skipping the non-existent offset 0.
func step(offset, d int) int {
	plane := offset
	if offset > 0 {
		plane--
	}
	plane += d
	if plane >= 0 {
		return plane + 1
	}
	return plane
}

// First returns the interval holding only the first plane of iv.
func (iv Interval) First() Interval { return Interval{From: iv.From, To: iv.From} }

// Last returns the interval holding only the last plane of iv.
func (iv Interval) Last() Interval { return Interval{From: iv.To, To: iv.To} }

func (iv Interval) String() string { return fmt.Sprintf("[%s, %s]", iv.From, iv.To) }
