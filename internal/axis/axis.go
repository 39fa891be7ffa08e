// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package axis

import (
	"fmt"
	"strings"
)

// Axis is the vertical dimension of a grid, cut by ordered splitters. The
// first splitter sits at k = 0 and the last one at the vertical size.
type Axis struct {
	positions []int
}

// New builds an axis from splitter positions.
func New(positions ...int) (*Axis, error) {
	if len(positions) < 2 {
		return nil, fmt.Errorf("axis needs at least 2 splitters, got %d", len(positions))
	}
	if positions[0] != 0 {
		return nil, fmt.Errorf("axis must start at k=0, first splitter is %d", positions[0])
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] <= positions[i-1] {
			return nil, fmt.Errorf("axis splitters must be strictly increasing: %v", positions)
		}
	}
	return &Axis{positions: append([]int(nil), positions...)}, nil
}

// FromSizes builds an axis from consecutive interval sizes.
func FromSizes(sizes ...int) (*Axis, error) {
	positions := make([]int, 0, len(sizes)+1)
	positions = append(positions, 0)
	for _, s := range sizes {
		positions = append(positions, positions[len(positions)-1]+s)
	}
	return New(positions...)
}

// Size is the number of k planes.
func (a *Axis) Size() int { return a.positions[len(a.positions)-1] }

// Splitters returns the number of splitters.
func (a *Axis) Splitters() int { return len(a.positions) }

// Positions returns a copy of the splitter positions.
func (a *Axis) Positions() []int { return append([]int(nil), a.positions...) }

// Full is the interval covering every plane of the axis.
func (a *Axis) Full() Interval {
	return Interval{From: Level{0, 1}, To: Level{len(a.positions) - 1, -1}}
}

// Interval returns the n-th interval between consecutive splitters.
func (a *Axis) Interval(n int) (Interval, error) {
	if n < 0 || n >= len(a.positions)-1 {
		return Interval{}, fmt.Errorf("axis has %d intervals, no interval %d", len(a.positions)-1, n)
	}
	return Interval{From: Level{n, 1}, To: Level{n + 1, -1}}, nil
}

// K is the plane a level denotes on this axis.
func (a *Axis) K(l Level) (int, error) {
	if err := l.Validate(); err != nil {
		return 0, err
	}
	if l.Splitter >= len(a.positions) {
		return 0, fmt.Errorf("level %s: axis has only %d splitters", l, len(a.positions))
	}
	if l.Offset < 0 {
		return a.positions[l.Splitter] + l.Offset, nil
	}
	return a.positions[l.Splitter] + l.Offset - 1, nil
}

// Range returns the inclusive plane range of an interval. A range may lie
// partly outside the axis; callers clamp it.
func (a *Axis) Range(iv Interval) (begin, end int, err error) {
	if begin, err = a.K(iv.From); err != nil {
		return 0, 0, err
	}
	if end, err = a.K(iv.To); err != nil {
		return 0, 0, err
	}
	return begin, end, nil
}

func (a *Axis) String() string {
	parts := make([]string, len(a.positions))
	for i, p := range a.positions {
		parts[i] = fmt.Sprint(p)
	}
	return "axis[" + strings.Join(parts, ",") + "]"
}
