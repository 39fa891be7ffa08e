// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package axis

import (
	"fmt"
	"slices"
)

// NoMethod marks a segment no declared interval covers.
const NoMethod = -1

// Segment is an inclusive plane range [Begin, End] bound to the index of the
// declared interval that governs it, or NoMethod.
type Segment struct {
	Begin, End int
	Method     int
}

// AmbiguityError reports two declared intervals that both claim a plane
// range while neither is strictly contained in the other.
type AmbiguityError struct {
	Begin, End    int
	First, Second Interval
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("intervals %s and %s both cover k=[%d,%d] and neither is more specific",
		e.First, e.Second, e.Begin, e.End)
}

type span struct{ begin, end int }

func (s span) covers(o span) bool { return s.begin <= o.begin && s.end >= o.end }

// Resolve cuts the axis into ordered, disjoint segments whose union is the
// whole axis. Each segment is governed by the most specific declared
// interval containing it. Segments outside every declared interval carry
// NoMethod. Adjacent segments governed by the same interval are merged.
func Resolve(a *Axis, declared []Interval) ([]Segment, error) {
	lo, hi := 0, a.Size()-1
	spans := make([]span, len(declared))
	valid := make([]bool, len(declared))
	cuts := []int{lo, hi + 1}
	for m, iv := range declared {
		begin, end, err := a.Range(iv)
		if err != nil {
			return nil, fmt.Errorf("interval %d %s: %w", m, iv, err)
		}
		begin, end = max(begin, lo), min(end, hi)
		if begin > end {
			continue
		}
		spans[m], valid[m] = span{begin, end}, true
		cuts = append(cuts, begin, end+1)
	}
	slices.Sort(cuts)
	cuts = slices.Compact(cuts)

	var out []Segment
	for c := 0; c+1 < len(cuts); c++ {
		piece := span{cuts[c], cuts[c+1] - 1}
		var cands []int
		for m := range declared {
			if valid[m] && spans[m].covers(piece) {
				cands = append(cands, m)
			}
		}
		winner := NoMethod
		if len(cands) > 0 {
			slices.SortStableFunc(cands, func(x, y int) int {
				return (spans[x].end - spans[x].begin) - (spans[y].end - spans[y].begin)
			})
			winner = cands[0]
			for _, m := range cands[1:] {
				if spans[m] == spans[winner] || !spans[m].covers(spans[winner]) {
					return nil, &AmbiguityError{Begin: piece.begin, End: piece.end, First: declared[winner], Second: declared[m]}
				}
			}
		}
		if n := len(out); n > 0 && out[n-1].Method == winner {
			out[n-1].End = piece.end
			continue
		}
		out = append(out, Segment{Begin: piece.begin, End: piece.end, Method: winner})
	}
	return out, nil
}

// Table expands segments into a per-plane method lookup of the given size.
func Table(segments []Segment, size int) []int {
	t := make([]int, size)
	for k := range t {
		t[k] = NoMethod
	}
	for _, s := range segments {
		for k := max(s.Begin, 0); k <= s.End && k < size; k++ {
			t[k] = s.Method
		}
	}
	return t
}
