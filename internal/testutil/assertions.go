// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/storage"
)

// AssertSummary checks that the run printed the summary line of a field.
func AssertSummary(t *testing.T, result *HarnessResult, field string, lo, hi, mean float64, points int) {
	t.Helper()
	line := fmt.Sprintf("%s: min=%g max=%g mean=%g points=%d", field, lo, hi, mean, points)
	require.True(t, strings.Contains(result.Output, line),
		"expected summary %q in output:\n%s", line, result.Output)
}

// Verifier compares stores within a relative precision, skipping the halo.
type Verifier struct {
	Precision float64
	Halos     [3]grid.HaloDescriptor
}

// NewVerifier builds a verifier over the interior of g.
func NewVerifier(g *grid.Grid, precision float64) *Verifier {
	return &Verifier{Precision: precision, Halos: g.Halos()}
}

// Mismatch is one interior point where two stores disagree.
type Mismatch struct {
	I, J, K, C int
	Want, Got  float64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("(%d,%d,%d) color %d: want %g, got %g", m.I, m.J, m.K, m.C, m.Want, m.Got)
}

// Compare returns every interior point where got differs from want by more
// than the precision, relative to the larger magnitude. NaN never matches.
func (v *Verifier) Compare(want, got storage.DataStore) []Mismatch {
	var out []Mismatch
	colors := min(want.Colors(), got.Colors())
	h := v.Halos
	for i := h[0].Begin; i <= h[0].End; i++ {
		for j := h[1].Begin; j <= h[1].End; j++ {
			for k := h[2].Begin; k <= h[2].End; k++ {
				for c := range colors {
					a, b := storage.At(want, i, j, k, c), storage.At(got, i, j, k, c)
					if !v.close(a, b) {
						out = append(out, Mismatch{I: i, J: j, K: k, C: c, Want: a, Got: b})
					}
				}
			}
		}
	}
	return out
}

func (v *Verifier) close(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= v.Precision*scale
}

// AssertEqual fails the test when want and got differ in the interior,
// reporting at most the first few points.
func (v *Verifier) AssertEqual(t *testing.T, want, got storage.DataStore) {
	t.Helper()
	mismatches := v.Compare(want, got)
	if len(mismatches) == 0 {
		return
	}
	shown := mismatches[:min(len(mismatches), 5)]
	lines := make([]string, len(shown))
	for n, m := range shown {
		lines[n] = m.String()
	}
	t.Errorf("%s and %s differ at %d points:\n%s", want.Name(), got.Name(), len(mismatches), strings.Join(lines, "\n"))
}
