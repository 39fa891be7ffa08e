// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"sync"

	"github.com/vk/stencilgo/internal/accessor"
	"github.com/vk/stencilgo/internal/composition"
	"github.com/vk/stencilgo/internal/grid"
	"github.com/vk/stencilgo/internal/iterdomain"
	"github.com/vk/stencilgo/internal/registry"
)

// VisitCounter registers a "count_visits" functor that copies its input and
// records how often every (i, j, k) point was evaluated. Workers call it
// concurrently.
type VisitCounter struct {
	mu     sync.Mutex
	visits map[[3]int]int
}

// NewVisitCounter creates an empty counter.
func NewVisitCounter() *VisitCounter {
	return &VisitCounter{visits: make(map[[3]int]int)}
}

// Visits returns a snapshot of the evaluation counts.
func (m *VisitCounter) Visits() map[[3]int]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[[3]int]int, len(m.visits))
	for p, n := range m.visits {
		out[p] = n
	}
	return out
}

// Register registers the "count_visits" functor.
func (m *VisitCounter) Register(r *registry.Registry) {
	r.RegisterFunctor("count_visits", &registry.RegisteredFunctor{
		Description: "out = in, counting evaluations",
		New: func(*grid.Grid, any) (composition.Functor, error) {
			in, out := accessor.In(0).Named("in"), accessor.InOut(1).Named("out")
			return composition.NewFunctor("count_visits", accessor.ParamList{in, out}, composition.Do(func(ev iterdomain.Evaluation) {
				if !iterdomain.Recording(ev) {
					m.mu.Lock()
					m.visits[[3]int{ev.I(), ev.J(), ev.K()}]++
					m.mu.Unlock()
				}
				ev.Set(out, ev.Value(in))
			})), nil
		},
	})
}
