// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package boundary

import (
	"fmt"

	"github.com/vk/stencilgo/internal/storage"
)

// Value sets the halo to a constant.
func Value(v float64) Handler {
	return Handler{Name: fmt.Sprintf("value(%g)", v), Stores: 1, Fn: func(p Point, stores []storage.DataStore) {
		for c := range stores[0].Colors() {
			storage.Set(stores[0], p.I, p.J, p.K, c, v)
		}
	}}
}

// Copy takes the halo of the target from the second store.
func Copy() Handler {
	return Handler{Name: "copy", Stores: 2, Fn: func(p Point, stores []storage.DataStore) {
		for c := range stores[0].Colors() {
			storage.Set(stores[0], p.I, p.J, p.K, c, storage.At(stores[1], p.I, p.J, p.K, c))
		}
	}}
}

// ZeroGradient extends the nearest interior value into the halo.
func ZeroGradient() Handler {
	return Handler{Name: "zero-gradient", Stores: 1, Fn: func(p Point, stores []storage.DataStore) {
		i, j, k := p.Nearest()
		for c := range stores[0].Colors() {
			storage.Set(stores[0], p.I, p.J, p.K, c, storage.At(stores[0], i, j, k, c))
		}
	}}
}
