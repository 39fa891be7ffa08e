// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package composition

import (
	"fmt"
	"strings"

	"github.com/vk/stencilgo/internal/accessor"
)

// CacheKind is the shape of a cache.
type CacheKind uint8

const (
	// IJCache keeps one horizontal plane of the extended tile.
	IJCache CacheKind = iota
	// KCache keeps a ring of vertical planes along a sweep.
	KCache
)

func (k CacheKind) String() string {
	if k == KCache {
		return "k"
	}
	return "ij"
}

// CachePolicy states how a cache is synchronized with its store.
type CachePolicy uint8

const (
	Local CachePolicy = 0
	Fill  CachePolicy = 1 << iota
	Flush
	FillFlush = Fill | Flush
)

// Fills reports whether the cache is loaded from its store.
func (p CachePolicy) Fills() bool { return p&Fill != 0 }

// Flushes reports whether the cache is written back to its store.
func (p CachePolicy) Flushes() bool { return p&Flush != 0 }

func (p CachePolicy) String() string {
	var parts []string
	if p.Fills() {
		parts = append(parts, "fill")
	}
	if p.Flushes() {
		parts = append(parts, "flush")
	}
	if len(parts) == 0 {
		return "local"
	}
	return strings.Join(parts, "+")
}

// ParseCachePolicy maps a program-file policy name onto a CachePolicy.
func ParseCachePolicy(s string) (CachePolicy, error) {
	switch s {
	case "", "local":
		return Local, nil
	case "fill":
		return Fill, nil
	case "flush":
		return Flush, nil
	case "fill_flush", "fill+flush":
		return FillFlush, nil
	}
	return Local, fmt.Errorf("unknown cache policy %q", s)
}

// Cache requests a cache for one placeholder of a multi-stage.
type Cache struct {
	Placeholder accessor.Placeholder
	Kind        CacheKind
	Policy      CachePolicy
}

func (c Cache) String() string {
	return fmt.Sprintf("%s cache (%s) on %s", c.Kind, c.Policy, c.Placeholder)
}
