// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package storage

import (
	"fmt"
	"sync"

	"github.com/vk/stencilgo/internal/topology"
)

// Field is the in-memory DataStore.
type Field struct {
	name     string
	dims     [4]int
	strides  [4]int
	layout   Layout
	halo     [3]int
	location topology.Location

	mu     sync.Mutex
	host   []float64
	device []float64
	state  State
}

var _ DataStore = (*Field)(nil)

func (f *Field) Name() string                { return f.name }
func (f *Field) Dims() [4]int                { return f.dims }
func (f *Field) Strides() [4]int             { return f.strides }
func (f *Field) Colors() int                 { return f.dims[DimColor] }
func (f *Field) Layout() Layout              { return f.layout }
func (f *Field) Location() topology.Location { return f.location }

// Halo is the halo width the field was built with, per dimension.
func (f *Field) Halo() [3]int { return f.halo }

func (f *Field) Host() []float64 { return f.host }

// Device returns the device buffer, allocating it on first use.
func (f *Field) Device() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.device == nil {
		f.device = make([]float64, len(f.host))
	}
	return f.device
}

func (f *Field) SyncToDevice() {
	dev := f.Device()
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dev, f.host)
	f.state = Synced
}

func (f *Field) SyncToHost() {
	dev := f.Device()
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(f.host, dev)
	f.state = Synced
}

func (f *Field) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Field) MarkModified(s Space) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s == Device {
		f.state = DeviceNewer
	} else {
		f.state = HostNewer
	}
}

// At reads the host value at (i, j, k) of color 0.
func (f *Field) At(i, j, k int) float64 { return f.host[f.Index(i, j, k, 0)] }

// AtColor reads the host value at (i, j, k, c).
func (f *Field) AtColor(i, j, k, c int) float64 { return f.host[f.Index(i, j, k, c)] }

// Set writes the host value at (i, j, k, c).
func (f *Field) Set(i, j, k, c int, v float64) { f.host[f.Index(i, j, k, c)] = v }

// Index is the flat offset of (i, j, k, c).
func (f *Field) Index(i, j, k, c int) int {
	return i*f.strides[DimI] + j*f.strides[DimJ] + k*f.strides[DimK] + c*f.strides[DimColor]
}

// Fill sets every host value from fn and marks the host side modified.
func (f *Field) Fill(fn func(i, j, k, c int) float64) {
	for i := 0; i < f.dims[DimI]; i++ {
		for j := 0; j < f.dims[DimJ]; j++ {
			for k := 0; k < f.dims[DimK]; k++ {
				for c := 0; c < f.dims[DimColor]; c++ {
					f.host[f.Index(i, j, k, c)] = fn(i, j, k, c)
				}
			}
		}
	}
	f.MarkModified(Host)
}

func (f *Field) String() string {
	return fmt.Sprintf("field %q %v", f.name, f.dims)
}

// Builder assembles a Field.
type Builder struct {
	name     string
	dims     [4]int
	layout   Layout
	halo     [3]int
	location topology.Location
	init     func(i, j, k, c int) float64
}

// NewBuilder starts a field of the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, dims: [4]int{0, 0, 0, 1}, layout: DefaultLayout}
}

// Dimensions sets the allocated i, j and k sizes.
func (b *Builder) Dimensions(ni, nj, nk int) *Builder {
	b.dims[DimI], b.dims[DimJ], b.dims[DimK] = ni, nj, nk
	return b
}

// Location puts the field on an unstructured location, which fixes its
// number of colors.
func (b *Builder) Location(l topology.Location) *Builder {
	b.location = l
	b.dims[DimColor] = l.Colors()
	return b
}

// Layout overrides the memory layout.
func (b *Builder) Layout(l Layout) *Builder {
	b.layout = l
	return b
}

// Halos records the halo widths, used by verification and boundary code.
func (b *Builder) Halos(hi, hj, hk int) *Builder {
	b.halo = [3]int{hi, hj, hk}
	return b
}

// Value initializes every element to v.
func (b *Builder) Value(v float64) *Builder {
	b.init = func(int, int, int, int) float64 { return v }
	return b
}

// Initializer computes the initial value of each element.
func (b *Builder) Initializer(fn func(i, j, k, c int) float64) *Builder {
	b.init = fn
	return b
}

// Build validates the description and allocates the host buffer.
func (b *Builder) Build() (*Field, error) {
	for d := 0; d < 4; d++ {
		if b.dims[d] <= 0 {
			return nil, fmt.Errorf("field %q: dimension %d has size %d", b.name, d, b.dims[d])
		}
	}
	if err := b.layout.Validate(); err != nil {
		return nil, fmt.Errorf("field %q: %w", b.name, err)
	}
	for d := 0; d < 3; d++ {
		if b.halo[d] < 0 || 2*b.halo[d] >= b.dims[d] {
			return nil, fmt.Errorf("field %q: halo %d does not fit dimension %d of size %d", b.name, b.halo[d], d, b.dims[d])
		}
	}
	f := &Field{
		name:     b.name,
		dims:     b.dims,
		strides:  b.layout.Strides(b.dims),
		layout:   b.layout,
		halo:     b.halo,
		location: b.location,
		host:     make([]float64, Size(b.dims)),
		state:    Synced,
	}
	if b.init != nil {
		f.Fill(b.init)
	}
	return f, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Field {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}
