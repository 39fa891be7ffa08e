// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the storage contract the engine works against and the
// memory layout rules shared by every implementation.
//
// Why a host and a device buffer?
//
// A store may be mirrored on an accelerator. Instead of a pointer that is
// silently valid on one side or the other, every store carries an explicit
// State, and crossing sides is always an explicit SyncToDevice or SyncToHost.
// The engine only runs on host buffers and refuses a store whose device copy
// is newer, so a forgotten synchronization is an error, not stale data.

package storage

import "fmt"

// Logical dimensions of a store.
const (
	DimI = iota
	DimJ
	DimK
	DimColor
)

// Space names one side of a store.
type Space uint8

const (
	Host Space = iota
	Device
)

func (s Space) String() string {
	if s == Device {
		return "device"
	}
	return "host"
}

// State records which side of a store holds the current data.
type State uint8

const (
	Synced State = iota
	HostNewer
	DeviceNewer
)

func (s State) String() string {
	switch s {
	case HostNewer:
		return "host-newer"
	case DeviceNewer:
		return "device-newer"
	}
	return "synced"
}

// DataStore is a dense 4-dimensional array of float64 values over the
// logical dimensions (i, j, k, color). Structured stores have one color.
type DataStore interface {
	Name() string
	// Dims is the allocated size of each logical dimension.
	Dims() [4]int
	// Strides is the element distance between neighbors along each logical
	// dimension.
	Strides() [4]int
	Colors() int
	Host() []float64
	Device() []float64
	SyncToDevice()
	SyncToHost()
	State() State
	// MarkModified records that one side was written.
	MarkModified(Space)
}

// Layout assigns each logical dimension a memory rank. The dimension with
// the highest rank is contiguous.
type Layout [4]int

// DefaultLayout stores (i, color, j, k) from slowest to fastest.
var DefaultLayout = Layout{0, 2, 3, 1}

// Validate checks that l is a permutation of 0..3.
func (l Layout) Validate() error {
	var seen [4]bool
	for _, r := range l {
		if r < 0 || r > 3 || seen[r] {
			return fmt.Errorf("layout %v is not a permutation of 0..3", [4]int(l))
		}
		seen[r] = true
	}
	return nil
}

// Strides computes per-dimension strides for the given sizes.
func (l Layout) Strides(dims [4]int) [4]int {
	var byRank [4]int
	for d, r := range l {
		byRank[r] = d
	}
	var strides [4]int
	s := 1
	for r := 3; r >= 0; r-- {
		d := byRank[r]
		strides[d] = s
		s *= dims[d]
	}
	return strides
}

// Index is the flat offset of a point of ds.
func Index(ds DataStore, i, j, k, c int) int {
	st := ds.Strides()
	return i*st[DimI] + j*st[DimJ] + k*st[DimK] + c*st[DimColor]
}

// At reads a host value of ds.
func At(ds DataStore, i, j, k, c int) float64 { return ds.Host()[Index(ds, i, j, k, c)] }

// Set writes a host value of ds. It does not update the store state.
func Set(ds DataStore, i, j, k, c int, v float64) { ds.Host()[Index(ds, i, j, k, c)] = v }

// Size is the number of elements of ds.
func Size(dims [4]int) int { return dims[0] * dims[1] * dims[2] * dims[3] }
