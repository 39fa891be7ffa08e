// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dag

import "sync"

// Hazard names the data hazard an edge orders.
type Hazard uint8

const (
	// ReadAfterWrite: the consumer reads what the producer writes.
	ReadAfterWrite Hazard = 1 << iota
	// WriteAfterRead: the later stage overwrites what the earlier one reads.
	WriteAfterRead
	// WriteAfterWrite: both stages write the same placeholder.
	WriteAfterWrite
)

func (h Hazard) String() string {
	s := ""
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if h&ReadAfterWrite != 0 {
		add("RAW")
	}
	if h&WriteAfterRead != 0 {
		add("WAR")
	}
	if h&WriteAfterWrite != 0 {
		add("WAW")
	}
	return s
}

// Graph is a collection of stages and their dependencies, representing a
// DAG. All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by stage id.
	nodes map[int]*node
}

// node represents a single stage in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using stage ids),
// not by direct struct manipulation.
type node struct {
	// id is the stage id.
	id int
	// deps maps each predecessor to the hazards ordering it before this
	// node.
	deps map[int]Hazard
	// dependents maps each successor to the hazards ordering it after this
	// node.
	dependents map[int]Hazard
}
