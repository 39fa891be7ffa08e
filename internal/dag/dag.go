// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[int]*node),
	}
}

// AddNode adds a new node with the given id to the graph. If a node with
// the same id already exists, the function does nothing.
func (g *Graph) AddNode(id int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[int]Hazard),
		dependents: make(map[int]Hazard),
	}
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node,
// or adds the hazard to an existing one. This signifies that `toID` has a
// dependency on `fromID`. An error is returned if either node does not exist
// or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID int, h Hazard) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %d -> %d", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %d", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %d", toID)
	}

	toNode.deps[fromID] |= h
	fromNode.dependents[toID] |= h

	return nil
}

// Descendants returns the sorted ids of every node that depends on the
// given node, directly or through other nodes.
func (g *Graph) Descendants(id int) ([]int, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %d", id)
	}
	seen := make(map[int]bool)
	stack := []*node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range cur.dependents {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, g.nodes[next])
			}
		}
	}
	return sortedKeys(seen), nil
}

// Edge returns the hazards of the edge between two nodes in either
// direction, and whether such an edge exists.
func (g *Graph) Edge(a, b int) (Hazard, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[a]
	if !ok {
		return 0, false
	}
	if h, ok := n.dependents[b]; ok {
		return h, true
	}
	if h, ok := n.deps[b]; ok {
		return h, true
	}
	return 0, false
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Use classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[int]bool)
	temporary := make(map[int]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving stage %d", n.id)
		}

		temporary[n.id] = true
		for _, id := range sortedKeys(n.dependents) {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
