// Package tile implements the recursive binary split/pane layout tree
// that drives workspace.Workspace's rendering and input routing.
//
// Nodes live in a flat slab (Tree.nodes) and refer to each other by
// index rather than pointer: parent back-edges are plain ints, so the
// tree has no weak-reference problem to solve (Go's weak package only
// arrived in 1.24, and the spec this tree implements explicitly allows
// an arena-of-indices scheme as the idiomatic substitute). Freed slots
// are recycled through a free list so repeated split/close cycles don't
// grow the slab unboundedly.
package tile

import (
	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

// MinRatio and MaxRatio bound a Split's ratio; assignments outside this
// range are clamped rather than rejected.
const (
	MinRatio float32 = 0.05
	MaxRatio float32 = 0.95
)

// Index identifies a node within a Tree's slab. NoIndex (-1) means
// "no node" (an empty tree, or a node with no parent); the zero value
// names slot 0, a real node.
type Index int

// NoIndex is the sentinel meaning "absent" for parent/child/focus edges.
const NoIndex Index = -1

type kind uint8

const (
	kindSplit kind = iota
	kindPane
)

type node struct {
	kind   kind
	parent Index
	bounds yeti.Bounds

	// split fields
	orientation   yeti.Orientation
	ratio         float32
	first, second Index

	// pane field
	occupant widget.Widget

	live bool
}

func clampRatio(r float32) float32 {
	if r < MinRatio {
		return MinRatio
	}
	if r > MaxRatio {
		return MaxRatio
	}
	return r
}
