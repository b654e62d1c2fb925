package tile

import (
	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

// Tree owns the slab of nodes for one workspace's layout. The zero value
// is not usable; construct with NewTree.
type Tree struct {
	nodes []node
	free  []Index

	root  Index
	focus Index
}

// NewTree creates a tree whose root is a single pane occupying bounds
// and holding occupant (which may be nil for an empty pane).
func NewTree(bounds yeti.Bounds, occupant widget.Widget) *Tree {
	t := &Tree{root: NoIndex, focus: NoIndex}
	t.root = t.newPane(NoIndex, bounds, occupant)
	t.focus = t.root
	return t
}

func (t *Tree) alloc() Index {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		return idx
	}
	t.nodes = append(t.nodes, node{})
	return Index(len(t.nodes) - 1)
}

func (t *Tree) free1(idx Index) {
	t.nodes[idx] = node{}
	t.free = append(t.free, idx)
}

func (t *Tree) newPane(parent Index, bounds yeti.Bounds, occupant widget.Widget) Index {
	idx := t.alloc()
	t.nodes[idx] = node{kind: kindPane, parent: parent, bounds: bounds, occupant: occupant, live: true}
	if occupant != nil {
		occupant.SetBounds(bounds)
	}
	return idx
}

// Root returns the tree's root node index. A tree always has a root.
func (t *Tree) Root() Index { return t.root }

// Focus returns the currently focused pane, or NoIndex if the tree is
// empty.
func (t *Tree) Focus() Index { return t.focus }

func (t *Tree) valid(idx Index) bool {
	return idx >= 0 && int(idx) < len(t.nodes) && t.nodes[idx].live
}

// IsSplit reports whether idx names a Split node.
func (t *Tree) IsSplit(idx Index) bool {
	return t.valid(idx) && t.nodes[idx].kind == kindSplit
}

// IsPane reports whether idx names a Pane node.
func (t *Tree) IsPane(idx Index) bool {
	return t.valid(idx) && t.nodes[idx].kind == kindPane
}

// Bounds returns idx's current pixel bounds.
func (t *Tree) Bounds(idx Index) yeti.Bounds { return t.nodes[idx].bounds }

// Parent returns idx's parent, or NoIndex at the root.
func (t *Tree) Parent(idx Index) Index { return t.nodes[idx].parent }

// Occupant returns a pane's widget, or nil for an empty pane. Panics if
// idx does not name a pane.
func (t *Tree) Occupant(idx Index) widget.Widget {
	n := &t.nodes[idx]
	if n.kind != kindPane {
		panic("tile: Occupant called on a non-pane node")
	}
	return n.occupant
}

// SetOccupant replaces a pane's widget.
func (t *Tree) SetOccupant(idx Index, occupant widget.Widget) {
	n := &t.nodes[idx]
	n.occupant = occupant
	if occupant != nil {
		occupant.SetBounds(n.bounds)
	}
}

// Orientation returns a split's axis. For a pane node it returns the
// zero Orientation.
func (t *Tree) Orientation(idx Index) yeti.Orientation { return t.nodes[idx].orientation }

// Ratio returns a split's current ratio.
func (t *Tree) Ratio(idx Index) float32 { return t.nodes[idx].ratio }

// Children returns a split's two children.
func (t *Tree) Children(idx Index) (first, second Index) {
	n := &t.nodes[idx]
	return n.first, n.second
}

// Resize sets the root's bounds and eagerly repropagates them through
// the whole tree, per spec's "bounds propagation is eager on any
// structural change or resize".
func (t *Tree) Resize(bounds yeti.Bounds) {
	t.propagate(t.root, bounds)
}

func (t *Tree) propagate(idx Index, bounds yeti.Bounds) {
	n := &t.nodes[idx]
	n.bounds = bounds
	switch n.kind {
	case kindPane:
		if n.occupant != nil {
			n.occupant.SetBounds(bounds)
		}
	case kindSplit:
		var firstBounds, secondBounds yeti.Bounds
		if n.orientation == yeti.Horizontal {
			firstBounds, secondBounds = bounds.SplitHorizontal(n.ratio)
		} else {
			firstBounds, secondBounds = bounds.SplitVertical(n.ratio)
		}
		t.propagate(n.first, firstBounds)
		t.propagate(n.second, secondBounds)
	}
}

// SetRatio updates a split's ratio, clamping to [MinRatio, MaxRatio],
// and repropagates bounds to its subtree.
func (t *Tree) SetRatio(idx Index, ratio float32) {
	n := &t.nodes[idx]
	n.ratio = clampRatio(ratio)
	t.propagate(idx, n.bounds)
}

// Split replaces the pane at idx with a Split along orientation at
// ratio: the pane's current occupant stays in the first child, and
// newOccupant (which may be nil) goes in the second. Returns the new
// split's index and the second child's index. Returns an error if idx
// does not name a pane.
func (t *Tree) Split(idx Index, orientation yeti.Orientation, ratio float32, newOccupant widget.Widget) (splitIdx, secondPaneIdx Index, err error) {
	n := &t.nodes[idx]
	if n.kind != kindPane {
		return NoIndex, NoIndex, yeti.NewError(yeti.InvalidArgument, "tile.Split: target is not a pane")
	}
	bounds := n.bounds
	occupant := n.occupant
	parent := n.parent
	clamped := clampRatio(ratio)

	var firstBounds, secondBounds yeti.Bounds
	if orientation == yeti.Horizontal {
		firstBounds, secondBounds = bounds.SplitHorizontal(clamped)
	} else {
		firstBounds, secondBounds = bounds.SplitVertical(clamped)
	}

	// idx is reused as the split node; the old pane's occupant moves
	// into a freshly allocated first-child pane so existing external
	// references to idx (e.g. a pending focus index) keep meaning
	// "this part of the tree" rather than dangling.
	firstIdx := t.newPane(idx, firstBounds, occupant)
	secondIdx := t.newPane(idx, secondBounds, newOccupant)

	t.nodes[idx] = node{
		kind: kindSplit, parent: parent, bounds: bounds,
		orientation: orientation, ratio: clamped,
		first: firstIdx, second: secondIdx, live: true,
	}

	if t.focus == idx {
		t.focus = firstIdx
	}

	return idx, secondIdx, nil
}

// Close removes the pane at idx. Its sibling is promoted into the
// parent split's slot (the parent node itself is freed), so the tree
// never carries a single-child split. Closing the root pane is a no-op
// error: a workspace always needs at least one pane.
func (t *Tree) Close(idx Index) error {
	if !t.valid(idx) || t.nodes[idx].kind != kindPane {
		return yeti.NewError(yeti.InvalidArgument, "tile.Close: target is not a live pane")
	}
	parent := t.nodes[idx].parent
	if parent == NoIndex {
		return yeti.NewError(yeti.FailedPrecondition, "tile.Close: cannot close the workspace's last pane")
	}

	p := &t.nodes[parent]
	var sibling Index
	if p.first == idx {
		sibling = p.second
	} else {
		sibling = p.first
	}

	// The sibling subtree moves into parent's slab slot in place, so
	// whatever already referenced `parent` (the grandparent's child
	// edge, or t.root) keeps pointing at the right subtree without
	// needing to be rewritten.
	siblingNode := t.nodes[sibling]
	siblingNode.parent = p.parent
	siblingNode.bounds = p.bounds
	t.nodes[parent] = siblingNode
	if siblingNode.kind == kindSplit {
		// sibling's children's parent edge pointed at `sibling`, which
		// is about to be freed; repoint them at the slot their parent
		// subtree now actually occupies.
		t.nodes[siblingNode.first].parent = parent
		t.nodes[siblingNode.second].parent = parent
	}

	// Repropagate so the promoted subtree's bounds (now living at
	// `parent`'s slot) reach its own descendants.
	t.propagate(parent, siblingNode.bounds)

	if t.focus == idx {
		t.focus = t.firstPaneUnder(parent)
	}

	t.free1(sibling)
	t.free1(idx)
	return nil
}

func (t *Tree) firstPaneUnder(idx Index) Index {
	n := &t.nodes[idx]
	if n.kind == kindPane {
		return idx
	}
	return t.firstPaneUnder(n.first)
}

// SetFocus moves keyboard focus to idx. Returns an error if idx does
// not name a live pane.
func (t *Tree) SetFocus(idx Index) error {
	if !t.valid(idx) || t.nodes[idx].kind != kindPane {
		return yeti.NewError(yeti.InvalidArgument, "tile.SetFocus: target is not a live pane")
	}
	t.focus = idx
	return nil
}

// PaneAt returns the pane whose bounds contain (x, y), or NoIndex if
// none do (outside the root's bounds).
func (t *Tree) PaneAt(x, y float32) Index {
	return t.paneAt(t.root, x, y)
}

func (t *Tree) paneAt(idx Index, x, y float32) Index {
	if idx == NoIndex || !t.valid(idx) {
		return NoIndex
	}
	n := &t.nodes[idx]
	if !n.bounds.Contains(x, y) {
		return NoIndex
	}
	if n.kind == kindPane {
		return idx
	}
	if found := t.paneAt(n.first, x, y); found != NoIndex {
		return found
	}
	return t.paneAt(n.second, x, y)
}

// Walk visits every live node depth-first, pre-order (a split before
// its children), the order workspace.Workspace.Render uses to record
// draw calls into the shared pass. visit returning false stops the
// walk early.
func (t *Tree) Walk(visit func(idx Index) bool) {
	t.walk(t.root, visit)
}

func (t *Tree) walk(idx Index, visit func(idx Index) bool) bool {
	if idx == NoIndex || !t.valid(idx) {
		return true
	}
	if !visit(idx) {
		return false
	}
	n := &t.nodes[idx]
	if n.kind == kindSplit {
		if !t.walk(n.first, visit) {
			return false
		}
		if !t.walk(n.second, visit) {
			return false
		}
	}
	return true
}
