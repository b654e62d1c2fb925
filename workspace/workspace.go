// Package workspace owns one tile.Tree and renders it into a single
// shared render pass each frame, routing input events to the hit pane
// or the focused pane per spec.md's widget input-routing contract.
package workspace

import (
	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/eventloop"
	"github.com/gogpu/yeti/tile"
	"github.com/gogpu/yeti/widget"
)

var _ eventloop.Listener = (*Workspace)(nil)

// Workspace owns the tile tree, the group-0 "shared globals" bind group
// layout and bind group every pipeline in the tree's widgets shares, and
// the tree's single keyboard focus.
type Workspace struct {
	yeti.Object

	tree *tile.Tree

	sharedLayout core.BindGroupLayoutID
	sharedGroup  core.BindGroupID

	contextMenu *ContextMenu
}

// New creates a Workspace whose tile tree starts as a single pane
// occupying bounds and holding root (which may be nil for an empty
// pane).
func New(bounds yeti.Bounds, root widget.Widget, sharedLayout core.BindGroupLayoutID, sharedGroup core.BindGroupID) (*Workspace, error) {
	w := &Workspace{}
	w.init(bounds, root, sharedLayout, sharedGroup)
	return w, nil
}

func (w *Workspace) init(bounds yeti.Bounds, root widget.Widget, sharedLayout core.BindGroupLayoutID, sharedGroup core.BindGroupID) {
	w.InitObject()
	w.tree = tile.NewTree(bounds, root)
	w.sharedLayout = sharedLayout
	w.sharedGroup = sharedGroup
	w.contextMenu = NewContextMenu()
}

// ContextMenu returns the dispatcher EventContextMenuAction events are
// routed through. Callers register handlers on it to give menu action
// names meaning; the workspace itself never interprets an action.
func (w *Workspace) ContextMenu() *ContextMenu { return w.contextMenu }

// Tree exposes the underlying layout tree for callers (tests, a
// context-menu handler) that need direct structural access.
func (w *Workspace) Tree() *tile.Tree { return w.tree }

// SharedBindGroupLayout returns the group-0 layout every widget pipeline
// in this workspace shares.
func (w *Workspace) SharedBindGroupLayout() core.BindGroupLayoutID { return w.sharedLayout }

// SharedBindGroup returns the group-0 bind group (time/mouse/resolution/
// frame index) every widget pipeline in this workspace shares.
func (w *Workspace) SharedBindGroup() core.BindGroupID { return w.sharedGroup }

// Resize propagates a new root size through the whole tree, recomputing
// every pane's bounds.
func (w *Workspace) Resize(bounds yeti.Bounds) {
	w.tree.Resize(bounds)
}

// PrepareFrame visits every visible pane and runs its PrepareFrame, the
// CPU-side work (layout, decode, lazy GPU resource creation) host.Engine
// runs before opening the frame's render pass.
func (w *Workspace) PrepareFrame(ctx *widget.FrameContext) error {
	ctx.SharedGroup = w.sharedGroup
	var firstErr error
	w.tree.Walk(func(idx tile.Index) bool {
		if !w.tree.IsPane(idx) {
			return true
		}
		occ := w.tree.Occupant(idx)
		if occ == nil || !occ.Visible() {
			return true
		}
		if err := occ.PrepareFrame(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// Render depth-first walks the tile tree, forwarding pass to every
// visible pane's widget. Splits carry no draw calls of their own; only
// panes render.
func (w *Workspace) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	var firstErr error
	w.tree.Walk(func(idx tile.Index) bool {
		if !w.tree.IsPane(idx) {
			return true
		}
		occ := w.tree.Occupant(idx)
		if occ == nil || !occ.Visible() {
			return true
		}
		if err := occ.Render(pass, ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

func (w *Workspace) findPane(id yeti.ObjectId) tile.Index {
	found := tile.NoIndex
	w.tree.Walk(func(idx tile.Index) bool {
		if !w.tree.IsPane(idx) {
			return true
		}
		occ := w.tree.Occupant(idx)
		if occ != nil && occ.ID() == id {
			found = idx
			return false
		}
		return true
	})
	return found
}
