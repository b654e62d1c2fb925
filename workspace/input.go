package workspace

import (
	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/tile"
)

// OnEvent implements eventloop.Listener. Mouse/scroll events are routed
// to the pane hit-tested under the event's window coordinates; keyboard
// events go to the focused pane. A widget consumes an event by
// returning true from its own handler — this module treats "no widget
// under the point" or "no focused widget wants keyboard" as
// non-consumption, letting the event fall through to whatever else is
// registered at a lower priority.
func (w *Workspace) OnEvent(event yeti.Event) (bool, error) {
	switch event.Kind {
	case yeti.EventMouseDown, yeti.EventMouseUp, yeti.EventMouseMove, yeti.EventMouseDrag, yeti.EventScroll:
		return w.routeMouse(event)
	case yeti.EventKeyDown, yeti.EventKeyUp, yeti.EventChar:
		return w.routeKeyboard(event)
	case yeti.EventSetFocus:
		return w.handleSetFocus(event.ObjectId)
	case yeti.EventResize:
		w.Resize(yeti.Bounds{Width: float32(event.Width), Height: float32(event.Height)})
		return false, nil
	case yeti.EventClose:
		return w.handleClose(event.ObjectId)
	case yeti.EventSplitPane:
		return w.handleSplit(event.ObjectId, event.SplitOrientation)
	case yeti.EventContextMenuAction:
		return w.contextMenu.dispatch(event)
	default:
		return false, nil
	}
}

func (w *Workspace) routeMouse(event yeti.Event) (bool, error) {
	idx := w.tree.PaneAt(float32(event.X), float32(event.Y))
	if idx == tile.NoIndex {
		return false, nil
	}
	occ := w.tree.Occupant(idx)
	if occ == nil || !occ.Visible() || !occ.WantsMouse() {
		return false, nil
	}

	local := event
	bounds := w.tree.Bounds(idx)
	local.X -= float64(bounds.X)
	local.Y -= float64(bounds.Y)
	local.TargetId = occ.ID()

	return w.forwardToWidget(occ, local)
}

func (w *Workspace) routeKeyboard(event yeti.Event) (bool, error) {
	focus := w.tree.Focus()
	if focus == tile.NoIndex {
		return false, nil
	}
	occ := w.tree.Occupant(focus)
	if occ == nil || !occ.Visible() || !occ.WantsKeyboard() {
		return false, nil
	}
	return w.forwardToWidget(occ, event)
}

// forwardToWidget delivers event to a widget that has already been
// confirmed to want this class of input. Widgets don't implement
// eventloop.Listener themselves (OnEvent's bool/error contract belongs
// to the event loop's dispatch walk); instead input-capable widgets
// expose a HandleEvent method with the same shape, discovered here via
// a narrow interface so concrete widget packages stay decoupled from
// workspace.
func (w *Workspace) forwardToWidget(occ interface{ ID() yeti.ObjectId }, event yeti.Event) (bool, error) {
	handler, ok := occ.(interface {
		HandleEvent(event yeti.Event) (bool, error)
	})
	if !ok {
		return false, nil
	}
	return handler.HandleEvent(event)
}

// handleSetFocus moves keyboard focus to the pane whose occupant has
// objectId. Per spec.md §4.5, SetFocus traverses the tree, clears the
// previous focus, and sets the new one; an objectId with no matching
// pane leaves focus unchanged and does not consume the event.
func (w *Workspace) handleSetFocus(objectId yeti.ObjectId) (bool, error) {
	idx := w.findPane(objectId)
	if idx == tile.NoIndex {
		return false, nil
	}
	if err := w.tree.SetFocus(idx); err != nil {
		return false, err
	}
	return true, nil
}

// handleClose closes the pane named by objectId. tile.Tree.Close already
// implements this package's resolution of the Open Question on focus
// loss during tree mutation: if the closed pane held focus, the first
// pane of the promoted sibling subtree silently becomes focused — no
// SetFocus event is emitted, since the target pane no longer exists to
// receive one.
func (w *Workspace) handleClose(objectId yeti.ObjectId) (bool, error) {
	idx := w.findPane(objectId)
	if idx == tile.NoIndex {
		return false, nil
	}
	if err := w.tree.Close(idx); err != nil {
		return false, err
	}
	return true, nil
}

// handleSplit splits the pane named by objectId along orientation at an
// even ratio, leaving the new second pane empty for the caller (the
// multiplexer command layer, typically) to populate with a fresh
// widget via Tree().SetOccupant.
func (w *Workspace) handleSplit(objectId yeti.ObjectId, orientation yeti.Orientation) (bool, error) {
	idx := w.findPane(objectId)
	if idx == tile.NoIndex {
		return false, nil
	}
	if _, _, err := w.tree.Split(idx, orientation, 0.5, nil); err != nil {
		return false, err
	}
	return true, nil
}
