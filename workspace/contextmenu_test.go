package workspace

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/core"

	"github.com/gogpu/yeti"
)

type recordingHandler struct {
	calls    int
	lastObj  yeti.ObjectId
	lastRow  int
	lastCol  int
	consumed bool
	err      error
}

func (h *recordingHandler) HandleContextMenuAction(objectId yeti.ObjectId, row, col int) (bool, error) {
	h.calls++
	h.lastObj, h.lastRow, h.lastCol = objectId, row, col
	return h.consumed, h.err
}

func TestContextMenuDispatchesToRegisteredHandler(t *testing.T) {
	cm := NewContextMenu()
	h := &recordingHandler{consumed: true}
	cm.Register("copy", h)

	consumed, err := cm.dispatch(yeti.ContextMenuActionEvent(7, 3, 4, "copy"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !consumed {
		t.Fatal("a handler reporting consumed=true should make dispatch report consumed")
	}
	if h.calls != 1 || h.lastObj != 7 || h.lastRow != 3 || h.lastCol != 4 {
		t.Fatalf("handler received unexpected args: %+v", h)
	}
}

func TestContextMenuUnknownActionIsNotConsumed(t *testing.T) {
	cm := NewContextMenu()
	cm.Register("copy", &recordingHandler{consumed: true})

	consumed, err := cm.dispatch(yeti.ContextMenuActionEvent(1, 0, 0, "paste"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if consumed {
		t.Fatal("an action with no registered handler should never be reported consumed")
	}
}

func TestContextMenuStopsAtFirstConsumingHandler(t *testing.T) {
	cm := NewContextMenu()
	first := &recordingHandler{consumed: false}
	second := &recordingHandler{consumed: true}
	third := &recordingHandler{consumed: true}
	cm.Register("copy", first)
	cm.Register("copy", second)
	cm.Register("copy", third)

	consumed, err := cm.dispatch(yeti.ContextMenuActionEvent(1, 0, 0, "copy"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !consumed {
		t.Fatal("expected the event to be consumed")
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatal("expected first and second handlers to run")
	}
	if third.calls != 0 {
		t.Fatal("expected dispatch to stop once a handler reported consumed")
	}
}

func TestContextMenuPropagatesHandlerError(t *testing.T) {
	cm := NewContextMenu()
	boom := errors.New("boom")
	cm.Register("copy", &recordingHandler{err: boom})

	_, err := cm.dispatch(yeti.ContextMenuActionEvent(1, 0, 0, "copy"))
	if !errors.Is(err, boom) {
		t.Fatalf("dispatch error = %v, want %v", err, boom)
	}
}

func TestContextMenuUnregisterRemovesHandler(t *testing.T) {
	cm := NewContextMenu()
	h := &recordingHandler{consumed: true}
	cm.Register("copy", h)
	cm.Unregister("copy", h)

	consumed, err := cm.dispatch(yeti.ContextMenuActionEvent(1, 0, 0, "copy"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if consumed {
		t.Fatal("expected no consumption after the only handler was unregistered")
	}
	if h.calls != 0 {
		t.Fatal("an unregistered handler should not be called")
	}
}

func TestContextMenuUnregisterUnknownHandlerIsNoop(t *testing.T) {
	cm := NewContextMenu()
	cm.Unregister("copy", &recordingHandler{})
}

func TestWorkspaceRoutesContextMenuActionEvent(t *testing.T) {
	ws, _ := New(rootBounds(), newTestWidget(), core.BindGroupLayoutID{}, core.BindGroupID{})
	h := &recordingHandler{consumed: true}
	ws.ContextMenu().Register("rename", h)

	consumed, err := ws.OnEvent(yeti.ContextMenuActionEvent(42, 1, 2, "rename"))
	if err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	if !consumed {
		t.Fatal("a registered handler reporting consumed should make OnEvent report consumed")
	}
	if h.lastObj != 42 || h.lastRow != 1 || h.lastCol != 2 {
		t.Fatalf("handler received unexpected args: %+v", h)
	}
}
