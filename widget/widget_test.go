package widget

import (
	"testing"

	"github.com/gogpu/yeti"
)

type stubWidget struct {
	Base
}

func newStubWidget(bounds yeti.Bounds) *stubWidget {
	w := &stubWidget{}
	w.InitBase(bounds)
	return w
}

func (w *stubWidget) PrepareFrame(ctx *FrameContext) error        { return nil }
func (w *stubWidget) Render(pass RenderPass, ctx *FrameContext) error { return nil }
func (w *stubWidget) Dispose() error                               { return nil }

func TestInitBaseSetsBoundsAndVisible(t *testing.T) {
	w := newStubWidget(yeti.Bounds{X: 1, Y: 2, Width: 3, Height: 4})
	if w.Bounds() != (yeti.Bounds{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Fatalf("unexpected bounds: %+v", w.Bounds())
	}
	if !w.Visible() {
		t.Fatal("a freshly initialized widget should be visible")
	}
}

func TestEnterOnLeaveOnEdgeTransitions(t *testing.T) {
	w := newStubWidget(yeti.Bounds{})
	if !w.EnterOn() {
		t.Fatal("first EnterOn should report a fresh transition")
	}
	if w.EnterOn() {
		t.Fatal("second EnterOn before LeaveOn should be a no-op")
	}
	if !w.LeaveOn() {
		t.Fatal("first LeaveOn should report a real transition")
	}
	if w.LeaveOn() {
		t.Fatal("second LeaveOn before EnterOn should be a no-op")
	}
}

func TestBaseIdentityIsUnique(t *testing.T) {
	a := newStubWidget(yeti.Bounds{})
	b := newStubWidget(yeti.Bounds{})
	if a.ID() == b.ID() {
		t.Fatal("two distinct widgets must not share an ObjectId")
	}
}

func TestWidgetSatisfiesInterface(t *testing.T) {
	var _ Widget = newStubWidget(yeti.Bounds{})
}
