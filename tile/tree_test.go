package tile

import (
	"testing"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/widget"
)

type stubWidget struct {
	widget.Base
}

func newStubWidget() *stubWidget {
	w := &stubWidget{}
	w.InitBase(yeti.Bounds{})
	return w
}

func (w *stubWidget) PrepareFrame(ctx *widget.FrameContext) error          { return nil }
func (w *stubWidget) Render(pass widget.RenderPass, ctx *widget.FrameContext) error { return nil }
func (w *stubWidget) Dispose() error                                        { return nil }

func rootBounds() yeti.Bounds {
	return yeti.Bounds{X: 0, Y: 0, Width: 200, Height: 100}
}

// assertBoundsInvariant walks every live node and checks that a split's
// two children's bounds exactly tile its own, with no gap or overlap
// along the split axis — the universal property backing spec.md's
// "bounds propagation is eager on any structural change" guarantee.
func assertBoundsInvariant(t *testing.T, tr *Tree, idx Index) {
	t.Helper()
	if !tr.IsSplit(idx) {
		return
	}
	b := tr.Bounds(idx)
	first, second := tr.Children(idx)
	fb, sb := tr.Bounds(first), tr.Bounds(second)

	if tr.Orientation(idx) == yeti.Horizontal {
		if fb.X != b.X || fb.Y != b.Y || fb.Height != b.Height {
			t.Fatalf("first child bounds don't align to parent: %+v vs %+v", fb, b)
		}
		if sb.X != fb.X+fb.Width {
			t.Fatalf("horizontal split leaves a gap/overlap: first ends at %v, second starts at %v", fb.X+fb.Width, sb.X)
		}
		if fb.Width+sb.Width != b.Width {
			t.Fatalf("children widths don't sum to parent width: %v + %v != %v", fb.Width, sb.Width, b.Width)
		}
	} else {
		if fb.X != b.X || fb.Y != b.Y || fb.Width != b.Width {
			t.Fatalf("first child bounds don't align to parent: %+v vs %+v", fb, b)
		}
		if sb.Y != fb.Y+fb.Height {
			t.Fatalf("vertical split leaves a gap/overlap: first ends at %v, second starts at %v", fb.Y+fb.Height, sb.Y)
		}
		if fb.Height+sb.Height != b.Height {
			t.Fatalf("children heights don't sum to parent height: %v + %v != %v", fb.Height, sb.Height, b.Height)
		}
	}

	assertBoundsInvariant(t, tr, first)
	assertBoundsInvariant(t, tr, second)
}

func TestNewTreeRootIsAFocusedPane(t *testing.T) {
	occ := newStubWidget()
	tr := NewTree(rootBounds(), occ)
	if !tr.IsPane(tr.Root()) {
		t.Fatal("a fresh tree's root must be a pane")
	}
	if tr.Focus() != tr.Root() {
		t.Fatal("a fresh tree's root must start focused")
	}
	if tr.Occupant(tr.Root()) != occ {
		t.Fatal("root pane should hold the constructor's occupant")
	}
}

func TestSplitSubdividesBoundsAndMovesOccupant(t *testing.T) {
	occ := newStubWidget()
	tr := NewTree(rootBounds(), occ)
	root := tr.Root()

	splitIdx, secondIdx, err := tr.Split(root, yeti.Horizontal, 0.5, newStubWidget())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !tr.IsSplit(splitIdx) {
		t.Fatal("split index should now be a split node")
	}
	first, second := tr.Children(splitIdx)
	if second != secondIdx {
		t.Fatal("returned second index should match the split's second child")
	}
	if tr.Occupant(first) != occ {
		t.Fatal("the original occupant should move into the first child")
	}

	assertBoundsInvariant(t, tr, tr.Root())
}

func TestSplitRatioIsClampedOnAssignment(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	splitIdx, _, err := tr.Split(tr.Root(), yeti.Vertical, 0.0, nil)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got := tr.Ratio(splitIdx); got != MinRatio {
		t.Fatalf("ratio 0.0 should clamp to MinRatio, got %v", got)
	}

	tr.SetRatio(splitIdx, 1.0)
	if got := tr.Ratio(splitIdx); got != MaxRatio {
		t.Fatalf("ratio 1.0 should clamp to MaxRatio, got %v", got)
	}
	assertBoundsInvariant(t, tr, tr.Root())
}

func TestCloseCannotRemoveTheLastPane(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	if err := tr.Close(tr.Root()); err == nil {
		t.Fatal("closing the workspace's only pane should fail")
	}
}

func TestClosePromotesSiblingAndRepropagatesBounds(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	root := tr.Root()
	_, secondIdx, err := tr.Split(root, yeti.Horizontal, 0.5, newStubWidget())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	first, _ := tr.Children(tr.Root())

	if err := tr.Close(secondIdx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !tr.IsPane(tr.Root()) {
		t.Fatal("closing one of two children should collapse the split back to a single pane")
	}
	if tr.Bounds(tr.Root()) != rootBounds() {
		t.Fatalf("the promoted pane should inherit the split's full bounds, got %+v", tr.Bounds(tr.Root()))
	}
	_ = first
}

func TestCloseOfNestedSplitRepairsGrandchildParentEdges(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	root := tr.Root()
	splitIdx, secondIdx, err := tr.Split(root, yeti.Horizontal, 0.5, newStubWidget())
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	first, _ := tr.Children(splitIdx)
	// Split the first child again, so closing secondIdx must promote a
	// subtree (not a leaf) into the grandparent's slot.
	_, innerSecond, err := tr.Split(first, yeti.Vertical, 0.5, newStubWidget())
	if err != nil {
		t.Fatalf("nested Split: %v", err)
	}

	if err := tr.Close(secondIdx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if tr.Root() != root || !tr.IsSplit(tr.Root()) {
		t.Fatalf("the inner split should be promoted into the root's slot, got root=%v IsSplit=%v", tr.Root(), tr.IsSplit(tr.Root()))
	}
	if tr.Parent(innerSecond) != tr.Root() {
		t.Fatal("grandchild's parent edge must be repaired to point at its promoted ancestor's slot")
	}
	assertBoundsInvariant(t, tr, tr.Root())
}

func TestSetFocusRejectsUnknownOrSplitIndex(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	splitIdx, _, _ := tr.Split(tr.Root(), yeti.Horizontal, 0.5, newStubWidget())
	if err := tr.SetFocus(splitIdx); err == nil {
		t.Fatal("focusing a split node should fail")
	}
	if err := tr.SetFocus(Index(999)); err == nil {
		t.Fatal("focusing an out-of-range index should fail")
	}
}

func TestPaneAtHitTestsLeafContainingPoint(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	_, secondIdx, _ := tr.Split(tr.Root(), yeti.Horizontal, 0.5, newStubWidget())
	first, _ := tr.Children(tr.Root())

	if got := tr.PaneAt(10, 10); got != first {
		t.Fatalf("point in the left half should hit the first child, got %v want %v", got, first)
	}
	if got := tr.PaneAt(150, 10); got != secondIdx {
		t.Fatalf("point in the right half should hit the second child, got %v want %v", got, secondIdx)
	}
	if got := tr.PaneAt(-5, -5); got != NoIndex {
		t.Fatalf("point outside the root bounds should hit nothing, got %v", got)
	}
}

func TestWalkVisitsSplitBeforeChildrenPreOrder(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	splitIdx, secondIdx, _ := tr.Split(tr.Root(), yeti.Horizontal, 0.5, newStubWidget())
	firstIdx, _ := tr.Children(splitIdx)

	var order []Index
	tr.Walk(func(idx Index) bool {
		order = append(order, idx)
		return true
	})
	if len(order) != 3 || order[0] != splitIdx || order[1] != firstIdx || order[2] != secondIdx {
		t.Fatalf("expected pre-order [split, first, second], got %v", order)
	}
}

func TestResizePropagatesToEveryPane(t *testing.T) {
	tr := NewTree(rootBounds(), newStubWidget())
	tr.Split(tr.Root(), yeti.Vertical, 0.25, newStubWidget())

	tr.Resize(yeti.Bounds{X: 0, Y: 0, Width: 400, Height: 300})
	assertBoundsInvariant(t, tr, tr.Root())
	if got := tr.Bounds(tr.Root()); got.Width != 400 || got.Height != 300 {
		t.Fatalf("root bounds did not update on Resize: %+v", got)
	}
}
