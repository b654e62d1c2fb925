package yeti

// Bounds is an axis-aligned pixel rectangle: the shared currency between
// the tile tree, widgets, and the workspace's input-routing hit test.
type Bounds struct {
	X, Y          float32
	Width, Height float32
}

// Contains reports whether the point (x, y) falls within b, inclusive of
// the top-left edge and exclusive of the bottom-right edge.
func (b Bounds) Contains(x, y float32) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// SplitHorizontal divides b into a left and right rectangle at ratio
// (0, 1) of its width, the shape tile.Split uses for Orientation ==
// Horizontal.
func (b Bounds) SplitHorizontal(ratio float32) (first, second Bounds) {
	w := b.Width * ratio
	first = Bounds{X: b.X, Y: b.Y, Width: w, Height: b.Height}
	second = Bounds{X: b.X + w, Y: b.Y, Width: b.Width - w, Height: b.Height}
	return first, second
}

// SplitVertical divides b into a top and bottom rectangle at ratio (0, 1)
// of its height, the shape tile.Split uses for Orientation == Vertical.
func (b Bounds) SplitVertical(ratio float32) (first, second Bounds) {
	h := b.Height * ratio
	first = Bounds{X: b.X, Y: b.Y, Width: b.Width, Height: h}
	second = Bounds{X: b.X, Y: b.Y + h, Width: b.Width, Height: b.Height - h}
	return first, second
}
