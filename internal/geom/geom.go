// Package geom holds the small amount of plane geometry the board core
// needs: points, rectangles, the pan/zoom transform and the inflated
// drop-target hit test.
package geom

import "math"

type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectAt builds a Rect from a top-left corner and size.
func RectAt(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Right: left + width, Bottom: top + height}
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Inflate grows the rectangle symmetrically by m on all four sides.
func (r Rect) Inflate(m float64) Rect {
	return Rect{Left: r.Left - m, Top: r.Top - m, Right: r.Right + m, Bottom: r.Bottom + m}
}

// ContainsPoint reports whether p falls inside the rectangle. Edges are
// inclusive: a point exactly on the boundary counts as inside.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// CenterOverBin is the drop-target predicate: true iff the dragged node's
// center point lies within the bin rectangle inflated by margin. The
// inflation is a deliberate affordance; the visual bin is much smaller than
// the drop target users expect.
func CenterOverBin(nodeRect Rect, binRect Rect, margin float64) bool {
	return binRect.Inflate(margin).ContainsPoint(nodeRect.Center())
}

// Transform is the current pan/zoom state of the canvas viewport.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// ScreenToCanvas inverts the transform, mapping a screen point (relative to
// the canvas element's origin) into canvas coordinates.
func (t Transform) ScreenToCanvas(p Point) Point {
	return Point{
		X: (p.X - t.OffsetX) / t.Scale,
		Y: (p.Y - t.OffsetY) / t.Scale,
	}
}

// CanvasToScreen maps a canvas point into screen coordinates.
func (t Transform) CanvasToScreen(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.OffsetX,
		Y: p.Y*t.Scale + t.OffsetY,
	}
}
