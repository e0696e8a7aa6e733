package geom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/ideaboard/internal/geom"
)

func TestRect_ContainsPoint(t *testing.T) {
	t.Parallel()

	r := geom.RectAt(10, 20, 100, 50)

	tests := []struct {
		name string
		p    geom.Point
		want bool
	}{
		{name: "center", p: geom.Point{X: 60, Y: 45}, want: true},
		{name: "on left edge", p: geom.Point{X: 10, Y: 45}, want: true},
		{name: "on bottom-right corner", p: geom.Point{X: 110, Y: 70}, want: true},
		{name: "one unit left of edge", p: geom.Point{X: 9, Y: 45}, want: false},
		{name: "one unit below", p: geom.Point{X: 60, Y: 71}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.ContainsPoint(tt.p))
		})
	}
}

func TestCenterOverBin_InflationWidensTheTarget(t *testing.T) {
	t.Parallel()

	bin := geom.RectAt(100, 100, 40, 40)
	const margin = 70

	tests := []struct {
		name       string
		nodeCenter geom.Point
		want       bool
	}{
		{name: "center inside visual bin", nodeCenter: geom.Point{X: 120, Y: 120}, want: true},
		{name: "center inside inflated margin", nodeCenter: geom.Point{X: 45, Y: 120}, want: true},
		{name: "center exactly on inflated edge", nodeCenter: geom.Point{X: 30, Y: 120}, want: true},
		{name: "center one unit outside inflated edge", nodeCenter: geom.Point{X: 29, Y: 120}, want: false},
		{name: "far away", nodeCenter: geom.Point{X: 500, Y: 500}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node := geom.RectAt(tt.nodeCenter.X-24, tt.nodeCenter.Y-24, 48, 48)
			assert.Equal(t, tt.want, geom.CenterOverBin(node, bin, margin))
		})
	}
}

func TestCenterOverBin_OnlyCenterCounts(t *testing.T) {
	t.Parallel()

	bin := geom.RectAt(100, 100, 40, 40)

	// The node overlaps the inflated bin but its center stays outside.
	node := geom.RectAt(0, 100, 48, 48)
	assert.False(t, geom.CenterOverBin(node, bin, 70))
}

func TestTransform_RoundTrip(t *testing.T) {
	t.Parallel()

	tr := geom.Transform{Scale: 2, OffsetX: 100, OffsetY: -50}
	p := geom.Point{X: 37.5, Y: 12.25}

	got := tr.ScreenToCanvas(tr.CanvasToScreen(p))
	assert.InDelta(t, p.X, got.X, 1e-9)
	assert.InDelta(t, p.Y, got.Y, 1e-9)
}

func TestTransform_IdentityIsNoop(t *testing.T) {
	t.Parallel()

	p := geom.Point{X: 5, Y: 9}
	assert.Equal(t, p, geom.Identity().ScreenToCanvas(p))
	assert.Equal(t, p, geom.Identity().CanvasToScreen(p))
}

func TestPoint_Distance(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5, geom.Point{X: 0, Y: 0}.Distance(geom.Point{X: 3, Y: 4}), 1e-9)
	assert.InDelta(t, 0, geom.Point{X: 1, Y: 1}.Distance(geom.Point{X: 1, Y: 1}), 1e-9)
}
