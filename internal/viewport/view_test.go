package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scopeview/internal/model"
	"scopeview/pkg/geometry"
)

func newTestView(d model.Dispatcher) *View {
	return NewView(geometry.PointInt{X: 400, Y: 300}, geometry.PointInt{X: 200, Y: 100}, 1e-6, d)
}

func TestViewRoundTrip(t *testing.T) {
	v := newTestView(model.Immediate)
	v.SetCenter(geometry.Point2D{X: 10, Y: -5})
	v.SetScale(4)

	p := geometry.Point2D{X: 37, Y: 81}
	back := v.WorldToView(v.ViewToWorld(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	assert.Equal(t, geometry.Point2D{X: 200, Y: 150}, v.WorldToBuffer(v.Center()))
	assert.Equal(t, geometry.Point2D{X: 100, Y: 100}, v.ViewToBuffer(geometry.Point2D{}))
}

func TestViewMPPFollowsZoom(t *testing.T) {
	v := newTestView(model.Immediate)
	var seen []float64
	v.MPP.Subscribe(func(mpp float64) { seen = append(seen, mpp) }, true)

	v.SetScale(2)
	v.SetScale(2)
	v.SetScale(1e9)

	require.Len(t, seen, 3)
	assert.InDelta(t, 1e-6, seen[0], 1e-18)
	assert.InDelta(t, 5e-7, seen[1], 1e-18)
	assert.InDelta(t, 1e-6/MaxScale, seen[2], 1e-18)
}

func TestViewZoomAtKeepsPointFixed(t *testing.T) {
	v := newTestView(model.Immediate)
	p := geometry.Point2D{X: 20, Y: 70}
	before := v.ViewToWorld(p)

	v.ZoomAt(3, p)
	after := v.ViewToWorld(p)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.Equal(t, 3.0, v.Scale())
}

func TestViewPanMarksDrag(t *testing.T) {
	v := newTestView(model.Immediate)
	v.SetScale(2)
	v.BeginGesture()
	assert.True(t, v.LeftDragging())
	assert.False(t, v.WasDragged())

	v.Pan(geometry.Point2D{X: 10, Y: -4})
	assert.True(t, v.WasDragged())
	assert.Equal(t, geometry.Point2D{X: -5, Y: 2}, v.Center())

	v.EndGesture()
	assert.False(t, v.LeftDragging())
	assert.True(t, v.WasDragged())
}

func TestSelectionToRealSize(t *testing.T) {
	v := NewView(geometry.PointInt{X: 100, Y: 100}, geometry.PointInt{X: 100, Y: 100}, 1, model.Immediate)
	s := v.SelectionToRealSize(geometry.Point2D{X: 5, Y: 15}, geometry.Point2D{X: -5, Y: 5})
	assert.Equal(t, geometry.Size{Width: 10, Height: 10}, s)
}

func TestROIRatioPhysRoundTrip(t *testing.T) {
	v := newTestView(model.Immediate)
	v.SetFieldOfView(geometry.Box{MinX: -50e-6, MinY: -25e-6, MaxX: 50e-6, MaxY: 25e-6})

	full := v.ROIRatioToPhys(geometry.Box{MaxX: 1, MaxY: 1})
	assert.True(t, full.Approx(v.FieldOfView(), 1e-12), "%+v", full)

	// Top-left quarter: physical Y is up.
	q := v.ROIRatioToPhys(geometry.Box{MaxX: 0.5, MaxY: 0.5})
	assert.True(t, q.Approx(geometry.Box{MinX: -50e-6, MinY: 0, MaxX: 0, MaxY: 25e-6}, 1e-12), "%+v", q)

	roi := geometry.Box{MinX: 0.1, MinY: 0.2, MaxX: 0.7, MaxY: 0.9}
	back := v.ROIPhysToRatio(v.ROIRatioToPhys(roi))
	assert.True(t, back.Approx(roi, 1e-9), "%+v", back)
}

func TestROIPhysToRatioClips(t *testing.T) {
	v := newTestView(model.Immediate)
	v.SetFieldOfView(geometry.Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	r := v.ROIPhysToRatio(geometry.Box{MinX: -5, MinY: -5, MaxX: 5, MaxY: 20})
	assert.Equal(t, geometry.Box{MinX: 0, MinY: 0, MaxX: 0.5, MaxY: 1}, r)

	v.SetFieldOfView(geometry.Box{})
	assert.Equal(t, model.UndefinedROI, v.ROIPhysToRatio(r))
}

func TestDynamicCursor(t *testing.T) {
	v := newTestView(model.Immediate)
	assert.Equal(t, CursorDefault, v.Cursor())
	v.SetDynamicCursor(CursorHand)
	assert.Equal(t, CursorHand, v.Cursor())
	v.ResetDynamicCursor()
	assert.Equal(t, CursorDefault, v.Cursor())
}

func TestRedrawRequestsCoalesce(t *testing.T) {
	var q model.Queue
	v := newTestView(&q)
	paints := 0
	v.SetPaintFunc(func() { paints++ })

	v.RequestRedraw()
	v.RequestRedraw()
	v.SetCenter(geometry.Point2D{X: 1})
	assert.Equal(t, 1, q.Len())
	assert.Zero(t, paints)

	q.Flush()
	assert.Equal(t, 1, paints)

	v.RequestRedraw()
	q.Flush()
	assert.Equal(t, 2, paints)
}
