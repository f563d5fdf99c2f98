package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTransform() ViewTransform {
	return ViewTransform{
		Center:     Point2D{X: 12.5, Y: -3},
		Scale:      2.5,
		BufferSize: PointInt{X: 900, Y: 700},
		ViewSize:   PointInt{X: 800, Y: 600},
	}
}

func TestViewWorldRoundTrip(t *testing.T) {
	tr := testTransform()
	points := []Point2D{{0, 0}, {10, 10}, {-250.25, 13.125}, {799, 599}, {1e4, -1e4}}
	for _, p := range points {
		back := tr.WorldToView(tr.ViewToWorld(p))
		assert.InDelta(t, p.X, back.X, 1e-9)
		assert.InDelta(t, p.Y, back.Y, 1e-9)

		w := tr.BufferToWorld(tr.WorldToBuffer(p))
		assert.InDelta(t, p.X, w.X, 1e-9)
		assert.InDelta(t, p.Y, w.Y, 1e-9)
	}
}

func TestBufferCentreIsWorldCentre(t *testing.T) {
	tr := testTransform()
	b := tr.WorldToBuffer(tr.Center)
	assert.Equal(t, Point2D{X: 450, Y: 350}, b)

	// The view centre sits on the buffer centre.
	v := tr.WorldToView(tr.Center)
	assert.Equal(t, Point2D{X: 400, Y: 300}, v)
}

func TestIdentityScale(t *testing.T) {
	tr := ViewTransform{Scale: 1, BufferSize: PointInt{X: 100, Y: 100}, ViewSize: PointInt{X: 100, Y: 100}}
	assert.Equal(t, Point2D{X: 50, Y: 50}, tr.ViewToWorld(Point2D{X: 100, Y: 100}))
	assert.Equal(t, Point2D{X: 60, Y: 40}, tr.WorldToBuffer(Point2D{X: 10, Y: -10}))
}

func TestZeroScaleDoesNotPanic(t *testing.T) {
	tr := ViewTransform{BufferSize: PointInt{X: 10, Y: 10}, ViewSize: PointInt{X: 10, Y: 10}}
	w := tr.ViewToWorld(Point2D{X: 7, Y: 3})
	assert.True(t, math.IsInf(w.X, 1))
	assert.True(t, math.IsInf(w.Y, -1))
}

func TestClipToBuffer(t *testing.T) {
	tr := testTransform()
	assert.Equal(t, Point2D{X: 0, Y: 700}, tr.ClipToBuffer(Point2D{X: -20, Y: 1200}))
	assert.Equal(t, Point2D{X: 10, Y: 20}, tr.ClipToBuffer(Point2D{X: 10, Y: 20}))
}

func TestPhysicalWorldFlipsY(t *testing.T) {
	p := Point2D{X: 2e-6, Y: 5e-6}
	w := PhysicalToWorld(p, 1e-6)
	assert.InDelta(t, 2.0, w.X, 1e-12)
	assert.InDelta(t, -5.0, w.Y, 1e-12)

	back := WorldToPhysical(w, 1e-6)
	assert.InDelta(t, p.X, back.X, 1e-18)
	assert.InDelta(t, p.Y, back.Y, 1e-18)
}

func TestBoxFromCornersNormalizes(t *testing.T) {
	b := BoxFromCorners(Point2D{X: 5, Y: -1}, Point2D{X: -2, Y: 4})
	assert.Equal(t, Box{MinX: -2, MinY: -1, MaxX: 5, MaxY: 4}, b)
	assert.Equal(t, 7.0, b.Width())
	assert.Equal(t, 5.0, b.Height())
	assert.True(t, b.Contains(Point2D{X: 0, Y: 0}))
	assert.False(t, b.Contains(Point2D{X: 6, Y: 0}))
}

func TestRotationOfUnitVector(t *testing.T) {
	u := Point2D{X: 1, Y: 0}
	r := Rotation(math.Pi / 3).Apply(u)
	assert.InDelta(t, 0.5, r.X, 1e-12)
	assert.InDelta(t, math.Sqrt(3)/2, r.Y, 1e-12)
}
