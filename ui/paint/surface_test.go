package paint

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"scopeview/pkg/geometry"
)

var red = color.NRGBA{R: 255, A: 255}

func alphaAt(s *Surface, x, y int) uint8 {
	return s.Image().RGBAAt(x, y).A
}

func TestFillRect(t *testing.T) {
	s := NewSurface(20, 20)
	s.FillRect(geometry.Box{MinX: 5, MinY: 5, MaxX: 10, MaxY: 10}, red)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, s.Image().RGBAAt(7, 7))
	assert.Zero(t, alphaAt(s, 4, 7))
	assert.Zero(t, alphaAt(s, 10, 7))
}

func TestFillRectsPaintsOverlapOnce(t *testing.T) {
	s := NewSurface(20, 20)
	half := color.NRGBA{R: 255, A: 128}
	s.FillRects([]geometry.Box{
		{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15},
	}, half)
	assert.Equal(t, alphaAt(s, 2, 2), alphaAt(s, 7, 7))
}

func TestStrokeLineSolidAndDashed(t *testing.T) {
	s := NewSurface(40, 10)
	s.StrokeLine(geometry.Point2D{X: 2, Y: 5}, geometry.Point2D{X: 38, Y: 5}, 2, red, 0)
	for x := 2; x < 38; x++ {
		assert.NotZero(t, alphaAt(s, x, 4), "x=%d", x)
	}

	d := NewSurface(40, 10)
	d.StrokeLine(geometry.Point2D{X: 0, Y: 5}, geometry.Point2D{X: 40, Y: 5}, 2, red, 4)
	// Dashes of 4 with square caps of 1: [0,4] painted, (5,7) gap.
	assert.NotZero(t, alphaAt(d, 2, 4))
	assert.Zero(t, alphaAt(d, 6, 4))
	assert.NotZero(t, alphaAt(d, 10, 4))
}

func TestStrokeLinesPaintsCrossingOnce(t *testing.T) {
	s := NewSurface(20, 20)
	half := color.NRGBA{R: 255, A: 128}
	s.StrokeLines([]Segment{
		{A: geometry.Point2D{X: 0, Y: 5}, B: geometry.Point2D{X: 20, Y: 5}},
		{A: geometry.Point2D{X: 10, Y: 0}, B: geometry.Point2D{X: 10, Y: 20}},
	}, 2, half)

	assert.NotZero(t, alphaAt(s, 3, 5))
	assert.NotZero(t, alphaAt(s, 10, 15))
	assert.Equal(t, alphaAt(s, 3, 5), alphaAt(s, 10, 5))
	assert.Zero(t, alphaAt(s, 15, 15))

	empty := NewSurface(5, 5)
	empty.StrokeLines(nil, 2, red)
	assert.Zero(t, alphaAt(empty, 2, 2))
}

func TestStrokeRectLeavesInsideEmpty(t *testing.T) {
	s := NewSurface(30, 30)
	s.StrokeRect(geometry.Box{MinX: 5, MinY: 5, MaxX: 25, MaxY: 25}, 2, red, 0)
	assert.NotZero(t, alphaAt(s, 15, 4))
	assert.NotZero(t, alphaAt(s, 4, 15))
	assert.Zero(t, alphaAt(s, 15, 15))
}

func TestCircles(t *testing.T) {
	s := NewSurface(40, 40)
	s.FillCircle(geometry.Point2D{X: 10, Y: 10}, 5, red)
	assert.Equal(t, uint8(255), alphaAt(s, 10, 10))
	assert.Zero(t, alphaAt(s, 10, 17))

	s.StrokeCircle(geometry.Point2D{X: 30, Y: 30}, 6, 2, red)
	assert.Zero(t, alphaAt(s, 30, 30), "ring is hollow")
	assert.NotZero(t, alphaAt(s, 36, 30))
}

func TestPolygon(t *testing.T) {
	s := NewSurface(20, 20)
	tri := []geometry.Point2D{{X: 2, Y: 2}, {X: 18, Y: 2}, {X: 10, Y: 18}}
	s.FillPolygon(tri, red)
	assert.Equal(t, uint8(255), alphaAt(s, 10, 6))
	assert.Zero(t, alphaAt(s, 2, 17))

	o := NewSurface(20, 20)
	o.StrokePolygon(tri, 1, red)
	assert.Zero(t, alphaAt(o, 10, 8))
	assert.NotZero(t, alphaAt(o, 10, 2))
}

func TestDrawText(t *testing.T) {
	s := NewSurface(80, 20)
	s.DrawText(geometry.Point2D{X: 2, Y: 14}, "10 m", red)

	painted := 0
	pix := s.Image().Pix
	for i := 3; i < len(pix); i += 4 {
		if pix[i] != 0 {
			painted++
		}
	}
	assert.NotZero(t, painted)
	assert.Equal(t, 28, TextWidth("10 m"))
}

func TestBlit(t *testing.T) {
	src := NewSurface(4, 4)
	src.FillRect(geometry.Box{MaxX: 4, MaxY: 4}, red)

	s := NewSurface(10, 10)
	s.Blit(src.Image(), image.Pt(3, 3))
	assert.Zero(t, alphaAt(s, 2, 2))
	assert.Equal(t, uint8(255), alphaAt(s, 3, 3))
	assert.Equal(t, uint8(255), alphaAt(s, 6, 6))
	assert.Zero(t, alphaAt(s, 7, 7))

	s.Clear()
	assert.Zero(t, alphaAt(s, 3, 3))
}
