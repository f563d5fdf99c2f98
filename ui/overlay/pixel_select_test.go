package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

func newPixelSelect(t *testing.T) (*PixelSelect, *viewport.View, *model.Observable[geometry.PointInt], *[]geometry.PointInt) {
	t.Helper()
	v := newTestView(1)
	p := NewPixelSelect(v)
	p.SetDataProperties(testData)
	pixel := model.NewObservable(geometry.NoPixel)
	require.NoError(t, p.ConnectSelection(pixel, model.NewObservable(1)))

	var writes []geometry.PointInt
	pixel.Subscribe(func(px geometry.PointInt) { writes = append(writes, px) }, false)
	p.Activate()
	return p, v, pixel, &writes
}

func TestPixelSelectHover(t *testing.T) {
	p, v, pixel, writes := newPixelSelect(t)

	assert.True(t, p.OnPointerMove(PointerEvent{Pos: pt(25, 25)}))
	assert.Equal(t, px(2, 2), p.Hover())
	assert.Equal(t, viewport.CursorCross, v.Cursor())
	assert.Equal(t, geometry.NoPixel, pixel.Value(), "hovering does not select")
	assert.Empty(t, *writes)

	assert.False(t, p.OnPointerMove(PointerEvent{Pos: pt(150, 50)}))
	assert.Equal(t, viewport.CursorDefault, v.Cursor())
}

func TestPixelSelectWritesWhileDragging(t *testing.T) {
	p, v, pixel, writes := newPixelSelect(t)

	v.BeginGesture()
	assert.True(t, p.OnPointerDown(down(pt(25, 25))))
	p.OnPointerMove(down(pt(35, 25)))
	p.OnPointerMove(down(pt(37, 28)))
	p.OnPointerMove(down(pt(45, 25)))
	assert.Equal(t, []geometry.PointInt{px(3, 2), px(4, 2)}, *writes)

	assert.True(t, p.OnPointerUp(down(pt(45, 25))))
	v.EndGesture()
	assert.Len(t, *writes, 2, "release on the selected pixel")
	assert.Equal(t, px(4, 2), pixel.Value())
}

func TestPixelSelectClick(t *testing.T) {
	p, v, pixel, _ := newPixelSelect(t)

	p.OnPointerMove(PointerEvent{Pos: pt(65, 65)})
	v.BeginGesture()
	p.OnPointerDown(down(pt(65, 65)))
	p.OnPointerUp(down(pt(65, 65)))
	v.EndGesture()
	assert.Equal(t, px(6, 6), pixel.Value())
}

func TestPixelSelectForgetsHover(t *testing.T) {
	p, _, _, _ := newPixelSelect(t)

	p.OnPointerMove(PointerEvent{Pos: pt(25, 25)})
	assert.True(t, p.OnPointerLeave())
	assert.Equal(t, geometry.NoPixel, p.Hover())

	p.OnPointerMove(PointerEvent{Pos: pt(25, 25)})
	p.Deactivate()
	assert.Equal(t, geometry.NoPixel, p.Hover())
	assert.False(t, p.OnPointerMove(PointerEvent{Pos: pt(25, 25)}))
	assert.Equal(t, geometry.NoPixel, p.Hover())
}

func TestPixelSelectDraw(t *testing.T) {
	p, _, pixel, _ := newPixelSelect(t)
	s := paint.NewSurface(100, 100)

	pixel.SetValue(px(5, 5))
	p.OnPointerMove(PointerEvent{Pos: pt(15, 15)})
	p.Draw(s)

	assert.True(t, painted(s, 55, 55), "selected pixel")
	assert.True(t, painted(s, 15, 15), "hovered pixel")
	assert.False(t, painted(s, 35, 35))
	assert.NotEqual(t, s.Image().RGBAAt(55, 55), s.Image().RGBAAt(15, 15))
}

func TestPixelSelectConnectNil(t *testing.T) {
	p := NewPixelSelect(newTestView(1))
	assert.Error(t, p.ConnectSelection(nil, model.NewObservable(1)))
}

func TestPixelSelectLeavingDataDropsHover(t *testing.T) {
	p, _, _, _ := newPixelSelect(t)

	p.OnPointerMove(PointerEvent{Pos: pt(25, 25)})
	s := paint.NewSurface(100, 100)
	p.Draw(s)
	assert.True(t, painted(s, 25, 25))

	assert.False(t, p.OnPointerMove(PointerEvent{Pos: pt(150, 50)}))
	assert.Equal(t, geometry.NoPixel, p.Hover())
	s.Clear()
	p.Draw(s)
	assert.True(t, blank(s))
}
