package canvas

import (
	goimage "image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scopeview/internal/image"
	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/geometry"
	"scopeview/ui/overlay"
	"scopeview/ui/paint"
)

// recorder is an overlay noting the events it is offered.
type recorder struct {
	name    string
	active  bool
	consume bool
	log     *[]string
}

func (r *recorder) Draw(*paint.Surface) {}
func (r *recorder) Active() bool        { return r.active }
func (r *recorder) Activate()           { r.active = true }
func (r *recorder) Deactivate()         { r.active = false }

func (r *recorder) handle() bool {
	*r.log = append(*r.log, r.name)
	return r.consume
}

func (r *recorder) OnPointerDown(overlay.PointerEvent) bool { return r.handle() }
func (r *recorder) OnPointerUp(overlay.PointerEvent) bool   { return r.handle() }
func (r *recorder) OnPointerMove(overlay.PointerEvent) bool { return r.handle() }
func (r *recorder) OnPointerLeave() bool                    { return r.handle() }
func (r *recorder) OnWheel(overlay.PointerEvent) bool       { return r.handle() }

func TestStackDispatchTopmostFirst(t *testing.T) {
	var log []string
	bottom := &recorder{name: "bottom", active: true, consume: true, log: &log}
	middle := &recorder{name: "middle", log: &log}
	top := &recorder{name: "top", active: true, log: &log}

	var s Stack
	s.Add(bottom)
	s.Add(middle)
	s.Add(top)

	assert.True(t, s.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerLeave() }))
	assert.Equal(t, []string{"top", "bottom"}, log, "inactive overlays are skipped")

	log = nil
	top.consume = true
	assert.True(t, s.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerLeave() }))
	assert.Equal(t, []string{"top"}, log)

	s.Remove(top)
	s.Remove(bottom)
	assert.Equal(t, []overlay.Overlay{middle}, s.Overlays())
	assert.False(t, s.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerLeave() }))
}

func TestComposeDrawsImageThenOverlays(t *testing.T) {
	v := viewport.NewView(geometry.PointInt{X: 100, Y: 100}, geometry.PointInt{X: 100, Y: 100}, 1, model.Immediate)
	img := goimage.NewRGBA(goimage.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	layer := image.NewLayer(img, 1)

	var s Stack
	ws := overlay.NewWorldSelect(v, color.NRGBA{R: 255, A: 255})
	ws.SetWorldSelection(geometry.Point2D{X: -30, Y: -30}, geometry.Point2D{X: 30, Y: 30})
	s.Add(ws)

	dst := goimage.NewRGBA(goimage.Rect(0, 0, 100, 100))
	Compose(dst, v, []*image.Layer{layer}, &s)

	assert.Equal(t, color.RGBA{255, 255, 255, 255}, dst.RGBAAt(50, 50), "image")
	assert.Equal(t, image.Background, dst.RGBAAt(5, 5), "outside the image")
	assert.NotEqual(t, image.Background, dst.RGBAAt(20, 40), "selection edge")
}

func newTestCanvas(t *testing.T) *ViewCanvas {
	t.Helper()
	test.NewTempApp(t)
	vc := NewViewCanvas(1, model.Immediate)
	vc.Resize(fyne.NewSize(100, 100))
	vc.draw(100, 100)
	require.Equal(t, geometry.PointInt{X: 100, Y: 100}, vc.View().BufferSize())
	return vc
}

func mouse(x, y float32, b desktop.MouseButton) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: b}
}

func TestViewCanvasDrivesOverlay(t *testing.T) {
	vc := newTestCanvas(t)
	ws := overlay.NewWorldSelect(vc.View(), color.NRGBA{G: 255, A: 255})
	ws.Activate()
	vc.AddOverlay(ws)

	vc.MouseDown(mouse(50, 50, desktop.MouseButtonPrimary))
	vc.MouseMoved(mouse(60, 60, desktop.MouseButtonPrimary))
	vc.MouseUp(mouse(60, 60, desktop.MouseButtonPrimary))

	start, end, ok := ws.WorldSelection()
	require.True(t, ok)
	assert.Equal(t, geometry.Point2D{X: 0, Y: 0}, start)
	assert.Equal(t, geometry.Point2D{X: 10, Y: 10}, end)
	assert.Equal(t, geometry.Point2D{}, vc.View().Center(), "a consumed drag does not pan")
	assert.False(t, vc.View().LeftDragging())

	vc.MouseMoved(mouse(50, 55, 0))
	assert.Equal(t, desktop.HResizeCursor, vc.Cursor())
	vc.MouseOut()
	assert.Equal(t, desktop.DefaultCursor, vc.Cursor())
}

func TestViewCanvasPansAndZooms(t *testing.T) {
	vc := newTestCanvas(t)
	var pointer geometry.Point2D
	vc.OnPointer(func(p geometry.Point2D) { pointer = p })
	var mpp []float64
	vc.OnZoomChange(func(v float64) { mpp = append(mpp, v) })

	vc.MouseDown(mouse(10, 10, desktop.MouseButtonPrimary))
	vc.MouseMoved(mouse(20, 15, desktop.MouseButtonPrimary))
	vc.MouseUp(mouse(20, 15, desktop.MouseButtonPrimary))
	assert.Equal(t, geometry.Point2D{X: -10, Y: -5}, vc.View().Center())
	assert.True(t, vc.View().WasDragged())
	// View (20, 15) is world (-40, -40), physical Y is up.
	assert.Equal(t, geometry.Point2D{X: -40, Y: 40}, pointer)

	vc.MouseMoved(mouse(30, 30, 0))
	assert.Equal(t, geometry.Point2D{X: -10, Y: -5}, vc.View().Center(), "no button, no pan")

	vc.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(50, 50)}, Scrolled: fyne.NewDelta(0, 1)})
	assert.InDelta(t, zoomStep, vc.View().Scale(), 1e-12)
	assert.Equal(t, []float64{1 / zoomStep}, mpp)

	vc.ZoomOut()
	assert.InDelta(t, 1, vc.View().Scale(), 1e-12)
}

func TestViewCanvasFitToData(t *testing.T) {
	vc := newTestCanvas(t)
	vc.FitToData(geometry.Box{MinX: 10, MinY: 10, MaxX: 60, MaxY: 35})
	assert.InDelta(t, 2, vc.View().Scale(), 1e-12)
	assert.Equal(t, geometry.Point2D{X: 35, Y: -22.5}, vc.View().Center())
}

func TestCursorMapping(t *testing.T) {
	assert.Equal(t, desktop.DefaultCursor, cursorOf(viewport.CursorDefault))
	assert.Equal(t, desktop.VResizeCursor, cursorOf(viewport.CursorSizeNS))
	assert.Equal(t, desktop.PointerCursor, cursorOf(viewport.CursorHand))
	assert.Equal(t, desktop.CrosshairCursor, cursorOf(viewport.CursorCross))
}
