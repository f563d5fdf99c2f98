// Package canvas provides the microscope viewport widget: the image layers
// rendered through a pan/zoom view with the selection overlays on top.
package canvas

import (
	goimage "image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"scopeview/internal/image"
	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/geometry"
	"scopeview/ui/overlay"
)

const zoomStep = 1.25

// ViewCanvas displays image layers through a viewport.View. Pointer events
// go to the overlays first; those nobody consumes pan and zoom the view.
type ViewCanvas struct {
	widget.BaseWidget

	view    *viewport.View
	stack   Stack
	layers  []*image.Layer
	raster  *fynecanvas.Raster
	pxScale float32 // Raster pixels per fyne unit

	// Interaction state
	pressed overlay.Button
	panning bool
	lastPos geometry.Point2D

	// Last rendered output for export
	lastOutput *goimage.RGBA

	// Callbacks
	onZoomChange func(mpp float64)
	onPointer    func(phys geometry.Point2D) // Physical position under the pointer
}

var (
	_ desktop.Mouseable   = (*ViewCanvas)(nil)
	_ desktop.Hoverable   = (*ViewCanvas)(nil)
	_ desktop.Cursorable  = (*ViewCanvas)(nil)
	_ fyne.Scrollable     = (*ViewCanvas)(nil)
	_ fyne.CanvasObject   = (*ViewCanvas)(nil)
	_ fyne.WidgetRenderer = (*viewCanvasRenderer)(nil)
)

// NewViewCanvas creates a viewport with mpwu metres per world unit. Repaints
// and overlay callbacks run through d.
func NewViewCanvas(mpwu float64, d model.Dispatcher) *ViewCanvas {
	vc := &ViewCanvas{pxScale: 1}
	size := geometry.PointInt{X: 1, Y: 1}
	vc.view = viewport.NewView(size, size, mpwu, d)
	vc.raster = fynecanvas.NewRaster(vc.draw)
	vc.raster.ScaleMode = fynecanvas.ImageScalePixels
	vc.raster.SetMinSize(fyne.NewSize(400, 300))
	vc.view.SetPaintFunc(vc.raster.Refresh)
	vc.view.MPP.Subscribe(func(mpp float64) {
		if vc.onZoomChange != nil {
			vc.onZoomChange(mpp)
		}
	}, false)
	vc.ExtendBaseWidget(vc)
	return vc
}

// View returns the view the overlays must be created on.
func (vc *ViewCanvas) View() *viewport.View {
	return vc.view
}

// AddOverlay puts o on top of the other overlays.
func (vc *ViewCanvas) AddOverlay(o overlay.Overlay) {
	vc.stack.Add(o)
	vc.view.RequestRedraw()
}

// RemoveOverlay takes o off the canvas.
func (vc *ViewCanvas) RemoveOverlay(o overlay.Overlay) {
	vc.stack.Remove(o)
	vc.view.RequestRedraw()
}

// SetLayers replaces the displayed images, the first one at the bottom.
func (vc *ViewCanvas) SetLayers(layers []*image.Layer) {
	vc.layers = layers
	vc.view.RequestRedraw()
}

// FitToData centres the view on box (physical) and zooms so that it fills
// the viewport.
func (vc *ViewCanvas) FitToData(box geometry.Box) {
	FitView(vc.view, box)
}

// ZoomIn zooms in around the centre of the view.
func (vc *ViewCanvas) ZoomIn() {
	vc.view.SetScale(vc.view.Scale() * zoomStep)
}

// ZoomOut zooms out around the centre of the view.
func (vc *ViewCanvas) ZoomOut() {
	vc.view.SetScale(vc.view.Scale() / zoomStep)
}

// OnZoomChange sets the callback for zoom changes, given in metres per pixel.
func (vc *ViewCanvas) OnZoomChange(callback func(mpp float64)) {
	vc.onZoomChange = callback
}

// OnPointer sets the callback reporting the physical position under the
// pointer.
func (vc *ViewCanvas) OnPointer(callback func(phys geometry.Point2D)) {
	vc.onPointer = callback
}

// RenderedOutput returns the last rendered frame.
func (vc *ViewCanvas) RenderedOutput() *goimage.RGBA {
	return vc.lastOutput
}

// draw is the raster generator. The buffer follows the raster size.
func (vc *ViewCanvas) draw(w, h int) goimage.Image {
	if w <= 0 || h <= 0 {
		return goimage.NewRGBA(goimage.Rect(0, 0, 1, 1))
	}
	if size := vc.Size(); size.Width > 0 {
		vc.pxScale = float32(w) / size.Width
	}
	size := geometry.PointInt{X: w, Y: h}
	if vc.view.BufferSize() != size {
		vc.view.Resize(size, size)
	}
	if vc.lastOutput == nil || vc.lastOutput.Bounds().Dx() != w || vc.lastOutput.Bounds().Dy() != h {
		vc.lastOutput = goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	}
	Compose(vc.lastOutput, vc.view, vc.layers, &vc.stack)
	return vc.lastOutput
}

// toView converts a widget position to view pixels.
func (vc *ViewCanvas) toView(pos fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(pos.X * vc.pxScale), Y: float64(pos.Y * vc.pxScale)}
}

func buttonOf(b desktop.MouseButton) overlay.Button {
	switch b {
	case desktop.MouseButtonPrimary:
		return overlay.ButtonPrimary
	case desktop.MouseButtonSecondary:
		return overlay.ButtonSecondary
	default:
		return overlay.ButtonNone
	}
}

// MouseDown starts a gesture. A primary press the overlays do not consume
// pans the view, as does a middle press.
func (vc *ViewCanvas) MouseDown(ev *desktop.MouseEvent) {
	pos := vc.toView(ev.Position)
	vc.pressed = buttonOf(ev.Button)
	vc.lastPos = pos
	if vc.pressed == overlay.ButtonPrimary {
		vc.view.BeginGesture()
	}
	pe := overlay.PointerEvent{Pos: pos, Button: vc.pressed}
	consumed := vc.stack.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerDown(pe) })
	vc.panning = !consumed && (vc.pressed == overlay.ButtonPrimary || ev.Button == desktop.MouseButtonTertiary)
}

// MouseUp ends a gesture.
func (vc *ViewCanvas) MouseUp(ev *desktop.MouseEvent) {
	pe := overlay.PointerEvent{Pos: vc.toView(ev.Position), Button: buttonOf(ev.Button)}
	vc.stack.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerUp(pe) })
	if pe.Button == overlay.ButtonPrimary {
		vc.view.EndGesture()
	}
	vc.pressed = overlay.ButtonNone
	vc.panning = false
}

func (vc *ViewCanvas) MouseIn(ev *desktop.MouseEvent) {
	vc.MouseMoved(ev)
}

// MouseMoved offers the move to the overlays and pans when a pan gesture is
// in progress.
func (vc *ViewCanvas) MouseMoved(ev *desktop.MouseEvent) {
	pos := vc.toView(ev.Position)
	pe := overlay.PointerEvent{Pos: pos, Button: vc.pressed}
	consumed := vc.stack.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerMove(pe) })
	if !consumed && vc.panning {
		vc.view.Pan(pos.Sub(vc.lastPos))
	}
	vc.lastPos = pos
	if vc.onPointer != nil {
		vc.onPointer(vc.view.WorldToPhysical(vc.view.ViewToWorld(pos)))
	}
}

func (vc *ViewCanvas) MouseOut() {
	vc.stack.Dispatch(func(h overlay.PointerHandler) bool { return h.OnPointerLeave() })
	vc.view.ResetDynamicCursor()
}

// Scrolled zooms around the pointer unless an overlay consumes the wheel.
func (vc *ViewCanvas) Scrolled(ev *fyne.ScrollEvent) {
	pos := vc.toView(ev.Position)
	pe := overlay.PointerEvent{Pos: pos}
	if vc.stack.Dispatch(func(h overlay.PointerHandler) bool { return h.OnWheel(pe) }) {
		return
	}
	switch {
	case ev.Scrolled.DY > 0:
		vc.view.ZoomAt(zoomStep, pos)
	case ev.Scrolled.DY < 0:
		vc.view.ZoomAt(1/zoomStep, pos)
	}
}

// Cursor returns the cursor the overlays asked for.
func (vc *ViewCanvas) Cursor() desktop.Cursor {
	return cursorOf(vc.view.Cursor())
}

func cursorOf(c viewport.Cursor) desktop.Cursor {
	switch c {
	case viewport.CursorMove, viewport.CursorHand:
		return desktop.PointerCursor
	case viewport.CursorSizeWE:
		return desktop.HResizeCursor
	case viewport.CursorSizeNS:
		return desktop.VResizeCursor
	case viewport.CursorSizing, viewport.CursorPencil, viewport.CursorCross:
		return desktop.CrosshairCursor
	default:
		return desktop.DefaultCursor
	}
}

func (vc *ViewCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &viewCanvasRenderer{vc: vc}
}

type viewCanvasRenderer struct {
	vc *ViewCanvas
}

func (r *viewCanvasRenderer) Layout(size fyne.Size) {
	r.vc.raster.Resize(size)
}

func (r *viewCanvasRenderer) MinSize() fyne.Size {
	return r.vc.raster.MinSize()
}

func (r *viewCanvasRenderer) Refresh() {
	r.vc.raster.Refresh()
}

func (r *viewCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.vc.raster}
}

func (r *viewCanvasRenderer) Destroy() {}
