// Package viewport holds the pan/zoom state of a microscope canvas and the
// services overlays consume from it: coordinate conversion, cursor changes,
// drag state and redraw scheduling.
package viewport

import (
	"log/slog"
	"math"

	"scopeview/internal/model"
	"scopeview/pkg/geometry"
)

const (
	MinScale = 1e-3
	MaxScale = 1e3
)

// Cursor is the pointer shape an overlay asks the canvas to show.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorMove           // Whole-selection drag
	CursorSizeWE         // Horizontal edge
	CursorSizeNS         // Vertical edge
	CursorSizing         // Corner or handle
	CursorHand           // Clickable item
	CursorPencil         // Draw a new line
	CursorCross          // Pixel picking
)

// View is the canvas context shared by every overlay of a viewport.
// It must only be used from the UI goroutine.
type View struct {
	tr   geometry.ViewTransform
	mpwu float64      // Metres per world unit
	fov  geometry.Box // Physical extent of the full scan field, for ROI ratios

	// MPP holds the metres per buffer pixel and changes on every zoom.
	MPP *model.Observable[float64]

	cursor       Cursor
	leftDragging bool
	wasDragged   bool

	redraw *Redrawer
}

// NewView returns a view with the given render target and viewport sizes.
// mpwu is the number of metres in one world unit.
func NewView(bufferSize, viewSize geometry.PointInt, mpwu float64, d model.Dispatcher) *View {
	v := &View{
		tr: geometry.ViewTransform{
			Scale:      1,
			BufferSize: bufferSize,
			ViewSize:   viewSize,
		},
		mpwu:   mpwu,
		redraw: NewRedrawer(d),
	}
	v.MPP = model.NewObservable(v.mpp())
	return v
}

func (v *View) mpp() float64 {
	return v.mpwu / v.tr.Scale
}

// Transform returns the current pan/zoom context.
func (v *View) Transform() geometry.ViewTransform {
	return v.tr
}

// Center returns the world position at the centre of the buffer.
func (v *View) Center() geometry.Point2D {
	return v.tr.Center
}

// SetCenter pans so that w is at the centre of the buffer.
func (v *View) SetCenter(w geometry.Point2D) {
	v.tr.Center = w
	v.RequestRedraw()
}

// Scale returns the number of buffer pixels per world unit.
func (v *View) Scale() float64 {
	return v.tr.Scale
}

// SetScale sets the zoom, clamped to [MinScale, MaxScale].
func (v *View) SetScale(s float64) {
	s = math.Max(MinScale, math.Min(MaxScale, s))
	if s == v.tr.Scale {
		return
	}
	v.tr.Scale = s
	v.MPP.SetValue(v.mpp())
	v.RequestRedraw()
}

// ZoomAt multiplies the scale by factor, keeping the world position under the
// view position p fixed.
func (v *View) ZoomAt(factor float64, p geometry.Point2D) {
	w := v.ViewToWorld(p)
	v.SetScale(v.tr.Scale * factor)
	after := v.ViewToWorld(p)
	v.tr.Center = v.tr.Center.Add(w.Sub(after))
}

// Pan moves the view by a delta in view pixels and marks the current gesture
// as a drag.
func (v *View) Pan(delta geometry.Point2D) {
	v.tr.Center = v.tr.Center.Sub(delta.Scale(1 / v.tr.Scale))
	v.wasDragged = true
	v.RequestRedraw()
}

// Resize changes the viewport and buffer sizes.
func (v *View) Resize(bufferSize, viewSize geometry.PointInt) {
	v.tr.BufferSize = bufferSize
	v.tr.ViewSize = viewSize
	v.RequestRedraw()
}

// BufferSize returns the render target size.
func (v *View) BufferSize() geometry.PointInt {
	return v.tr.BufferSize
}

// HalfBufferSize returns the buffer centre in buffer pixels.
func (v *View) HalfBufferSize() geometry.Point2D {
	return v.tr.HalfBuffer()
}

// ViewToWorld converts a view position to world coordinates.
func (v *View) ViewToWorld(p geometry.Point2D) geometry.Point2D {
	return v.tr.ViewToWorld(p)
}

// WorldToView converts a world position to view coordinates.
func (v *View) WorldToView(w geometry.Point2D) geometry.Point2D {
	return v.tr.WorldToView(w)
}

// ViewToBuffer converts a view position to buffer coordinates.
func (v *View) ViewToBuffer(p geometry.Point2D) geometry.Point2D {
	return v.tr.ViewToBuffer(p)
}

// WorldToBuffer converts a world position to buffer coordinates.
func (v *View) WorldToBuffer(w geometry.Point2D) geometry.Point2D {
	return v.tr.WorldToBuffer(w)
}

// BufferToWorld converts a buffer position to world coordinates.
func (v *View) BufferToWorld(b geometry.Point2D) geometry.Point2D {
	return v.tr.BufferToWorld(b)
}

// ClipToBuffer clamps a buffer position to the buffer.
func (v *View) ClipToBuffer(b geometry.Point2D) geometry.Point2D {
	return v.tr.ClipToBuffer(b)
}

// MetresPerWorldUnit returns the physical size of one world unit.
func (v *View) MetresPerWorldUnit() float64 {
	return v.mpwu
}

// PhysicalToWorld converts metres to world coordinates.
func (v *View) PhysicalToWorld(p geometry.Point2D) geometry.Point2D {
	return geometry.PhysicalToWorld(p, v.mpwu)
}

// WorldToPhysical converts world coordinates to metres.
func (v *View) WorldToPhysical(w geometry.Point2D) geometry.Point2D {
	return geometry.WorldToPhysical(w, v.mpwu)
}

// SelectionToRealSize returns the physical width and height of the box
// spanned by two world positions.
func (v *View) SelectionToRealSize(a, b geometry.Point2D) geometry.Size {
	return geometry.Size{
		Width:  math.Abs(a.X-b.X) * v.mpwu,
		Height: math.Abs(a.Y-b.Y) * v.mpwu,
	}
}

// SetFieldOfView sets the physical extent that ROI ratios refer to.
func (v *View) SetFieldOfView(fov geometry.Box) {
	v.fov = fov.Normalize()
}

// FieldOfView returns the physical extent that ROI ratios refer to.
func (v *View) FieldOfView() geometry.Box {
	return v.fov
}

// ROIRatioToPhys converts a region of interest given as ratios of the field
// of view (left, top, right, bottom in [0, 1], Y down) to a physical box.
func (v *View) ROIRatioToPhys(roi geometry.Box) geometry.Box {
	c := v.fov.Min().Midpoint(v.fov.Max())
	w, h := v.fov.Width(), v.fov.Height()
	a := geometry.Point2D{X: c.X + w*(roi.MinX-0.5), Y: c.Y - h*(roi.MinY-0.5)}
	b := geometry.Point2D{X: c.X + w*(roi.MaxX-0.5), Y: c.Y - h*(roi.MaxY-0.5)}
	return geometry.BoxFromCorners(a, b)
}

// ROIPhysToRatio converts a physical box to ratios of the field of view,
// clipped to [0, 1].
func (v *View) ROIPhysToRatio(phys geometry.Box) geometry.Box {
	w, h := v.fov.Width(), v.fov.Height()
	if w == 0 || h == 0 {
		slog.Warn("ROI conversion without field of view", "phys", phys)
		return model.UndefinedROI
	}
	c := v.fov.Min().Midpoint(v.fov.Max())
	ratio := func(p geometry.Point2D) geometry.Point2D {
		return geometry.Point2D{
			X: clamp01((p.X-c.X)/w + 0.5),
			Y: clamp01(-(p.Y-c.Y)/h + 0.5),
		}
	}
	return geometry.BoxFromCorners(ratio(phys.Min()), ratio(phys.Max()))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// SetDynamicCursor changes the cursor shown over the canvas.
func (v *View) SetDynamicCursor(c Cursor) {
	v.cursor = c
}

// ResetDynamicCursor restores the default cursor.
func (v *View) ResetDynamicCursor() {
	v.cursor = CursorDefault
}

// Cursor returns the cursor requested by the overlays.
func (v *View) Cursor() Cursor {
	return v.cursor
}

// BeginGesture is called when the primary button goes down.
func (v *View) BeginGesture() {
	v.leftDragging = true
	v.wasDragged = false
}

// EndGesture is called after the primary button release has been handled.
func (v *View) EndGesture() {
	v.leftDragging = false
}

// LeftDragging reports whether the primary button is held.
func (v *View) LeftDragging() bool {
	return v.leftDragging
}

// WasDragged reports whether the view was panned during the current or last
// gesture.
func (v *View) WasDragged() bool {
	return v.wasDragged
}

// SetPaintFunc sets the function performing the actual redraw.
func (v *View) SetPaintFunc(paint func()) {
	v.redraw.SetPaintFunc(paint)
}

// RequestRedraw schedules a repaint. Requests made before the repaint runs
// are merged into one.
func (v *View) RequestRedraw() {
	v.redraw.Request()
}

// CallAfter runs fn on the UI goroutine through the view's dispatcher.
func (v *View) CallAfter(fn func()) {
	v.redraw.d.CallAfter(fn)
}
