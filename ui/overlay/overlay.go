// Package overlay implements the interactive layers drawn over a microscope
// viewport: rectangle, repetition, line and pixel selections and a point
// picker.
//
// Selections are stored in world coordinates. View positions are derived from
// them whenever the pan or zoom may have changed, and drawing only ever uses
// buffer positions computed from world positions.
package overlay

import (
	"image/color"

	"scopeview/internal/viewport"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

// Canvas is the viewport context an overlay draws on and receives events from.
type Canvas interface {
	ViewToWorld(v geometry.Point2D) geometry.Point2D
	WorldToView(w geometry.Point2D) geometry.Point2D
	ViewToBuffer(v geometry.Point2D) geometry.Point2D
	WorldToBuffer(w geometry.Point2D) geometry.Point2D
	ClipToBuffer(b geometry.Point2D) geometry.Point2D
	BufferSize() geometry.PointInt
	PhysicalToWorld(p geometry.Point2D) geometry.Point2D
	WorldToPhysical(w geometry.Point2D) geometry.Point2D
	SelectionToRealSize(a, b geometry.Point2D) geometry.Size
	ROIRatioToPhys(roi geometry.Box) geometry.Box
	ROIPhysToRatio(phys geometry.Box) geometry.Box

	SetDynamicCursor(c viewport.Cursor)
	ResetDynamicCursor()
	RequestRedraw()
	LeftDragging() bool
	WasDragged() bool

	// CallAfter runs fn on the UI goroutine. Every notification coming
	// from an observable value goes through it before touching overlay
	// state.
	CallAfter(fn func())
}

var _ Canvas = (*viewport.View)(nil)

// Button identifies the pointer button of an event.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonSecondary
)

// PointerEvent is a pointer event in view coordinates.
type PointerEvent struct {
	Pos    geometry.Point2D
	Button Button
}

// Overlay is a layer drawn over the image.
type Overlay interface {
	Draw(s *paint.Surface)
	Active() bool
	Activate()
	Deactivate()
}

// PointerHandler receives the pointer events of the canvas. Each handler
// returns true when it consumed the event; the canvas then skips its own
// handling (panning). Inactive overlays never consume events.
type PointerHandler interface {
	OnPointerDown(ev PointerEvent) bool
	OnPointerUp(ev PointerEvent) bool
	OnPointerMove(ev PointerEvent) bool
	OnPointerLeave() bool
	OnWheel(ev PointerEvent) bool
}

// Interactive is an overlay that also handles pointer events.
type Interactive interface {
	Overlay
	PointerHandler
}

// base is the state shared by all overlays.
type base struct {
	canvas Canvas
	colour color.NRGBA
	active bool
}

func newBase(c Canvas, colour color.NRGBA) base {
	if c == nil {
		panic("overlay: nil canvas")
	}
	return base{canvas: c, colour: colour}
}

// Active reports whether the overlay handles pointer events.
func (b *base) Active() bool {
	return b.active
}

// Activate makes the overlay handle pointer events.
func (b *base) Activate() {
	b.active = true
	b.canvas.RequestRedraw()
}

// Deactivate makes the overlay pass every pointer event through.
func (b *base) Deactivate() {
	b.active = false
	b.canvas.RequestRedraw()
}

// Colour returns the main drawing colour.
func (b *base) Colour() color.NRGBA {
	return b.colour
}

// SetColour changes the main drawing colour.
func (b *base) SetColour(c color.NRGBA) {
	b.colour = c
	b.canvas.RequestRedraw()
}

// setCursor shows c, or the default cursor for CursorDefault.
func (b *base) setCursor(c viewport.Cursor) {
	if c == viewport.CursorDefault {
		b.canvas.ResetDynamicCursor()
		return
	}
	b.canvas.SetDynamicCursor(c)
}
