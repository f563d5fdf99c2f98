package overlay

import (
	"fmt"
	"image/color"
	"math"

	"scopeview/internal/viewport"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/pkg/units"
	"scopeview/ui/paint"
)

const (
	labelOffsetX = 8
	labelOffsetY = 10

	lineStartRadius = 3
	arrowSize       = 12
)

// worldSelect is the core shared by the selection overlays: a view-space
// state machine mirrored by world-space endpoints, which are authoritative.
type worldSelect struct {
	base
	sel            Selection
	wStart, wEnd   *geometry.Point2D
	cursorForHover func(Hover) viewport.Cursor
}

func newWorldSelect(c Canvas, colour color.NRGBA, mode EditMode, cursor func(Hover) viewport.Cursor) worldSelect {
	return worldSelect{
		base:           newBase(c, colour),
		sel:            Selection{EditMode: mode},
		cursorForHover: cursor,
	}
}

// boxCursor picks the cursor for a hover target of a box selection.
func boxCursor(h Hover) viewport.Cursor {
	switch {
	case h == HoverNone:
		return viewport.CursorDefault
	case h == HoverSelection:
		return viewport.CursorMove
	case h == HoverLeftEdge || h == HoverRightEdge:
		return viewport.CursorSizeWE
	case h == HoverTopEdge || h == HoverBottomEdge:
		return viewport.CursorSizeNS
	default:
		return viewport.CursorSizing
	}
}

// viewToWorld updates the world endpoints from the view endpoints.
func (w *worldSelect) viewToWorld() {
	if !w.sel.Defined() {
		w.wStart, w.wEnd = nil, nil
		return
	}
	s := w.canvas.ViewToWorld(*w.sel.Start)
	e := w.canvas.ViewToWorld(*w.sel.End)
	w.wStart, w.wEnd = &s, &e
}

// worldToView updates the view endpoints from the world endpoints, unless a
// gesture is in progress.
func (w *worldSelect) worldToView() {
	if w.sel.Dragging() {
		return
	}
	if w.wStart == nil || w.wEnd == nil {
		w.sel.Start, w.sel.End = nil, nil
		return
	}
	s := w.canvas.WorldToView(*w.wStart)
	e := w.canvas.WorldToView(*w.wEnd)
	w.sel.Start, w.sel.End = &s, &e
}

// Mode returns the selection lifecycle state.
func (w *worldSelect) Mode() SelectionMode {
	return w.sel.Mode
}

// WorldSelection returns the selected endpoints in world coordinates.
func (w *worldSelect) WorldSelection() (start, end geometry.Point2D, ok bool) {
	if w.wStart == nil || w.wEnd == nil {
		return start, end, false
	}
	return *w.wStart, *w.wEnd, true
}

// SetWorldSelection replaces the selection.
func (w *worldSelect) SetWorldSelection(start, end geometry.Point2D) {
	w.wStart, w.wEnd = &start, &end
	w.sel.Mode = SelEdit
	w.worldToView()
	w.canvas.RequestRedraw()
}

// ClearSelection drops the selection.
func (w *worldSelect) ClearSelection() {
	w.sel.Clear()
	w.wStart, w.wEnd = nil, nil
	w.canvas.RequestRedraw()
}

// PhysicalSelection returns the selected box in metres.
func (w *worldSelect) PhysicalSelection() (geometry.Box, bool) {
	if w.wStart == nil || w.wEnd == nil {
		return geometry.Box{}, false
	}
	return geometry.BoxFromCorners(
		w.canvas.WorldToPhysical(*w.wStart),
		w.canvas.WorldToPhysical(*w.wEnd),
	), true
}

// SetPhysicalSelection selects the box b given in metres.
func (w *worldSelect) SetPhysicalSelection(b geometry.Box) {
	b = b.Normalize()
	// Physical Y points up: the top-left corner has the largest Y.
	start := w.canvas.PhysicalToWorld(geometry.Point2D{X: b.MinX, Y: b.MaxY})
	end := w.canvas.PhysicalToWorld(geometry.Point2D{X: b.MaxX, Y: b.MinY})
	w.SetWorldSelection(start, end)
}

// Size returns the physical width and height of the selection.
func (w *worldSelect) Size() geometry.Size {
	if w.wStart == nil || w.wEnd == nil {
		return geometry.Size{}
	}
	return w.canvas.SelectionToRealSize(*w.wStart, *w.wEnd)
}

// SizeLabel returns the size of the selection as shown next to it.
func (w *worldSelect) SizeLabel() string {
	s := w.Size()
	return fmt.Sprintf("%s x %s",
		units.ReadableString(s.Width, "m", 2),
		units.ReadableString(s.Height, "m", 2))
}

// Deactivate ends any gesture in progress and resets the cursor.
func (w *worldSelect) Deactivate() {
	w.endGesture()
	w.canvas.ResetDynamicCursor()
	w.base.Deactivate()
}

// endGesture ends a gesture in progress without a release. It reports
// whether there was one.
func (w *worldSelect) endGesture() bool {
	if !w.sel.Dragging() {
		return false
	}
	w.sel.EndGesture()
	w.viewToWorld()
	return true
}

func (w *worldSelect) pointerDown(ev PointerEvent) bool {
	if !w.active || ev.Button != ButtonPrimary {
		return false
	}
	w.worldToView()
	w.sel.Press(ev.Pos)
	w.viewToWorld()
	w.canvas.RequestRedraw()
	return true
}

func (w *worldSelect) pointerUp(ev PointerEvent) bool {
	if !w.active || !w.sel.Dragging() {
		return false
	}
	w.sel.Release(ev.Pos)
	w.viewToWorld()
	w.canvas.RequestRedraw()
	return true
}

func (w *worldSelect) pointerMove(ev PointerEvent) bool {
	if !w.active {
		return false
	}
	if w.sel.Dragging() {
		w.sel.Drag(ev.Pos)
		w.viewToWorld()
		w.canvas.RequestRedraw()
		return true
	}
	w.worldToView()
	w.setCursor(w.cursorForHover(w.sel.HoverAt(ev.Pos)))
	return false
}

// bufferBox returns the selection box in buffer coordinates.
func (w *worldSelect) bufferBox() (geometry.Box, bool) {
	if w.wStart == nil || w.wEnd == nil {
		return geometry.Box{}, false
	}
	return geometry.BoxFromCorners(
		w.canvas.WorldToBuffer(*w.wStart),
		w.canvas.WorldToBuffer(*w.wEnd),
	), true
}

// drawBox draws the selection rectangle, with its size next to it in the
// edit and create modes.
func (w *worldSelect) drawBox(s *paint.Surface, mode SelectionMode) {
	b, ok := w.bufferBox()
	if !ok {
		return
	}
	r := geometry.Box{MinX: b.MinX + 0.5, MinY: b.MinY + 0.5, MaxX: b.MaxX + 0.5, MaxY: b.MaxY + 0.5}
	s.StrokeRect(r, 4, colorutil.Shade, 0)
	s.StrokeRect(r, 2, w.colour, 3)

	if mode == SelEdit || mode == SelCreate {
		pos := geometry.Point2D{X: b.MaxX + labelOffsetX, Y: b.MaxY - labelOffsetY}
		s.DrawText(pos, w.SizeLabel(), colorutil.LightGrey)
	}
}

// drawArrow draws the selection as a line from a small circle at the start
// to an arrow head at the end.
func (w *worldSelect) drawArrow(s *paint.Surface) {
	if w.wStart == nil || w.wEnd == nil || *w.wStart == *w.wEnd {
		return
	}
	bs := w.canvas.WorldToBuffer(*w.wStart).Sub(geometry.Point2D{X: 0.5, Y: 0.5})
	be := w.canvas.WorldToBuffer(*w.wEnd).Add(geometry.Point2D{X: 0.5, Y: 0.5})

	d := bs.Sub(be)
	if d.Length() == 0 {
		return
	}
	u := d.Unit()

	// The head is 60 degrees wide.
	a := geometry.Rotation(math.Pi / 6).Apply(u)
	b := geometry.Rotation(-math.Pi / 6).Apply(u)
	arrow1 := be.Add(a.Scale(arrowSize))
	arrow2 := be.Add(b.Scale(arrowSize))
	arrowBase := arrow1.Midpoint(arrow2)

	angle := math.Atan2(d.Y, d.X)
	circleEdge := bs.Sub(geometry.Point2D{
		X: math.Cos(angle) * lineStartRadius,
		Y: math.Sin(angle) * lineStartRadius,
	})

	s.StrokeLine(circleEdge, arrowBase, 3, colorutil.Shade, 0)
	s.StrokeLine(circleEdge, arrowBase, 2, w.colour, 3)

	s.StrokeCircle(bs, lineStartRadius, 3.5, colorutil.Shade)
	s.StrokeCircle(bs, lineStartRadius, 1.5, w.colour)

	head := []geometry.Point2D{be, arrow1, arrow2}
	s.StrokePolygon(head, 2, colorutil.Shade)
	s.FillPolygon(head, w.colour)
}

// WorldSelect lets the user draw a rectangle.
type WorldSelect struct {
	worldSelect
}

// NewWorldSelect returns an inactive rectangle selection drawn in colour.
func NewWorldSelect(c Canvas, colour color.NRGBA) *WorldSelect {
	return &WorldSelect{newWorldSelect(c, colour, EditBox, boxCursor)}
}

// Draw draws the rectangle.
func (w *WorldSelect) Draw(s *paint.Surface) {
	w.worldToView()
	w.drawBox(s, w.sel.Mode)
}

func (w *WorldSelect) OnPointerDown(ev PointerEvent) bool { return w.pointerDown(ev) }
func (w *WorldSelect) OnPointerUp(ev PointerEvent) bool   { return w.pointerUp(ev) }
func (w *WorldSelect) OnPointerMove(ev PointerEvent) bool { return w.pointerMove(ev) }
func (w *WorldSelect) OnPointerLeave() bool               { return false }
func (w *WorldSelect) OnWheel(PointerEvent) bool          { return false }
