package overlay

import (
	"image/color"

	"scopeview/internal/viewport"
	"scopeview/ui/paint"
)

func lineCursor(h Hover) viewport.Cursor {
	if h == HoverStart || h == HoverEnd {
		return viewport.CursorHand
	}
	return viewport.CursorPencil
}

// LineSelect lets the user draw a directed line, shown as an arrow.
type LineSelect struct {
	worldSelect
}

// NewLineSelect returns an inactive line selection drawn in colour.
func NewLineSelect(c Canvas, colour color.NRGBA) *LineSelect {
	return &LineSelect{newWorldSelect(c, colour, EditPoint, lineCursor)}
}

// Length returns the length of the line in world units, 0 when nothing is
// selected.
func (l *LineSelect) Length() float64 {
	if l.wStart == nil || l.wEnd == nil {
		return 0
	}
	return l.wStart.Distance(*l.wEnd)
}

// Draw draws the arrow. A line of zero length is not drawn.
func (l *LineSelect) Draw(s *paint.Surface) {
	l.worldToView()
	l.drawArrow(s)
}

func (l *LineSelect) OnPointerDown(ev PointerEvent) bool { return l.pointerDown(ev) }
func (l *LineSelect) OnPointerUp(ev PointerEvent) bool   { return l.pointerUp(ev) }
func (l *LineSelect) OnPointerMove(ev PointerEvent) bool { return l.pointerMove(ev) }
func (l *LineSelect) OnPointerLeave() bool               { return false }
func (l *LineSelect) OnWheel(PointerEvent) bool          { return false }
