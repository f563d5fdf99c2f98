package overlay

import (
	"errors"
	"image/color"
	"log/slog"

	"scopeview/internal/model"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

// Colours of the cells along a spectrum line.
var (
	lineCellColour     = colorutil.MustHex(colorutil.HexHighlight, 0.5)
	selectedCellColour = colorutil.MustHex(colorutil.HexEdit, 0.5)
)

// SpectrumLineSelect is a line selection whose ends snap to the centres of
// data pixels. The external selected line is written only when the pointer
// is released.
type SpectrumLineSelect struct {
	worldSelect
	grid pixelGrid

	startPixel, endPixel geometry.PointInt

	line      *model.Observable[geometry.PixelLine]
	lineSub   model.Subscription
	widthSub  model.Subscription
	pixel     *model.Observable[geometry.PointInt]
	connected bool
}

// NewSpectrumLineSelect returns an inactive spectrum line selection.
func NewSpectrumLineSelect(c Canvas, colour color.NRGBA) *SpectrumLineSelect {
	return &SpectrumLineSelect{
		worldSelect: newWorldSelect(c, colour, EditPoint, lineCursor),
		grid:        pixelGrid{canvas: c},
		startPixel:  geometry.NoPixel,
		endPixel:    geometry.NoPixel,
	}
}

// SetDataProperties sets the pixel grid the line snaps to.
func (l *SpectrumLineSelect) SetDataProperties(p DataProperties) {
	l.grid.props = p
	l.canvas.RequestRedraw()
}

// ConnectSelection binds the overlay to the selected line and its width.
// pixel, when not nil, is the selected point on the line; it is cleared
// whenever the line changes.
func (l *SpectrumLineSelect) ConnectSelection(line *model.Observable[geometry.PixelLine], width *model.Observable[int], pixel *model.Observable[geometry.PointInt]) error {
	if line == nil || width == nil {
		return errors.New("spectrum line select: nil line or width")
	}
	l.Disconnect()
	l.ClearSelection()

	l.line = line
	l.grid.width = width
	l.pixel = pixel
	l.lineSub = line.Subscribe(l.onLine, true)
	l.widthSub = width.Subscribe(l.onWidth, false)
	l.connected = true
	return nil
}

// Disconnect removes the binding set by ConnectSelection.
func (l *SpectrumLineSelect) Disconnect() {
	if !l.connected {
		return
	}
	l.line.Unsubscribe(l.lineSub)
	l.grid.width.Unsubscribe(l.widthSub)
	l.line, l.grid.width, l.pixel = nil, nil, nil
	l.connected = false
}

func (l *SpectrumLineSelect) onWidth(int) {
	l.canvas.CallAfter(l.canvas.RequestRedraw)
}

func (l *SpectrumLineSelect) onLine(v geometry.PixelLine) {
	l.canvas.CallAfter(func() {
		if !v.Defined() {
			l.ClearSelection()
			return
		}
		l.startPixel, l.endPixel = v.Start, v.End
		l.sel.Set(l.grid.pixelToView(v.Start), l.grid.pixelToView(v.End))
		l.viewToWorld()
		if l.pixel != nil {
			l.pixel.SetValue(geometry.NoPixel)
		}
		l.canvas.RequestRedraw()
	})
}

// ClearSelection drops the line.
func (l *SpectrumLineSelect) ClearSelection() {
	l.worldSelect.ClearSelection()
	l.startPixel, l.endPixel = geometry.NoPixel, geometry.NoPixel
}

// Pixels returns the snapped ends of the line.
func (l *SpectrumLineSelect) Pixels() geometry.PixelLine {
	return geometry.PixelLine{Start: l.startPixel, End: l.endPixel}
}

// snap moves both ends of the line to the centre of their pixel, or of the
// nearest data pixel.
func (l *SpectrumLineSelect) snap() {
	if !l.sel.Defined() {
		return
	}
	l.startPixel = l.grid.clampPixel(l.grid.viewToPixel(*l.sel.Start))
	l.endPixel = l.grid.clampPixel(l.grid.viewToPixel(*l.sel.End))
	s, e := l.grid.pixelToView(l.startPixel), l.grid.pixelToView(l.endPixel)
	l.sel.Start, l.sel.End = &s, &e
	l.viewToWorld()
}

// Draw draws the cells covered by the line, then the line itself. A line
// whose ends are in the same pixel is not drawn.
func (l *SpectrumLineSelect) Draw(s *paint.Surface) {
	l.worldToView()
	if l.startPixel == l.endPixel || (l.wStart != nil && l.wEnd != nil && *l.wStart == *l.wEnd) {
		return
	}
	if l.grid.props.Valid() && l.startPixel.Defined() && l.endPixel.Defined() {
		cells := geometry.ClipPixels(
			geometry.RasterizeLine(l.startPixel, l.endPixel, l.grid.selectionWidth()),
			l.grid.props.Resolution)

		selected := make(map[geometry.PointInt]bool)
		if l.pixel != nil {
			for _, px := range l.grid.neighborhood(l.pixel.Value()) {
				selected[px] = true
			}
		}
		var plain, picked []geometry.PointInt
		for _, c := range cells {
			if selected[c] {
				picked = append(picked, c)
			} else {
				plain = append(plain, c)
			}
		}
		l.grid.drawPixels(s, plain, lineCellColour)
		l.grid.drawPixels(s, picked, selectedCellColour)
	}
	l.drawArrow(s)
}

// OnPointerDown starts a line when the pointer is over the data.
func (l *SpectrumLineSelect) OnPointerDown(ev PointerEvent) bool {
	if !l.active || !l.grid.isOverData(ev.Pos) {
		return false
	}
	if !l.pointerDown(ev) {
		return false
	}
	l.snap()
	return true
}

// OnPointerMove drags the line, snapped to the pixels under the pointer.
func (l *SpectrumLineSelect) OnPointerMove(ev PointerEvent) bool {
	if !l.active {
		return false
	}
	if !l.grid.isOverData(ev.Pos) {
		l.canvas.ResetDynamicCursor()
		return false
	}
	consumed := l.pointerMove(ev)
	if consumed {
		l.snap()
	}
	return consumed
}

// OnPointerUp ends the gesture and writes the line.
func (l *SpectrumLineSelect) OnPointerUp(ev PointerEvent) bool {
	if !l.pointerUp(ev) {
		return false
	}
	l.commit()
	return true
}

// Deactivate ends any gesture in progress, writing its line.
func (l *SpectrumLineSelect) Deactivate() {
	if l.endGesture() {
		l.commit()
	}
	l.worldSelect.Deactivate()
}

// commit snaps the ended line to the pixels and writes it. Both ends in the
// same pixel give no line.
func (l *SpectrumLineSelect) commit() {
	l.snap()
	if l.sel.Defined() && l.startPixel == l.endPixel {
		l.ClearSelection()
	}
	if l.line == nil {
		return
	}
	v := geometry.NoPixelLine
	if l.sel.Defined() {
		v = l.Pixels()
	}
	slog.Debug("Spectrum line selected", "line", v)
	l.line.SetValue(v)
}

func (l *SpectrumLineSelect) OnPointerLeave() bool      { return false }
func (l *SpectrumLineSelect) OnWheel(PointerEvent) bool { return false }
