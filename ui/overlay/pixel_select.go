package overlay

import (
	"errors"
	"image/color"
	"log/slog"

	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

// PixelSelect lets the user pick a data pixel. The pixel under the pointer
// is written to the external selection while the primary button is held and
// when it is released.
type PixelSelect struct {
	base
	grid pixelGrid

	hover        geometry.PointInt
	selectColour color.NRGBA

	pixel     *model.Observable[geometry.PointInt]
	pixelSub  model.Subscription
	widthSub  model.Subscription
	connected bool
}

// NewPixelSelect returns an inactive pixel picker.
func NewPixelSelect(c Canvas) *PixelSelect {
	return &PixelSelect{
		base:         newBase(c, colorutil.MustHex(colorutil.HexSelection, 0.5)),
		grid:         pixelGrid{canvas: c},
		hover:        geometry.NoPixel,
		selectColour: colorutil.MustHex(colorutil.HexHighlight, 0.5),
	}
}

// SetDataProperties sets the pixel grid to pick from.
func (p *PixelSelect) SetDataProperties(props DataProperties) {
	p.grid.props = props
	p.canvas.RequestRedraw()
}

// ConnectSelection binds the overlay to the selected pixel and the width of
// its neighbourhood.
func (p *PixelSelect) ConnectSelection(pixel *model.Observable[geometry.PointInt], width *model.Observable[int]) error {
	if pixel == nil || width == nil {
		return errors.New("pixel select: nil pixel or width")
	}
	p.Disconnect()
	p.pixel = pixel
	p.grid.width = width
	redraw := func() { p.canvas.CallAfter(p.canvas.RequestRedraw) }
	p.pixelSub = pixel.Subscribe(func(geometry.PointInt) { redraw() }, true)
	p.widthSub = width.Subscribe(func(int) { redraw() }, false)
	p.connected = true
	return nil
}

// Disconnect removes the binding set by ConnectSelection.
func (p *PixelSelect) Disconnect() {
	if !p.connected {
		return
	}
	p.pixel.Unsubscribe(p.pixelSub)
	p.grid.width.Unsubscribe(p.widthSub)
	p.pixel, p.grid.width = nil, nil
	p.connected = false
}

// Hover returns the pixel under the pointer, NoPixel if none.
func (p *PixelSelect) Hover() geometry.PointInt {
	return p.hover
}

func (p *PixelSelect) selected() geometry.PointInt {
	if p.pixel == nil {
		return geometry.NoPixel
	}
	return p.pixel.Value()
}

func (p *PixelSelect) write(px geometry.PointInt) {
	if p.pixel == nil {
		return
	}
	slog.Debug("Pixel selected", "pixel", px)
	p.pixel.SetValue(px)
}

// Deactivate also forgets the hovered pixel.
func (p *PixelSelect) Deactivate() {
	p.hover = geometry.NoPixel
	p.base.Deactivate()
}

// OnPointerLeave forgets the hovered pixel.
func (p *PixelSelect) OnPointerLeave() bool {
	if !p.active {
		return false
	}
	p.hover = geometry.NoPixel
	p.canvas.RequestRedraw()
	return true
}

// OnPointerMove follows the pixel under the pointer.
func (p *PixelSelect) OnPointerMove(ev PointerEvent) bool {
	if !p.active {
		return false
	}
	if !p.grid.isOverData(ev.Pos) {
		p.canvas.ResetDynamicCursor()
		if p.hover.Defined() {
			p.hover = geometry.NoPixel
			p.canvas.RequestRedraw()
		}
		return false
	}
	p.canvas.SetDynamicCursor(viewport.CursorCross)
	px := p.grid.viewToPixel(ev.Pos)
	if px != p.hover {
		p.hover = px
		if p.canvas.LeftDragging() {
			p.write(px)
		}
		p.canvas.RequestRedraw()
	}
	return true
}

// OnPointerDown keeps a press over the data from panning the view.
func (p *PixelSelect) OnPointerDown(ev PointerEvent) bool {
	if !p.active || ev.Button != ButtonPrimary {
		return false
	}
	return p.grid.isOverData(ev.Pos)
}

// OnPointerUp selects the hovered pixel.
func (p *PixelSelect) OnPointerUp(ev PointerEvent) bool {
	if !p.active {
		return false
	}
	if !p.hover.Defined() || !p.grid.isOverData(ev.Pos) {
		return false
	}
	if p.hover != p.selected() {
		p.write(p.hover)
	}
	return true
}

func (p *PixelSelect) OnWheel(PointerEvent) bool { return false }

// Draw draws the neighbourhood of the hovered pixel, then that of the
// selected pixel.
func (p *PixelSelect) Draw(s *paint.Surface) {
	if !p.grid.props.Valid() {
		return
	}
	sel := p.selected()
	if p.hover.Defined() && p.hover != sel {
		p.grid.drawPixels(s, p.grid.neighborhood(p.hover), p.colour)
	}
	if sel.Defined() {
		p.grid.drawPixels(s, p.grid.neighborhood(sel), p.selectColour)
	}
}
