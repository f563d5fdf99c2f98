package canvas

import (
	goimage "image"

	"scopeview/internal/image"
	"scopeview/internal/viewport"
	"scopeview/pkg/geometry"
	"scopeview/ui/overlay"
	"scopeview/ui/paint"
)

// Stack holds the overlays of a viewport in drawing order, the last one on
// top.
type Stack struct {
	overlays []overlay.Overlay
}

// Add puts o on top of the stack.
func (s *Stack) Add(o overlay.Overlay) {
	s.overlays = append(s.overlays, o)
}

// Remove takes o off the stack.
func (s *Stack) Remove(o overlay.Overlay) {
	for i, cur := range s.overlays {
		if cur == o {
			s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
			return
		}
	}
}

// Overlays returns the overlays in drawing order.
func (s *Stack) Overlays() []overlay.Overlay {
	return s.overlays
}

// Dispatch offers a pointer event to the active overlays, topmost first,
// until one consumes it.
func (s *Stack) Dispatch(handle func(overlay.PointerHandler) bool) bool {
	for i := len(s.overlays) - 1; i >= 0; i-- {
		o := s.overlays[i]
		h, ok := o.(overlay.PointerHandler)
		if !ok || !o.Active() {
			continue
		}
		if handle(h) {
			return true
		}
	}
	return false
}

// Compose renders the image layers through the view and draws the overlays
// on top. dst must cover the view buffer.
func Compose(dst *goimage.RGBA, v *viewport.View, layers []*image.Layer, s *Stack) {
	image.Render(dst, layers, v.Transform(), v.MetresPerWorldUnit())
	surf := paint.Wrap(dst)
	for _, o := range s.overlays {
		o.Draw(surf)
	}
}

// FitView centres v on box, given in physical coordinates, and zooms so that
// box fills the buffer. An empty box leaves v unchanged.
func FitView(v *viewport.View, box geometry.Box) {
	if box.Width() <= 0 || box.Height() <= 0 {
		return
	}
	mpwu := v.MetresPerWorldUnit()
	buf := v.BufferSize()
	scale := min(float64(buf.X)*mpwu/box.Width(), float64(buf.Y)*mpwu/box.Height())
	v.SetScale(scale)
	v.SetCenter(v.PhysicalToWorld(box.Min().Midpoint(box.Max())))
}
