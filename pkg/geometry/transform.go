package geometry

import "math"

// ViewTransform holds the pan/zoom context of a canvas and converts between
// its coordinate spaces:
//
//   - view: pointer pixels inside the visible viewport
//   - buffer: pixels of the off-screen render target, centred on the view
//   - world: canvas units independent of pan and zoom
//
// The zero value is degenerate (Scale 0): conversions towards world space
// then return infinities instead of failing.
type ViewTransform struct {
	Center     Point2D  // World position of the buffer centre
	Scale      float64  // Buffer pixels per world unit
	BufferSize PointInt // Render target size
	ViewSize   PointInt // Visible viewport size
}

// Margins returns the offset of the viewport inside the buffer.
func (t ViewTransform) Margins() Point2D {
	return Point2D{
		X: float64((t.BufferSize.X - t.ViewSize.X) / 2),
		Y: float64((t.BufferSize.Y - t.ViewSize.Y) / 2),
	}
}

// HalfBuffer returns the buffer centre in buffer coordinates.
func (t ViewTransform) HalfBuffer() Point2D {
	return Point2D{X: float64(t.BufferSize.X / 2), Y: float64(t.BufferSize.Y / 2)}
}

// ViewToBuffer converts a view position to buffer coordinates.
func (t ViewTransform) ViewToBuffer(v Point2D) Point2D {
	return v.Add(t.Margins())
}

// BufferToView converts a buffer position to view coordinates.
func (t ViewTransform) BufferToView(b Point2D) Point2D {
	return b.Sub(t.Margins())
}

// worldToBufferMatrix maps world positions to buffer positions.
func (t ViewTransform) worldToBufferMatrix() AffineTransform {
	half := t.HalfBuffer()
	return Translation(half.X, half.Y).
		Compose(Scale(t.Scale, t.Scale)).
		Compose(Translation(-t.Center.X, -t.Center.Y))
}

// WorldToBuffer converts a world position to buffer coordinates. The result
// may lie outside the buffer when zoomed in.
func (t ViewTransform) WorldToBuffer(w Point2D) Point2D {
	return t.worldToBufferMatrix().Apply(w)
}

// BufferToWorld converts a buffer position to world coordinates.
func (t ViewTransform) BufferToWorld(b Point2D) Point2D {
	half := t.HalfBuffer()
	return Point2D{
		X: t.Center.X + (b.X-half.X)/t.Scale,
		Y: t.Center.Y + (b.Y-half.Y)/t.Scale,
	}
}

// ViewToWorld converts a view position to world coordinates.
func (t ViewTransform) ViewToWorld(v Point2D) Point2D {
	return t.BufferToWorld(t.ViewToBuffer(v))
}

// WorldToView converts a world position to view coordinates.
func (t ViewTransform) WorldToView(w Point2D) Point2D {
	return t.BufferToView(t.WorldToBuffer(w))
}

// ClipToBuffer clamps a buffer position to the buffer area.
func (t ViewTransform) ClipToBuffer(b Point2D) Point2D {
	return Point2D{
		X: math.Max(0, math.Min(b.X, float64(t.BufferSize.X))),
		Y: math.Max(0, math.Min(b.Y, float64(t.BufferSize.Y))),
	}
}

// PhysicalToWorld converts a physical position (metres, Y up) to world
// coordinates (Y down), given the metres per world unit.
func PhysicalToWorld(p Point2D, mpwu float64) Point2D {
	return Point2D{X: p.X / mpwu, Y: -p.Y / mpwu}
}

// WorldToPhysical converts a world position to a physical position in metres.
func WorldToPhysical(w Point2D, mpwu float64) Point2D {
	return Point2D{X: w.X * mpwu, Y: -w.Y * mpwu}
}
