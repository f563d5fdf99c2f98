// Package paint provides the raster drawing primitives used by the overlays:
// anti-aliased strokes and fills, dashed outlines, circles, labels and blits.
package paint

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"scopeview/pkg/geometry"
)

// circleK is the cubic Bézier control distance approximating a quarter
// circle of radius 1.
const circleK = 0.5522847498

// Surface draws onto an RGBA image. Shapes are composited with draw.Over.
type Surface struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

// NewSurface returns a transparent surface of the given size.
func NewSurface(w, h int) *Surface {
	return Wrap(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// Wrap returns a surface drawing onto img.
func Wrap(img *image.RGBA) *Surface {
	b := img.Bounds()
	return &Surface{img: img, z: vector.NewRasterizer(b.Dx(), b.Dy())}
}

// Image returns the image drawn onto.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Bounds returns the surface bounds.
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Clear makes the whole surface transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// fill runs path on a fresh rasterizer and composites col through it. All
// sub-paths are merged, so overlapping parts are painted once.
func (s *Surface) fill(col color.Color, path func(z *vector.Rasterizer)) {
	b := s.img.Bounds()
	s.z.Reset(b.Dx(), b.Dy())
	s.z.DrawOp = draw.Over
	path(s.z)
	s.z.Draw(s.img, b, image.NewUniform(col), image.Point{})
}

func (s *Surface) pt(p geometry.Point2D) (float32, float32) {
	b := s.img.Bounds()
	return float32(p.X - float64(b.Min.X)), float32(p.Y - float64(b.Min.Y))
}

func (s *Surface) polygon(z *vector.Rasterizer, pts []geometry.Point2D) {
	if len(pts) < 3 {
		return
	}
	z.MoveTo(s.pt(pts[0]))
	for _, p := range pts[1:] {
		z.LineTo(s.pt(p))
	}
	z.ClosePath()
}

// segment adds a thick segment from a to b with square caps of half width.
func (s *Surface) segment(z *vector.Rasterizer, a, b geometry.Point2D, width float64) {
	u := b.Sub(a).Unit()
	if u.X == 0 && u.Y == 0 {
		return
	}
	h := width / 2
	n := geometry.Point2D{X: -u.Y * h, Y: u.X * h}
	a = a.Sub(u.Scale(h))
	b = b.Add(u.Scale(h))
	s.polygon(z, []geometry.Point2D{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)})
}

// dashes adds the segment from a to b, split into dashes of length dash
// separated by gaps of the same length. A zero dash draws a solid segment.
func (s *Surface) dashes(z *vector.Rasterizer, a, b geometry.Point2D, width, dash float64) {
	length := a.Distance(b)
	if dash <= 0 || length <= dash {
		s.segment(z, a, b, width)
		return
	}
	u := b.Sub(a).Unit()
	for t := 0.0; t < length; t += 2 * dash {
		end := math.Min(t+dash, length)
		s.segment(z, a.Add(u.Scale(t)), a.Add(u.Scale(end)), width)
	}
}

// StrokeLine draws a line of the given width. dash is the dash length, 0 for
// a solid line.
func (s *Surface) StrokeLine(a, b geometry.Point2D, width float64, col color.Color, dash float64) {
	s.fill(col, func(z *vector.Rasterizer) {
		s.dashes(z, a, b, width, dash)
	})
}

// Segment is a straight line from A to B.
type Segment struct {
	A, B geometry.Point2D
}

// StrokeLines draws every segment of segs as a solid line in one pass.
func (s *Surface) StrokeLines(segs []Segment, width float64, col color.Color) {
	if len(segs) == 0 {
		return
	}
	s.fill(col, func(z *vector.Rasterizer) {
		for _, seg := range segs {
			s.segment(z, seg.A, seg.B, width)
		}
	})
}

// StrokeRect draws the outline of r.
func (s *Surface) StrokeRect(r geometry.Box, width float64, col color.Color, dash float64) {
	corners := []geometry.Point2D{
		{X: r.MinX, Y: r.MinY}, {X: r.MaxX, Y: r.MinY},
		{X: r.MaxX, Y: r.MaxY}, {X: r.MinX, Y: r.MaxY},
	}
	s.fill(col, func(z *vector.Rasterizer) {
		for i, c := range corners {
			s.dashes(z, c, corners[(i+1)%4], width, dash)
		}
	})
}

// FillRect fills r.
func (s *Surface) FillRect(r geometry.Box, col color.Color) {
	s.FillRects([]geometry.Box{r}, col)
}

// FillRects fills every box of rs in one pass.
func (s *Surface) FillRects(rs []geometry.Box, col color.Color) {
	s.fill(col, func(z *vector.Rasterizer) {
		for _, r := range rs {
			if r.Width() <= 0 || r.Height() <= 0 {
				continue
			}
			s.polygon(z, []geometry.Point2D{
				{X: r.MinX, Y: r.MinY}, {X: r.MaxX, Y: r.MinY},
				{X: r.MaxX, Y: r.MaxY}, {X: r.MinX, Y: r.MaxY},
			})
		}
	})
}

// circle adds a circle path, counter-clockwise when reverse is set.
func (s *Surface) circle(z *vector.Rasterizer, c geometry.Point2D, r float64, reverse bool) {
	k := r * circleK
	sy := 1.0
	if reverse {
		sy = -1
	}
	at := func(dx, dy float64) (float32, float32) {
		return s.pt(geometry.Point2D{X: c.X + dx, Y: c.Y + dy*sy})
	}
	cubic := func(x1, y1, x2, y2, x3, y3 float64) {
		ax, ay := at(x1, y1)
		bx, by := at(x2, y2)
		cx, cy := at(x3, y3)
		z.CubeTo(ax, ay, bx, by, cx, cy)
	}
	z.MoveTo(at(r, 0))
	cubic(r, k, k, r, 0, r)
	cubic(-k, r, -r, k, -r, 0)
	cubic(-r, -k, -k, -r, 0, -r)
	cubic(k, -r, r, -k, r, 0)
	z.ClosePath()
}

// FillCircle fills a disc.
func (s *Surface) FillCircle(c geometry.Point2D, r float64, col color.Color) {
	if r <= 0 {
		return
	}
	s.fill(col, func(z *vector.Rasterizer) {
		s.circle(z, c, r, false)
	})
}

// StrokeCircle draws a ring of the given width centred on the circle of
// radius r.
func (s *Surface) StrokeCircle(c geometry.Point2D, r, width float64, col color.Color) {
	outer := r + width/2
	inner := r - width/2
	if outer <= 0 {
		return
	}
	s.fill(col, func(z *vector.Rasterizer) {
		s.circle(z, c, outer, false)
		if inner > 0 {
			s.circle(z, c, inner, true)
		}
	})
}

// FillPolygon fills a closed polygon.
func (s *Surface) FillPolygon(pts []geometry.Point2D, col color.Color) {
	s.fill(col, func(z *vector.Rasterizer) {
		s.polygon(z, pts)
	})
}

// StrokePolygon draws the outline of a closed polygon.
func (s *Surface) StrokePolygon(pts []geometry.Point2D, width float64, col color.Color) {
	s.fill(col, func(z *vector.Rasterizer) {
		for i, p := range pts {
			s.segment(z, p, pts[(i+1)%len(pts)], width)
		}
	})
}

// LabelFace is the font used for overlay labels.
var LabelFace font.Face = basicfont.Face7x13

// DrawText draws text with its baseline starting at p.
func (s *Surface) DrawText(p geometry.Point2D, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(col),
		Face: LabelFace,
		Dot:  fixed.P(int(math.Round(p.X)), int(math.Round(p.Y))),
	}
	d.DrawString(text)
}

// TextWidth returns the advance of text in pixels.
func TextWidth(text string) int {
	return font.MeasureString(LabelFace, text).Ceil()
}

// Blit composites src over the surface with its top-left corner at p.
func (s *Surface) Blit(src image.Image, p image.Point) {
	sb := src.Bounds()
	r := image.Rectangle{Min: p, Max: p.Add(sb.Size())}
	draw.Draw(s.img, r, src, sb.Min, draw.Over)
}
