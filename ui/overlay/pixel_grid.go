package overlay

import (
	"image/color"
	"math"

	"scopeview/internal/model"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

// DataProperties describes the pixel grid of the displayed data.
type DataProperties struct {
	MPP        float64          // Metres per data pixel
	Center     geometry.Point2D // Physical position of the data centre
	Resolution geometry.PointInt
}

// Valid reports whether the grid has a size.
func (p DataProperties) Valid() bool {
	return p.MPP > 0 && p.Resolution.X > 0 && p.Resolution.Y > 0
}

// pixelGrid maps view positions onto the data pixels. Pixel (0, 0) is the
// top-left one.
type pixelGrid struct {
	canvas Canvas
	props  DataProperties
	width  *model.Observable[int]
}

// origin returns the physical position of the top-left corner of the data.
func (g *pixelGrid) origin() geometry.Point2D {
	p := g.props
	return geometry.Point2D{
		X: p.Center.X - float64(p.Resolution.X)*p.MPP/2,
		Y: p.Center.Y + float64(p.Resolution.Y)*p.MPP/2,
	}
}

func (g *pixelGrid) viewToPixel(v geometry.Point2D) geometry.PointInt {
	if !g.props.Valid() {
		return geometry.NoPixel
	}
	phys := g.canvas.WorldToPhysical(g.canvas.ViewToWorld(v))
	o := g.origin()
	return geometry.PointInt{
		X: int(math.Floor((phys.X - o.X) / g.props.MPP)),
		Y: int(math.Floor((o.Y - phys.Y) / g.props.MPP)),
	}
}

// clampPixel returns the data pixel nearest to px.
func (g *pixelGrid) clampPixel(px geometry.PointInt) geometry.PointInt {
	if !px.Defined() {
		return px
	}
	r := g.props.Resolution
	return geometry.PointInt{X: max(0, min(px.X, r.X-1)), Y: max(0, min(px.Y, r.Y-1))}
}

// pixelToPhys returns the physical position of the centre of px.
func (g *pixelGrid) pixelToPhys(px geometry.PointInt) geometry.Point2D {
	o := g.origin()
	return geometry.Point2D{
		X: o.X + (float64(px.X)+0.5)*g.props.MPP,
		Y: o.Y - (float64(px.Y)+0.5)*g.props.MPP,
	}
}

// pixelToView returns the view position of the centre of px.
func (g *pixelGrid) pixelToView(px geometry.PointInt) geometry.Point2D {
	return g.canvas.WorldToView(g.canvas.PhysicalToWorld(g.pixelToPhys(px)))
}

func (g *pixelGrid) isOverData(v geometry.Point2D) bool {
	px := g.viewToPixel(v)
	if !px.Defined() {
		return false
	}
	r := g.props.Resolution
	return px.X >= 0 && px.X < r.X && px.Y >= 0 && px.Y < r.Y
}

// pixelBufferBox returns the area covered by px in buffer coordinates.
func (g *pixelGrid) pixelBufferBox(px geometry.PointInt) geometry.Box {
	o := g.origin()
	mpp := g.props.MPP
	tl := geometry.Point2D{X: o.X + float64(px.X)*mpp, Y: o.Y - float64(px.Y)*mpp}
	br := geometry.Point2D{X: tl.X + mpp, Y: tl.Y - mpp}
	return geometry.BoxFromCorners(
		g.canvas.WorldToBuffer(g.canvas.PhysicalToWorld(tl)),
		g.canvas.WorldToBuffer(g.canvas.PhysicalToWorld(br)),
	)
}

func (g *pixelGrid) selectionWidth() int {
	if g.width == nil {
		return 1
	}
	return g.width.Value()
}

// neighborhood returns the pixels within the selection width of px.
func (g *pixelGrid) neighborhood(px geometry.PointInt) []geometry.PointInt {
	return geometry.CircularNeighborhood(px, g.selectionWidth(), g.props.Resolution)
}

func (g *pixelGrid) drawPixels(s *paint.Surface, pixels []geometry.PointInt, col color.Color) {
	if len(pixels) == 0 {
		return
	}
	boxes := make([]geometry.Box, 0, len(pixels))
	for _, px := range pixels {
		boxes = append(boxes, g.pixelBufferBox(px))
	}
	s.FillRects(boxes, col)
}
