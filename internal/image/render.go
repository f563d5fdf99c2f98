package image

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"scopeview/pkg/geometry"
)

// BlendMode specifies how a layer is merged with the layers below it.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// Background is the colour of buffer areas not covered by any image.
var Background = color.RGBA{R: 40, G: 40, B: 40, A: 255}

// bufferAffine returns the mapping from image pixel coordinates to buffer
// coordinates.
func bufferAffine(l *Layer, tr geometry.ViewTransform, mpwu float64) f64.Aff3 {
	b := l.PhysicalBox()
	// World position of the top-left image corner.
	origin := geometry.PhysicalToWorld(geometry.Point2D{X: b.MinX, Y: b.MaxY}, mpwu)
	o := tr.WorldToBuffer(origin)
	a := tr.Scale * l.PixelSize / mpwu
	bmin := l.Image.Bounds().Min
	return f64.Aff3{
		a, 0, o.X - a*float64(bmin.X),
		0, a, o.Y - a*float64(bmin.Y),
	}
}

// Render draws the visible layers into dst, which covers the whole buffer of
// tr. Layers are drawn in order, the first one at the bottom.
func Render(dst *image.RGBA, layers []*Layer, tr geometry.ViewTransform, mpwu float64) {
	stddraw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, stddraw.Src)

	var tmp *image.RGBA
	for _, l := range layers {
		if l == nil || l.Image == nil || !l.Visible || l.PixelSize <= 0 {
			continue
		}
		if tmp == nil {
			tmp = image.NewRGBA(dst.Bounds())
		} else {
			clear(tmp.Pix)
		}
		draw.NearestNeighbor.Transform(tmp, bufferAffine(l, tr, mpwu), l.Image, l.Image.Bounds(), draw.Src, nil)
		compositeLayer(dst, tmp, l.Blend, l.Opacity)
	}
}

// compositeLayer blends src onto dst where src is not transparent.
func compositeLayer(dst, src *image.RGBA, mode BlendMode, opacity float64) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s := src.RGBAAt(x, y)
			if s.A == 0 {
				continue
			}
			dst.SetRGBA(x, y, blend(dst.RGBAAt(x, y), s, mode, opacity))
		}
	}
}

// blend performs the blend operation between two colors.
func blend(dst, src color.RGBA, mode BlendMode, opacity float64) color.RGBA {
	sf := [4]float64{float64(src.R) / 255, float64(src.G) / 255, float64(src.B) / 255, float64(src.A) / 255}
	df := [4]float64{float64(dst.R) / 255, float64(dst.G) / 255, float64(dst.B) / 255, float64(dst.A) / 255}

	var rf [3]float64
	for i := range rf {
		switch mode {
		case BlendMultiply:
			rf[i] = sf[i] * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-sf[i])*(1-df[i])
		case BlendDifference:
			rf[i] = math.Abs(sf[i] - df[i])
		default:
			rf[i] = sf[i]
		}
	}

	alpha := sf[3] * opacity
	return color.RGBA{
		R: uint8(math.Round(clamp01(rf[0]*alpha+df[0]*(1-alpha)) * 255)),
		G: uint8(math.Round(clamp01(rf[1]*alpha+df[1]*(1-alpha)) * 255)),
		B: uint8(math.Round(clamp01(rf[2]*alpha+df[2]*(1-alpha)) * 255)),
		A: uint8(math.Round(clamp01(alpha+df[3]*(1-alpha)) * 255)),
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
