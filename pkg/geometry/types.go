// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Length returns the distance from the origin.
func (p Point2D) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Unit returns the vector scaled to length 1. A zero vector is returned unchanged.
func (p Point2D) Unit() Point2D {
	l := p.Length()
	if l == 0 {
		return p
	}
	return p.Scale(1 / l)
}

// Midpoint returns the point halfway between p and other.
func (p Point2D) Midpoint(other Point2D) Point2D {
	return Point2D{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoPixel is the undefined pixel position.
var NoPixel = PointInt{X: math.MinInt32, Y: math.MinInt32}

// Defined reports whether p is a real pixel position.
func (p PointInt) Defined() bool {
	return p != NoPixel
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// PixelLine is a pair of pixel positions, as selected on a spectrum.
type PixelLine struct {
	Start PointInt `json:"start"`
	End   PointInt `json:"end"`
}

// NoPixelLine is the undefined pixel line.
var NoPixelLine = PixelLine{Start: NoPixel, End: NoPixel}

// Defined reports whether both ends of the line are defined.
func (l PixelLine) Defined() bool {
	return l.Start.Defined() && l.End.Defined()
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a new Rect.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Box is an axis-aligned rectangle stored by its extremes. Boxes built with
// BoxFromCorners are normalized: Min <= Max on both axes.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// BoxFromCorners returns the normalized box spanned by two opposite corners.
func BoxFromCorners(a, b Point2D) Box {
	return Box{
		MinX: math.Min(a.X, b.X),
		MinY: math.Min(a.Y, b.Y),
		MaxX: math.Max(a.X, b.X),
		MaxY: math.Max(a.Y, b.Y),
	}
}

// Normalize returns the box with Min and Max swapped where needed.
func (b Box) Normalize() Box {
	return BoxFromCorners(b.Min(), b.Max())
}

// Min returns the (MinX, MinY) corner.
func (b Box) Min() Point2D {
	return Point2D{X: b.MinX, Y: b.MinY}
}

// Max returns the (MaxX, MaxY) corner.
func (b Box) Max() Point2D {
	return Point2D{X: b.MaxX, Y: b.MaxY}
}

// Width returns the extent along X.
func (b Box) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the extent along Y.
func (b Box) Height() float64 {
	return b.MaxY - b.MinY
}

// IsZero reports whether all four coordinates are zero.
func (b Box) IsZero() bool {
	return b == Box{}
}

// Contains reports whether p lies inside the box, borders included.
func (b Box) Contains(p Point2D) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Approx reports whether both boxes are equal within tol on every coordinate.
func (b Box) Approx(other Box, tol float64) bool {
	return math.Abs(b.MinX-other.MinX) <= tol && math.Abs(b.MinY-other.MinY) <= tol &&
		math.Abs(b.MaxX-other.MaxX) <= tol && math.Abs(b.MaxY-other.MaxY) <= tol
}

// Rect converts the box to origin/size form.
func (b Box) Rect() Rect {
	return Rect{X: b.MinX, Y: b.MinY, Width: b.Width(), Height: b.Height()}
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Rotation returns a rotation transform around the origin.
func Rotation(radians float64) AffineTransform {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return AffineTransform{A: cos, B: -sin, C: sin, D: cos}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Size represents a 2D size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height float64) Size {
	return Size{Width: width, Height: height}
}
