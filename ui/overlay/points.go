package overlay

import (
	"errors"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

// Radius limits of the point dots, in buffer pixels.
const (
	MaxDotRadius = 25.5
	MinDotRadius = 3.5
)

// defaultPointSpacing is used when the spacing of the points is unknown.
const defaultPointSpacing = 100e-9

var (
	pointCentreColour = colorutil.MustHex(colorutil.HexHighlight, 1)
	pointSelectColour = colorutil.MustHex(colorutil.HexEdit, 0.5)
	pointDotColour    = colorutil.WithAlpha(colorutil.Black, 0.1)
)

// PointsOverlay shows the choices of a point setting as dots and lets the
// user pick one by clicking it.
type PointsOverlay struct {
	base

	point    *model.VA[geometry.Point2D]
	pointSub model.Subscription
	mpp      *model.Observable[float64]
	mppSub   model.Subscription

	// World positions of the choices, in choice order, and the physical
	// points they stand for.
	positions []geometry.Point2D
	choices   map[geometry.Point2D]geometry.Point2D
	minDist   float64 // Half the spacing of the points, in metres

	dotSize float64
	hover   *geometry.Point2D
}

// NewPointsOverlay returns an inactive point picker.
func NewPointsOverlay(c Canvas) *PointsOverlay {
	return &PointsOverlay{
		base:    newBase(c, pointCentreColour),
		dotSize: MinDotRadius,
	}
}

// SetPoints binds the overlay to point, whose choices are the points shown.
// mpp gives the metres per buffer pixel, used to size the dots.
func (o *PointsOverlay) SetPoints(point *model.VA[geometry.Point2D], mpp *model.Observable[float64]) error {
	if point == nil || mpp == nil {
		return errors.New("points overlay: nil point or mpp")
	}
	o.Disconnect()

	o.point = point
	o.pointSub = point.Subscribe(func(geometry.Point2D) {
		o.canvas.CallAfter(o.canvas.RequestRedraw)
	}, false)
	o.calcChoices()
	o.mpp = mpp
	o.mppSub = mpp.Subscribe(o.onMPP, true)
	return nil
}

// Disconnect removes the binding set by SetPoints.
func (o *PointsOverlay) Disconnect() {
	if o.point == nil {
		return
	}
	o.point.Unsubscribe(o.pointSub)
	o.mpp.Unsubscribe(o.mppSub)
	o.point, o.mpp = nil, nil
	o.positions, o.choices = nil, nil
	o.hover = nil
}

func (o *PointsOverlay) onMPP(mpp float64) {
	o.canvas.CallAfter(func() {
		o.dotSize = dotRadius(o.minDist, mpp)
		o.canvas.RequestRedraw()
	})
}

// dotRadius returns the dot radius in pixels for points minDist metres
// apart from their neighbours' dots.
func dotRadius(minDist, mpp float64) float64 {
	return math.Max(math.Min(MaxDotRadius, minDist/mpp), MinDotRadius)
}

// calcChoices maps the physical choices of the point setting to world
// positions and finds their spacing.
func (o *PointsOverlay) calcChoices() {
	o.positions = nil
	o.choices = make(map[geometry.Point2D]geometry.Point2D)

	points, err := o.point.Choices()
	if err != nil {
		slog.Warn("Point setting has no choices", "error", err)
		points = nil
	}
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		w := o.canvas.PhysicalToWorld(p)
		if _, ok := o.choices[w]; !ok {
			o.positions = append(o.positions, w)
		}
		o.choices[w] = p
	}

	minDist := defaultPointSpacing
	if len(o.positions) > 1 {
		// The points are normally evenly spread, so the distance to the
		// first one is enough.
		p0 := o.choices[o.positions[0]]
		dists := make([]float64, 0, len(o.positions)-1)
		for _, w := range o.positions[1:] {
			dists = append(dists, p0.Distance(o.choices[w]))
		}
		minDist = floats.Min(dists)
	}
	o.minDist = minDist / 2
	slog.Debug("Point choices computed", "count", len(o.positions), "radius", o.minDist)
}

// DotSize returns the radius of the dots in buffer pixels.
func (o *PointsOverlay) DotSize() float64 {
	return o.dotSize
}

// Hover returns the world position of the dot under the pointer.
func (o *PointsOverlay) Hover() (geometry.Point2D, bool) {
	if o.hover == nil {
		return geometry.Point2D{}, false
	}
	return *o.hover, true
}

// OnPointerMove highlights the dot under the pointer. The event is never
// consumed, so that the view can still be panned.
func (o *PointsOverlay) OnPointerMove(ev PointerEvent) bool {
	if !o.active {
		return false
	}
	if !o.canvas.LeftDragging() && len(o.positions) > 0 {
		b := o.canvas.ViewToBuffer(ev.Pos)
		var hover *geometry.Point2D
		for _, w := range o.positions {
			bp := o.canvas.WorldToBuffer(w)
			if math.Abs(bp.X-b.X) <= o.dotSize && math.Abs(bp.Y-b.Y) <= o.dotSize {
				hover = &w
				break
			}
		}
		if !samePoint(hover, o.hover) {
			o.hover = hover
			o.canvas.RequestRedraw()
		}
	}
	if o.hover != nil {
		o.canvas.SetDynamicCursor(viewport.CursorHand)
	} else {
		o.canvas.ResetDynamicCursor()
	}
	return false
}

func samePoint(a, b *geometry.Point2D) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Deactivate also forgets the highlighted point.
func (o *PointsOverlay) Deactivate() {
	o.hover = nil
	o.base.Deactivate()
}

func (o *PointsOverlay) OnPointerDown(PointerEvent) bool { return false }

// OnPointerUp selects the highlighted point, unless the view was panned.
func (o *PointsOverlay) OnPointerUp(PointerEvent) bool {
	if !o.active || o.hover == nil {
		return false
	}
	if o.canvas.WasDragged() {
		o.hover = nil
		return false
	}
	p := o.choices[*o.hover]
	slog.Debug("Point selected", "point", p)
	o.point.SetValue(p)
	o.canvas.RequestRedraw()
	return true
}

// OnWheel forgets the highlighted point while zooming.
func (o *PointsOverlay) OnWheel(PointerEvent) bool {
	if o.active {
		o.hover = nil
	}
	return false
}

func (o *PointsOverlay) OnPointerLeave() bool { return false }

// Draw draws a dot for each choice. The chosen and the highlighted dots are
// coloured.
func (o *PointsOverlay) Draw(s *paint.Surface) {
	if !o.active || len(o.positions) == 0 {
		return
	}
	chosen := o.point.Value()
	for _, w := range o.positions {
		b := o.canvas.WorldToBuffer(w)
		col := pointDotColour
		hovered := o.hover != nil && *o.hover == w && !o.canvas.WasDragged()
		if hovered || o.choices[w] == chosen {
			col = pointSelectColour
		}
		s.FillCircle(b, o.dotSize, col)
		s.FillCircle(b, 2, colorutil.Black)
		s.FillCircle(b, 1.5, o.colour)
	}
}
