package overlay

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"

	"scopeview/internal/model"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/ui/paint"
)

// FillMode is how the inside of a repetition selection is drawn.
type FillMode int

const (
	FillNone  FillMode = iota
	FillGrid           // Lines between the cells
	FillPoint          // One dot per cell
)

func (f FillMode) String() string {
	switch f {
	case FillNone:
		return "none"
	case FillGrid:
		return "grid"
	case FillPoint:
		return "point"
	default:
		return "unknown"
	}
}

const (
	flatFillAlpha = 0.5
	gridLineAlpha = 0.9
	dotSize       = 3
)

// pointsKey identifies a rendering of the repetition dots: the clipped
// buffer box, and where the cells start inside it. The phase only changes
// when the selection is clipped by the buffer and the view pans.
type pointsKey struct {
	clip  geometry.Box
	phase geometry.Point2D
}

// RepetitionSelect is a rectangle selection showing the acquisition grid of
// the region of acquisition (ROA). The rectangle mirrors an external ROA
// value, expressed as ratios of the field of view.
type RepetitionSelect struct {
	worldSelect

	fill FillMode
	rep  [2]int // Cells along x and y

	bmp    *image.RGBA
	bmpKey pointsKey
	builds int

	roa    *model.Observable[geometry.Box]
	roaSub model.Subscription
}

// NewRepetitionSelect returns an inactive repetition selection.
func NewRepetitionSelect(c Canvas, colour color.NRGBA) *RepetitionSelect {
	return &RepetitionSelect{
		worldSelect: newWorldSelect(c, colour, EditBox, boxCursor),
		fill:        FillNone,
		rep:         [2]int{1, 1},
	}
}

// Fill returns the fill mode.
func (r *RepetitionSelect) Fill() FillMode {
	return r.fill
}

// SetFill changes the fill mode.
func (r *RepetitionSelect) SetFill(f FillMode) {
	r.fill = f
	r.bmp = nil
	r.canvas.RequestRedraw()
}

// Repetition returns the number of cells along x and y.
func (r *RepetitionSelect) Repetition() [2]int {
	return r.rep
}

// SetRepetition changes the number of cells along x and y.
func (r *RepetitionSelect) SetRepetition(rep [2]int) {
	r.rep = rep
	r.bmp = nil
	r.canvas.RequestRedraw()
}

// ConnectROA binds the rectangle to roa. Changes of roa move the rectangle,
// and every rectangle drawn by the user is written back to it.
func (r *RepetitionSelect) ConnectROA(roa *model.Observable[geometry.Box]) error {
	if roa == nil {
		return errors.New("repetition select: nil ROA")
	}
	r.DisconnectROA()
	r.roa = roa
	r.roaSub = roa.Subscribe(r.onROA, true)
	return nil
}

// DisconnectROA removes the binding set by ConnectROA.
func (r *RepetitionSelect) DisconnectROA() {
	if r.roa == nil {
		return
	}
	r.roa.Unsubscribe(r.roaSub)
	r.roa = nil
}

func (r *RepetitionSelect) onROA(roi geometry.Box) {
	r.canvas.CallAfter(func() {
		if roi == model.UndefinedROI {
			r.ClearSelection()
			return
		}
		r.SetPhysicalSelection(r.canvas.ROIRatioToPhys(roi))
	})
}

// pushROA writes the selection to the ROA. The subscription is dropped while
// writing so the write does not come back as an external change; the
// resubscription then applies the stored value, which may have been clipped.
func (r *RepetitionSelect) pushROA() {
	if r.roa == nil {
		return
	}
	phys, ok := r.PhysicalSelection()
	if !ok {
		r.roa.SetValue(model.UndefinedROI)
		return
	}
	ratio := r.canvas.ROIPhysToRatio(phys)
	slog.Debug("ROA selected", "phys", phys, "ratio", ratio)

	r.roa.Unsubscribe(r.roaSub)
	r.roa.SetValue(ratio)
	r.roaSub = r.roa.Subscribe(r.onROA, true)
}

// Draw draws the fill and the rectangle. The fill is left out while the
// repetition has a zero count.
func (r *RepetitionSelect) Draw(s *paint.Surface) {
	r.worldToView()
	b, ok := r.bufferBox()
	if !ok {
		return
	}
	if r.rep[0] > 0 && r.rep[1] > 0 {
		switch r.fill {
		case FillGrid:
			r.drawGrid(s, b)
		case FillPoint:
			r.drawPoints(s, b)
		}
	}
	r.drawBox(s, SelEdit)
}

// gridFlatFill reports whether a grid of rep cells over a box of the given
// buffer size has less than a pixel per cell.
func gridFlatFill(width, height float64, rep [2]int) bool {
	return width < float64(rep[0]) || height < float64(rep[1])
}

// pointFlatFill reports whether a box of the given buffer size has less than
// a dot worth of pixels per cell.
func pointFlatFill(width, height float64, rep [2]int) bool {
	return math.Floor(width/dotSize) < float64(rep[0]) || math.Floor(height/dotSize) < float64(rep[1])
}

// clip returns the part of b inside the buffer.
func (r *RepetitionSelect) clip(b geometry.Box) (start, end geometry.Point2D) {
	return r.canvas.ClipToBuffer(b.Min()), r.canvas.ClipToBuffer(b.Max())
}

func (r *RepetitionSelect) flatFill(s *paint.Surface, start, end geometry.Point2D) {
	s.FillRect(geometry.Box{
		MinX: start.X,
		MinY: start.Y,
		MaxX: start.X + math.Trunc(end.X-start.X),
		MaxY: start.Y + math.Trunc(end.Y-start.Y),
	}, colorutil.WithAlpha(r.colour, flatFillAlpha))
}

// posMod returns x modulo m in [0, m).
func posMod(x, m float64) float64 {
	v := math.Mod(x, m)
	if v < 0 {
		v += m
	}
	return v
}

// drawGrid draws the lines between the cells of b, the whole selection in
// buffer coordinates, over the part of it that is inside the buffer. Lines
// keep their position relative to the selection when it is clipped.
func (r *RepetitionSelect) drawGrid(s *paint.Surface, b geometry.Box) {
	width, height := b.Width(), b.Height()
	start, end := r.clip(b)
	if gridFlatFill(width, height, r.rep) {
		r.flatFill(s, start, end)
		return
	}

	col := colorutil.WithAlpha(r.colour, gridLineAlpha)
	step := geometry.Point2D{X: width / float64(r.rep[0]), Y: height / float64(r.rep[1])}
	shift := geometry.Point2D{
		X: posMod(start.X-b.MinX, step.X),
		Y: posMod(start.Y-b.MinY, step.Y),
	}
	var lines []paint.Segment
	for x := start.X - shift.X + step.X; x < end.X-step.X/2; x += step.X {
		lines = append(lines, paint.Segment{A: geometry.Point2D{X: x, Y: start.Y}, B: geometry.Point2D{X: x, Y: end.Y}})
	}
	for y := start.Y - shift.Y + step.Y; y < end.Y-step.Y/2; y += step.Y {
		lines = append(lines, paint.Segment{A: geometry.Point2D{X: start.X, Y: y}, B: geometry.Point2D{X: end.X, Y: y}})
	}
	s.StrokeLines(lines, 1, col)
}

// drawPoints draws one dot at the centre of each cell of b. The dots are
// rendered once into a bitmap which is reused until the clipped box, the
// cell phase, the fill or the repetition changes.
func (r *RepetitionSelect) drawPoints(s *paint.Surface, b geometry.Box) {
	width, height := b.Width(), b.Height()
	start, end := r.clip(b)
	if pointFlatFill(width, height, r.rep) {
		r.flatFill(s, start, end)
		return
	}

	step := geometry.Point2D{X: width / float64(r.rep[0]), Y: height / float64(r.rep[1])}
	key := pointsKey{
		clip: geometry.Box{MinX: start.X, MinY: start.Y, MaxX: end.X, MaxY: end.Y},
		phase: geometry.Point2D{
			X: posMod(start.X-b.MinX, step.X),
			Y: posMod(start.Y-b.MinY, step.Y),
		},
	}
	if r.bmp == nil || r.bmpKey != key {
		r.bmp = r.renderPoints(b, start, end)
		r.bmpKey = key
		r.builds++
	}
	if r.bmp != nil {
		s.Blit(r.bmp, image.Pt(int(start.X), int(start.Y)))
	}
}

func (r *RepetitionSelect) renderPoints(b geometry.Box, start, end geometry.Point2D) *image.RGBA {
	w, h := int(end.X-start.X), int(end.Y-start.Y)
	if w <= 0 || h <= 0 {
		return nil
	}
	slog.Debug("Rendering repetition points", "rep", r.rep, "size", image.Pt(w, h))

	dots := paint.NewSurface(w, h)
	step := geometry.Point2D{X: b.Width() / float64(r.rep[0]), Y: b.Height() / float64(r.rep[1])}
	var cells []geometry.Box
	for _, cy := range cellCentres(b.MinY, start.Y, end.Y, step.Y) {
		for _, cx := range cellCentres(b.MinX, start.X, end.X, step.X) {
			x := math.Floor(cx - start.X - dotSize/2)
			y := math.Floor(cy - start.Y - dotSize/2)
			cells = append(cells, geometry.Box{MinX: x, MinY: y, MaxX: x + dotSize, MaxY: y + dotSize})
		}
	}
	dots.FillRects(cells, r.colour)
	return dots.Image()
}

// cellCentres returns the centres of the cells of size step starting at
// origin, which lie within [lo, hi).
func cellCentres(origin, lo, hi, step float64) []float64 {
	first := math.Ceil((lo - origin - step/2) / step)
	var cs []float64
	for i := first; ; i++ {
		c := origin + step/2 + i*step
		if c >= hi {
			break
		}
		cs = append(cs, c)
	}
	return cs
}

func (r *RepetitionSelect) OnPointerDown(ev PointerEvent) bool { return r.pointerDown(ev) }
func (r *RepetitionSelect) OnPointerMove(ev PointerEvent) bool { return r.pointerMove(ev) }
func (r *RepetitionSelect) OnPointerLeave() bool               { return false }
func (r *RepetitionSelect) OnWheel(PointerEvent) bool          { return false }

// Deactivate ends any gesture in progress, writing its rectangle to the ROA.
func (r *RepetitionSelect) Deactivate() {
	if r.endGesture() {
		r.pushROA()
	}
	r.worldSelect.Deactivate()
}

// OnPointerUp ends the gesture and writes the new rectangle to the ROA.
func (r *RepetitionSelect) OnPointerUp(ev PointerEvent) bool {
	if !r.pointerUp(ev) {
		return false
	}
	r.pushROA()
	return true
}
