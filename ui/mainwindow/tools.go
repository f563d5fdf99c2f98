package mainwindow

import (
	"fmt"
	"image/color"
	"log/slog"

	"scopeview/internal/app"
	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/units"
	"scopeview/ui/overlay"
)

// Tool is the canvas interaction selected in the toolbar.
type Tool int

const (
	ToolPan      Tool = iota // No overlay takes the pointer
	ToolMeasure              // Rectangle with its physical size
	ToolROA                  // Region of acquisition with repetition
	ToolRuler                // Distance between two points
	ToolLine                 // Spectrum line over the data pixels
	ToolPixel                // Single data pixel
	ToolPoint                // One of the repetition cells
)

var toolNames = []string{"Pan", "Measure", "ROA", "Ruler", "Line", "Pixel", "Point"}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ToolByName returns the tool displayed as name.
func ToolByName(name string) (Tool, bool) {
	for i, n := range toolNames {
		if n == name {
			return Tool(i), true
		}
	}
	return ToolPan, false
}

// ToolSet owns one overlay per tool, bound to the session state. Only the
// overlay of the current tool is active.
type ToolSet struct {
	view  *viewport.View
	state *app.State
	tool  Tool

	Measure  *overlay.WorldSelect
	ROA      *overlay.RepetitionSelect
	Ruler    *overlay.LineSelect
	Line     *overlay.SpectrumLineSelect
	Pixel    *overlay.PixelSelect
	Points   *overlay.PointsOverlay
	repSub   model.Subscription
	bySelect map[Tool]overlay.Overlay
}

// NewToolSet creates the overlays on view and binds them to state.
func NewToolSet(view *viewport.View, state *app.State, colour color.NRGBA) (*ToolSet, error) {
	ts := &ToolSet{
		view:    view,
		state:   state,
		Measure: overlay.NewWorldSelect(view, colour),
		ROA:     overlay.NewRepetitionSelect(view, colour),
		Ruler:   overlay.NewLineSelect(view, colour),
		Line:    overlay.NewSpectrumLineSelect(view, colour),
		Pixel:   overlay.NewPixelSelect(view),
		Points:  overlay.NewPointsOverlay(view),
	}
	ts.bySelect = map[Tool]overlay.Overlay{
		ToolMeasure: ts.Measure,
		ToolROA:     ts.ROA,
		ToolRuler:   ts.Ruler,
		ToolLine:    ts.Line,
		ToolPixel:   ts.Pixel,
		ToolPoint:   ts.Points,
	}

	ts.UpdateData()
	if err := ts.ROA.ConnectROA(state.ROA); err != nil {
		return nil, err
	}
	ts.repSub = state.Repetition.Subscribe(model.OnUI(view, func(rep []int) {
		if len(rep) == 2 {
			ts.ROA.SetRepetition([2]int{rep[0], rep[1]})
		}
	}), true)
	if err := ts.Line.ConnectSelection(state.SelectedLine, state.SelectionWidth.Observable, state.SelectedPixel); err != nil {
		return nil, err
	}
	if err := ts.Pixel.ConnectSelection(state.SelectedPixel, state.SelectionWidth.Observable); err != nil {
		return nil, err
	}
	if err := ts.Points.SetPoints(state.Point, view.MPP); err != nil {
		return nil, err
	}

	state.On(app.EventLayersChanged, func(any) { view.CallAfter(ts.UpdateData) })
	state.On(app.EventPointsChanged, func(any) {
		view.CallAfter(func() {
			if err := ts.Points.SetPoints(state.Point, view.MPP); err != nil {
				slog.Warn("Failed to rebind points", "error", err)
			}
		})
	})
	return ts, nil
}

// Overlays returns the overlays in drawing order.
func (ts *ToolSet) Overlays() []overlay.Overlay {
	return []overlay.Overlay{ts.ROA, ts.Measure, ts.Ruler, ts.Line, ts.Pixel, ts.Points}
}

// Tool returns the current tool.
func (ts *ToolSet) Tool() Tool {
	return ts.tool
}

// Select activates the overlay of t and deactivates the others.
func (ts *ToolSet) Select(t Tool) {
	ts.tool = t
	for tool, o := range ts.bySelect {
		if tool == t {
			o.Activate()
		} else {
			o.Deactivate()
		}
	}
	ts.view.ResetDynamicCursor()
	slog.Debug("Tool selected", "tool", t)
}

// UpdateData follows the base image: the ROA refers to its field of view and
// the pixel tools to its pixel grid.
func (ts *ToolSet) UpdateData() {
	ts.view.SetFieldOfView(ts.state.FieldOfView())
	var props overlay.DataProperties
	if base := ts.state.Base(); base != nil {
		props = overlay.DataProperties{
			MPP:        base.PixelSize,
			Center:     base.Center,
			Resolution: base.Resolution(),
		}
	}
	ts.Line.SetDataProperties(props)
	ts.Pixel.SetDataProperties(props)
	ts.view.RequestRedraw()
}

// SetColour changes the colour of the selection overlays.
func (ts *ToolSet) SetColour(c color.NRGBA) {
	ts.Measure.SetColour(c)
	ts.ROA.SetColour(c)
	ts.Ruler.SetColour(c)
	ts.Line.SetColour(c)
	ts.view.RequestRedraw()
}

// Status describes the selection of the current tool for the status bar.
func (ts *ToolSet) Status() string {
	switch ts.tool {
	case ToolMeasure:
		if _, ok := ts.Measure.PhysicalSelection(); ok {
			return ts.Measure.SizeLabel()
		}
	case ToolROA:
		if _, ok := ts.ROA.PhysicalSelection(); ok {
			rep := ts.ROA.Repetition()
			return fmt.Sprintf("%s, %d x %d", ts.ROA.SizeLabel(), rep[0], rep[1])
		}
	case ToolRuler:
		if l := ts.Ruler.Length(); l > 0 {
			return units.ReadableString(l*ts.view.MetresPerWorldUnit(), "m", 3)
		}
	case ToolLine:
		if pl := ts.Line.Pixels(); pl.Defined() {
			return fmt.Sprintf("(%d, %d) to (%d, %d), width %d",
				pl.Start.X, pl.Start.Y, pl.End.X, pl.End.Y, ts.state.SelectionWidth.Value())
		}
	case ToolPixel:
		if p := ts.state.SelectedPixel.Value(); p.Defined() {
			return fmt.Sprintf("Pixel (%d, %d)", p.X, p.Y)
		}
	case ToolPoint:
		p := ts.state.Point.Value()
		return fmt.Sprintf("Point %s, %s",
			units.ReadableString(p.X, "m", 3), units.ReadableString(p.Y, "m", 3))
	}
	return ""
}
