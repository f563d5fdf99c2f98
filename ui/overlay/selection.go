package overlay

import (
	"math"

	"scopeview/pkg/geometry"
)

// EditMode selects the handles a selection offers.
type EditMode int

const (
	EditBox   EditMode = iota // Four edges and the body
	EditPoint                 // Start and end points only
)

// SelectionMode is the lifecycle state of a selection.
type SelectionMode int

const (
	SelNone SelectionMode = iota
	SelEdit
	SelCreate
)

func (m SelectionMode) String() string {
	switch m {
	case SelNone:
		return "none"
	case SelEdit:
		return "edit"
	case SelCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Hover is the part of a selection under the pointer. Corners combine two
// edge bits.
type Hover uint8

const (
	HoverNone      Hover = 0
	HoverSelection Hover = 1 << (iota - 1)
	HoverLeftEdge
	HoverRightEdge
	HoverTopEdge
	HoverBottomEdge
	HoverStart
	HoverEnd
)

// IsEdge reports whether h is a single edge.
func (h Hover) IsEdge() bool {
	switch h {
	case HoverLeftEdge, HoverRightEdge, HoverTopEdge, HoverBottomEdge:
		return true
	}
	return false
}

// IsCorner reports whether h combines a vertical and a horizontal edge.
func (h Hover) IsCorner() bool {
	return h&(HoverLeftEdge|HoverRightEdge) != 0 && h&(HoverTopEdge|HoverBottomEdge) != 0
}

// HoverMargin is the distance in pixels within which an edge or a handle is
// hit.
const HoverMargin = 4

// Selection is the drag state machine of a box or a point pair, in view
// coordinates. Start and End are nil while nothing is selected.
type Selection struct {
	EditMode EditMode
	Mode     SelectionMode
	Start    *geometry.Point2D
	End      *geometry.Point2D

	dragging  bool
	dragHover Hover
	anchor    geometry.Point2D
	origStart geometry.Point2D
	origEnd   geometry.Point2D
}

// Defined reports whether both endpoints are set.
func (s *Selection) Defined() bool {
	return s.Start != nil && s.End != nil
}

// Dragging reports whether a press is in progress.
func (s *Selection) Dragging() bool {
	return s.dragging
}

// DragHover returns the part being dragged, HoverNone while creating.
func (s *Selection) DragHover() Hover {
	return s.dragHover
}

// Clear drops the selection.
func (s *Selection) Clear() {
	s.Mode = SelNone
	s.Start, s.End = nil, nil
	s.dragging = false
	s.dragHover = HoverNone
}

// Set replaces both endpoints and switches to edit mode.
func (s *Selection) Set(start, end geometry.Point2D) {
	s.Start, s.End = &start, &end
	s.Mode = SelEdit
}

// Box returns the normalized selection box.
func (s *Selection) Box() (geometry.Box, bool) {
	if !s.Defined() {
		return geometry.Box{}, false
	}
	return geometry.BoxFromCorners(*s.Start, *s.End), true
}

// normalize orders a box selection so that Start is the top-left corner.
func (s *Selection) normalize() {
	if s.EditMode != EditBox || !s.Defined() {
		return
	}
	b := geometry.BoxFromCorners(*s.Start, *s.End)
	s.Start = &geometry.Point2D{X: b.MinX, Y: b.MinY}
	s.End = &geometry.Point2D{X: b.MaxX, Y: b.MaxY}
}

// HoverAt returns the part of the selection at p. Corners win over edges and
// edges over the body. Boxes of zero area have no body.
func (s *Selection) HoverAt(p geometry.Point2D) Hover {
	if !s.Defined() {
		return HoverNone
	}
	if s.EditMode == EditPoint {
		switch {
		case near(p, *s.Start):
			return HoverStart
		case near(p, *s.End):
			return HoverEnd
		}
		return HoverNone
	}

	b := geometry.BoxFromCorners(*s.Start, *s.End)
	if p.X < b.MinX-HoverMargin || p.X > b.MaxX+HoverMargin ||
		p.Y < b.MinY-HoverMargin || p.Y > b.MaxY+HoverMargin {
		return HoverNone
	}

	var h Hover
	dl, dr := math.Abs(p.X-b.MinX), math.Abs(p.X-b.MaxX)
	switch {
	case dl <= HoverMargin && dl <= dr:
		h |= HoverLeftEdge
	case dr <= HoverMargin:
		h |= HoverRightEdge
	}
	dt, db := math.Abs(p.Y-b.MinY), math.Abs(p.Y-b.MaxY)
	switch {
	case dt <= HoverMargin && dt <= db:
		h |= HoverTopEdge
	case db <= HoverMargin:
		h |= HoverBottomEdge
	}
	if h != HoverNone {
		return h
	}
	if b.Width() > 0 && b.Height() > 0 && b.Contains(p) {
		return HoverSelection
	}
	return HoverNone
}

func near(p, q geometry.Point2D) bool {
	return math.Abs(p.X-q.X) <= HoverMargin && math.Abs(p.Y-q.Y) <= HoverMargin
}

// Press starts a gesture at p. In edit mode, a press on the selection starts
// an edit of the part under p; anywhere else a new selection is created.
func (s *Selection) Press(p geometry.Point2D) {
	if s.Mode == SelEdit {
		if h := s.HoverAt(p); h != HoverNone {
			s.normalize()
			s.dragging = true
			s.dragHover = h
			s.anchor = p
			s.origStart, s.origEnd = *s.Start, *s.End
			return
		}
	}

	start, end := p, p
	s.Mode = SelCreate
	s.Start, s.End = &start, &end
	s.dragging = true
	s.dragHover = HoverNone
	s.anchor = p
}

// Drag moves the part being dragged to follow p.
func (s *Selection) Drag(p geometry.Point2D) {
	if !s.dragging || !s.Defined() {
		return
	}
	if s.Mode == SelCreate {
		end := p
		s.End = &end
		return
	}

	d := p.Sub(s.anchor)
	start, end := s.origStart, s.origEnd
	h := s.dragHover
	switch {
	case h == HoverSelection:
		start, end = start.Add(d), end.Add(d)
	case h == HoverStart:
		start = start.Add(d)
	case h == HoverEnd:
		end = end.Add(d)
	default:
		if h&HoverLeftEdge != 0 {
			start.X += d.X
		}
		if h&HoverRightEdge != 0 {
			end.X += d.X
		}
		if h&HoverTopEdge != 0 {
			start.Y += d.Y
		}
		if h&HoverBottomEdge != 0 {
			end.Y += d.Y
		}
	}
	s.Start, s.End = &start, &end
}

// Release ends the gesture at p. A created selection of zero size is dropped.
func (s *Selection) Release(p geometry.Point2D) {
	if !s.dragging {
		return
	}
	s.Drag(p)
	s.EndGesture()
}

// EndGesture ends a gesture where it stands, as a release without a last
// move would. A created selection of zero size is dropped.
func (s *Selection) EndGesture() {
	if !s.dragging {
		return
	}
	s.dragging = false
	s.dragHover = HoverNone

	if s.Mode == SelCreate {
		if !s.validSize() {
			s.Clear()
			return
		}
		s.Mode = SelEdit
	}
	s.normalize()
}

func (s *Selection) validSize() bool {
	if !s.Defined() {
		return false
	}
	if s.EditMode == EditPoint {
		return *s.Start != *s.End
	}
	return s.Start.X != s.End.X && s.Start.Y != s.End.Y
}
