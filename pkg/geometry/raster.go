package geometry

import (
	"cmp"
	"math"
	"slices"
)

// BresenhamLine returns the integer cells of the line from start to end,
// both ends included, in drawing order.
func BresenhamLine(start, end PointInt) []PointInt {
	x1, y1 := start.X, start.Y
	x2, y2 := end.X, end.Y

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	points := make([]PointInt, 0, max(dx, dy)+1)
	err := dx - dy
	for {
		points = append(points, PointInt{X: x1, Y: y1})
		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
	return points
}

// RasterizeLine returns every cell whose centre lies within width/2 of the
// segment from start to end. A width of 1 or less gives the plain Bresenham
// line. Wide lines are returned sorted by row, then column.
func RasterizeLine(start, end PointInt, width int) []PointInt {
	if !start.Defined() || !end.Defined() {
		return nil
	}
	core := BresenhamLine(start, end)
	if width <= 1 {
		return core
	}

	radius := float64(width) / 2
	reach := int(math.Ceil(radius))
	a, b := start.ToFloat(), end.ToFloat()

	seen := make(map[PointInt]struct{})
	var points []PointInt
	for _, c := range core {
		for py := c.Y - reach; py <= c.Y+reach; py++ {
			for px := c.X - reach; px <= c.X+reach; px++ {
				p := PointInt{X: px, Y: py}
				if _, ok := seen[p]; ok {
					continue
				}
				if SegmentDistance(p.ToFloat(), a, b) <= radius {
					seen[p] = struct{}{}
					points = append(points, p)
				}
			}
		}
	}

	slices.SortFunc(points, func(p, q PointInt) int {
		if c := cmp.Compare(p.Y, q.Y); c != 0 {
			return c
		}
		return cmp.Compare(p.X, q.X)
	})
	return points
}

// SegmentDistance returns the distance from p to the segment [a, b].
func SegmentDistance(p, a, b Point2D) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Distance(a)
	}
	ap := p.Sub(a)
	t := (ap.X*ab.X + ap.Y*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Distance(a.Add(ab.Scale(t)))
}

// ClipPixels drops the cells outside [0, resolution).
func ClipPixels(points []PointInt, resolution PointInt) []PointInt {
	clipped := points[:0:0]
	for _, p := range points {
		if p.X >= 0 && p.X < resolution.X && p.Y >= 0 && p.Y < resolution.Y {
			clipped = append(clipped, p)
		}
	}
	return clipped
}

// CircularNeighborhood returns the cells within width/2 of center, clipped to
// [0, resolution). A width of 1 returns the center alone, unclipped.
func CircularNeighborhood(center PointInt, width int, resolution PointInt) []PointInt {
	if !center.Defined() {
		return nil
	}
	if width <= 1 {
		return []PointInt{center}
	}

	radius := float64(width) / 2
	r := int(radius)
	var points []PointInt
	for px := max(0, center.X-r); px < min(center.X+r+1, resolution.X); px++ {
		for py := max(0, center.Y-r); py < min(center.Y+r+1, resolution.Y); py++ {
			if math.Hypot(float64(center.X-px), float64(center.Y-py)) <= radius {
				points = append(points, PointInt{X: px, Y: py})
			}
		}
	}
	return points
}
