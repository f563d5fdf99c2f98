package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestBresenhamLine(t *testing.T) {
	tests := []struct {
		name       string
		start, end PointInt
		want       []PointInt
	}{
		{"single", PointInt{3, 3}, PointInt{3, 3}, []PointInt{{3, 3}}},
		{"horizontal", PointInt{0, 0}, PointInt{3, 0}, []PointInt{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
		{"vertical reversed", PointInt{1, 2}, PointInt{1, 0}, []PointInt{{1, 2}, {1, 1}, {1, 0}}},
		{"diagonal", PointInt{0, 0}, PointInt{2, 2}, []PointInt{{0, 0}, {1, 1}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, BresenhamLine(tt.start, tt.end)); diff != "" {
				t.Errorf("BresenhamLine mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRasterizeLineWidthOne(t *testing.T) {
	got := RasterizeLine(PointInt{0, 0}, PointInt{4, 2}, 1)
	assert.Equal(t, BresenhamLine(PointInt{0, 0}, PointInt{4, 2}), got)
}

func TestRasterizeLineWide(t *testing.T) {
	got := RasterizeLine(PointInt{2, 5}, PointInt{8, 5}, 3)
	// Every cell of rows 4..6 from x=2..8, plus the end caps at distance 1.5.
	var want []PointInt
	for y := 3; y <= 7; y++ {
		for x := 0; x <= 10; x++ {
			p := PointInt{x, y}
			if SegmentDistance(p.ToFloat(), Point2D{2, 5}, Point2D{8, 5}) <= 1.5 {
				want = append(want, p)
			}
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RasterizeLine mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, got, PointInt{5, 4})
	assert.Contains(t, got, PointInt{5, 6})
	assert.NotContains(t, got, PointInt{5, 7})
}

func TestRasterizeLineUndefined(t *testing.T) {
	assert.Nil(t, RasterizeLine(NoPixel, PointInt{1, 1}, 3))
}

func TestClipPixels(t *testing.T) {
	got := ClipPixels([]PointInt{{-1, 0}, {0, 0}, {4, 4}, {5, 1}}, PointInt{5, 5})
	assert.Equal(t, []PointInt{{0, 0}, {4, 4}}, got)
}

func TestCircularNeighborhoodWidthOne(t *testing.T) {
	assert.Equal(t, []PointInt{{10, 10}}, CircularNeighborhood(PointInt{10, 10}, 1, PointInt{100, 100}))
}

func TestCircularNeighborhoodWidthFive(t *testing.T) {
	got := CircularNeighborhood(PointInt{10, 10}, 5, PointInt{100, 100})
	// Radius 2.5 excludes the (±2, ±2) corners only.
	assert.Len(t, got, 21)
	for _, p := range got {
		assert.LessOrEqual(t, math.Hypot(float64(p.X-10), float64(p.Y-10)), 2.5)
	}
	assert.Contains(t, got, PointInt{12, 11})
	assert.NotContains(t, got, PointInt{12, 12})
}

func TestCircularNeighborhoodClipsAtEdges(t *testing.T) {
	got := CircularNeighborhood(PointInt{0, 0}, 5, PointInt{100, 100})
	want := []PointInt{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
		{2, 0}, {2, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CircularNeighborhood mismatch (-want +got):\n%s", diff)
	}

	got = CircularNeighborhood(PointInt{99, 99}, 5, PointInt{100, 100})
	for _, p := range got {
		assert.Less(t, p.X, 100)
		assert.Less(t, p.Y, 100)
	}
	assert.Len(t, got, 8)
}

func TestCircularNeighborhoodUndefined(t *testing.T) {
	assert.Nil(t, CircularNeighborhood(NoPixel, 3, PointInt{10, 10}))
}
