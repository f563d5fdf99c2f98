package main

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scopeview/pkg/colorutil"
	"scopeview/ui/overlay"
)

func baseOptions() options {
	return options{
		blank:  [2]int{100, 100},
		size:   [2]int{100, 100},
		rep:    []int{4, 4},
		width:  1,
		point:  -1,
		colour: colorutil.MustHex(colorutil.HexSelection, 1),
	}
}

func TestRenderBlankData(t *testing.T) {
	frame, err := render(baseOptions())
	require.NoError(t, err)
	assert.Equal(t, 100, frame.Bounds().Dx())
	assert.Equal(t, 100, frame.Bounds().Dy())
	assert.Equal(t, color.RGBA{0x40, 0x40, 0x40, 0xff}, frame.RGBAAt(50, 50))
}

func TestRenderSelectedPixel(t *testing.T) {
	opts := baseOptions()
	opts.pixel = []int{5, 5}
	frame, err := render(opts)
	require.NoError(t, err)

	// Ten buffer pixels per data pixel
	assert.NotEqual(t, color.RGBA{0x40, 0x40, 0x40, 0xff}, frame.RGBAAt(55, 55))
	assert.Equal(t, color.RGBA{0x40, 0x40, 0x40, 0xff}, frame.RGBAAt(15, 85))
}

func TestRenderPointOutOfRange(t *testing.T) {
	opts := baseOptions()
	opts.roa = []float64{0, 0, 1, 1}
	opts.point = 16
	_, err := render(opts)
	assert.Error(t, err)

	opts.point = 15
	_, err = render(opts)
	assert.NoError(t, err)
}

func TestParseInts(t *testing.T) {
	tests := []struct {
		in      string
		n       int
		want    []int
		wantErr bool
	}{
		{"", 2, nil, false},
		{"4x4", 2, []int{4, 4}, false},
		{"1, 2, 3, 4", 4, []int{1, 2, 3, 4}, false},
		{"1,2", 4, nil, true},
		{"a,b", 2, nil, true},
	}
	for _, tt := range tests {
		got, err := parseInts(tt.in, tt.n)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParsePairRejectsEmpty(t *testing.T) {
	_, err := parsePair("")
	assert.Error(t, err)
	_, err = parsePair("0x10")
	assert.Error(t, err)

	got, err := parsePair("800x600")
	require.NoError(t, err)
	assert.Equal(t, [2]int{800, 600}, got)
}

func TestParseFill(t *testing.T) {
	f, err := parseFill("grid")
	require.NoError(t, err)
	assert.Equal(t, overlay.FillGrid, f)

	_, err = parseFill("dots")
	assert.Error(t, err)
}
