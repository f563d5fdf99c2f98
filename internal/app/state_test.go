package app

import (
	"encoding/json"
	goimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scopeview/internal/image"
	"scopeview/pkg/geometry"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// testLayer is 100x50 pixels of 1 µm centred on the origin.
func testLayer() *image.Layer {
	return image.NewLayer(goimage.NewRGBA(goimage.Rect(0, 0, 100, 50)), 1e-6)
}

func TestNewStateUnknownMicroscope(t *testing.T) {
	s, err := NewState("nosuchscope")
	require.NoError(t, err)
	assert.NotNil(t, s.Settings)
	assert.Equal(t, geometry.NoPixel, s.SelectedPixel.Value())
	assert.Equal(t, geometry.NoPixelLine, s.SelectedLine.Value())
	assert.Empty(t, s.RepetitionCells())
}

func TestRepetitionChoices(t *testing.T) {
	plain, err := NewState("")
	require.NoError(t, err)
	sparc, err := NewState("sparc")
	require.NoError(t, err)

	_, ok := sparc.Settings.Lookup(StreamRole, "repetition")
	require.True(t, ok)

	got, err := sparc.RepetitionChoices()
	require.NoError(t, err)
	assert.Contains(t, got, []int{1, 1})
	assert.Contains(t, got, []int{4, 4})
	assert.Contains(t, got, []int{2048, 2048})

	fallback, err := plain.RepetitionChoices()
	require.NoError(t, err)
	assert.Equal(t, got, fallback)
}

func TestAddLayerLimitsRepetition(t *testing.T) {
	s, err := NewState("")
	require.NoError(t, err)
	s.SelectedPixel.SetValue(geometry.PointInt{X: 3, Y: 3})

	changed := 0
	s.On(EventLayersChanged, func(any) { changed++ })
	s.AddLayer(testLayer())

	_, hi, err := s.Repetition.Range()
	require.NoError(t, err)
	assert.Equal(t, []int{100, 50}, hi)
	assert.Equal(t, geometry.NoPixel, s.SelectedPixel.Value())
	assert.Equal(t, 1, changed)

	want := geometry.Box{MinX: -50e-6, MinY: -25e-6, MaxX: 50e-6, MaxY: 25e-6}
	assert.True(t, want.Approx(s.FieldOfView(), 1e-15))
}

func TestPointChoicesFollowROA(t *testing.T) {
	s, err := NewState("")
	require.NoError(t, err)
	s.AddLayer(testLayer())

	var counts []int
	s.On(EventPointsChanged, func(data any) { counts = append(counts, data.(int)) })

	s.ROA.SetValue(geometry.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1})
	s.Repetition.SetValue([]int{2, 1})
	assert.Equal(t, []int{16, 2}, counts)

	choices, err := s.Point.Choices()
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.InDelta(t, -25e-6, choices[0].X, 1e-15)
	assert.InDelta(t, 0, choices[0].Y, 1e-15)
	assert.InDelta(t, 25e-6, choices[1].X, 1e-15)
	assert.Equal(t, choices[0], s.Point.Value(), "the point moves onto a cell")

	// The top half of the field, one cell: its centre is a quarter down.
	s.ROA.SetValue(geometry.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 0.5})
	s.Repetition.SetValue([]int{1, 1})
	assert.InDelta(t, 0, s.Point.Value().X, 1e-15)
	assert.InDelta(t, 12.5e-6, s.Point.Value().Y, 1e-15)
}

func TestPointChoicesCapped(t *testing.T) {
	s, err := NewState("")
	require.NoError(t, err)
	s.AddLayer(testLayer())
	s.ROA.SetValue(geometry.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1})
	s.Repetition.SetValue([]int{100, 50})
	assert.Empty(t, s.RepetitionCells())
}

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "scan.png")
	writePNG(t, imgPath, 40, 30, color.Gray{Y: 128})

	s, err := NewState("sparc")
	require.NoError(t, err)
	require.NoError(t, s.LoadImage(imgPath))
	assert.True(t, s.Modified)

	s.Layers[0].Center = geometry.Point2D{X: 1e-6, Y: -2e-6}
	s.Layers[0].Opacity = 0.5
	s.ROA.SetValue(geometry.Box{MinX: 0.1, MinY: 0.2, MaxX: 0.6, MaxY: 0.9})
	s.Repetition.SetValue([]int{5, 3})
	s.SelectionWidth.SetValue(7)
	s.SelectedLine.SetValue(geometry.PixelLine{Start: geometry.PointInt{X: 1, Y: 2}, End: geometry.PointInt{X: 8, Y: 9}})
	choices, err := s.Point.Choices()
	require.NoError(t, err)
	s.Point.SetValue(choices[4])

	sessPath := filepath.Join(dir, "session.scopeview")
	require.NoError(t, s.SaveSession(sessPath))
	assert.False(t, s.Modified)
	assert.Equal(t, sessPath, s.SessionPath)

	data, err := os.ReadFile(sessPath)
	require.NoError(t, err)
	var raw SessionFile
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Images, 1)
	assert.Equal(t, "scan.png", raw.Images[0].Path, "image paths are relative")

	r, err := NewState("sparc")
	require.NoError(t, err)
	loaded := false
	r.On(EventSessionLoaded, func(any) { loaded = true })
	require.NoError(t, r.LoadSession(sessPath))

	assert.True(t, loaded)
	require.Len(t, r.Layers, 1)
	assert.Equal(t, imgPath, r.Layers[0].Path)
	assert.Equal(t, geometry.Point2D{X: 1e-6, Y: -2e-6}, r.Layers[0].Center)
	assert.Equal(t, 0.5, r.Layers[0].Opacity)
	assert.Equal(t, s.ROA.Value(), r.ROA.Value())
	assert.Equal(t, []int{5, 3}, r.Repetition.Value())
	assert.Equal(t, 7, r.SelectionWidth.Value())
	assert.Equal(t, s.SelectedLine.Value(), r.SelectedLine.Value())
	assert.Equal(t, geometry.NoPixel, r.SelectedPixel.Value())
	assert.Equal(t, choices[4], r.Point.Value())
}

func TestLoadSessionMissingImage(t *testing.T) {
	dir := t.TempDir()
	sessPath := filepath.Join(dir, "broken.scopeview")
	require.NoError(t, os.WriteFile(sessPath, []byte(`{"version":1,"images":[{"path":"gone.png"}]}`), 0644))

	s, err := NewState("")
	require.NoError(t, err)
	err = s.LoadSession(sessPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.png")
	assert.Empty(t, s.Layers)
}

func TestReloadImage(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "scan.png")
	writePNG(t, imgPath, 8, 8, color.Gray{Y: 10})

	s, err := NewState("")
	require.NoError(t, err)
	require.NoError(t, s.LoadImage(imgPath))
	assert.Equal(t, []string{imgPath}, s.ImagePaths())

	writePNG(t, imgPath, 8, 8, color.Gray{Y: 200})
	require.NoError(t, s.ReloadImage(imgPath))
	r, _, _, _ := s.Layers[0].Image.At(3, 3).RGBA()
	assert.Equal(t, uint32(200)*0x101, r)

	assert.Error(t, s.ReloadImage(filepath.Join(dir, "other.png")))
}
