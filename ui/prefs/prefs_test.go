package prefs

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scopeview", prefsFile)
	p := LoadFrom(path)
	assert.Equal(t, 3, p.Int(KeySelectionWidth, 3), "fallback when unset")

	p.SetInt(KeySelectionWidth, 5)
	p.SetString(KeyLastImageDir, "/data/scans")
	p.SetFloat("zoom", 2.5)
	p.SetBool("show_grid", true)
	p.SetColour(KeyOverlayColour, color.NRGBA{R: 0x12, G: 0xAB, B: 0xEF, A: 255})
	require.NoError(t, p.Save())

	r := LoadFrom(path)
	assert.Equal(t, 5, r.Int(KeySelectionWidth, 1))
	assert.Equal(t, "/data/scans", r.String(KeyLastImageDir))
	assert.Equal(t, 2.5, r.Float("zoom", 0))
	assert.True(t, r.Bool("show_grid", false))
	assert.Equal(t, color.NRGBA{R: 0x12, G: 0xAB, B: 0xEF, A: 255}, r.Colour(KeyOverlayColour, color.NRGBA{}))
	assert.Equal(t, path, r.Path())
}

func TestMalformedValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, prefsFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"overlay_colour": "blue", "selection_width": "wide"}`), 0o644))

	p := LoadFrom(path)
	fallback := color.NRGBA{R: 1, A: 255}
	assert.Equal(t, fallback, p.Colour(KeyOverlayColour, fallback))
	assert.Equal(t, 2, p.Int(KeySelectionWidth, 2))
	assert.False(t, p.Bool(KeyOverlayColour, false))

	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	assert.Error(t, p.Reload())
	assert.Equal(t, "blue", p.String(KeyOverlayColour), "a failed reload keeps the values")
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	p := LoadFrom(path)

	changed := make(chan struct{}, 8)
	w, err := p.Watch(func() { changed <- struct{}{} })
	require.NoError(t, err)
	defer w.Stop()

	other := LoadFrom(path)
	other.SetString(KeyMicroscope, "sparc")
	require.NoError(t, other.Save())

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("preferences change not seen")
	}
	assert.Equal(t, "sparc", p.String(KeyMicroscope))
}
