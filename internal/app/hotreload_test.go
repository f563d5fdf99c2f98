package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotReloaderReportsRewrite(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "scan.tif")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(watched, []byte("a"), 0644))

	h, err := NewHotReloader(100 * time.Millisecond)
	require.NoError(t, err)
	changed := make(chan string, 4)
	h.OnChange(func(p string) { changed <- p })
	require.NoError(t, h.Watch(watched))
	assert.True(t, h.Watched(watched))
	assert.False(t, h.Watched(other))
	h.Start()
	defer h.Stop()

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0644))
	for range 3 {
		require.NoError(t, os.WriteFile(watched, []byte("more data"), 0644))
	}

	select {
	case p := <-changed:
		assert.Equal(t, watched, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case p := <-changed:
		t.Fatalf("unexpected second report for %s", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHotReloaderStopDropsPending(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(watched, []byte("a"), 0644))

	h, err := NewHotReloader(time.Hour)
	require.NoError(t, err)
	called := false
	h.OnChange(func(string) { called = true })
	require.NoError(t, h.Watch(watched))
	h.schedule(watched)
	require.NoError(t, h.Stop())
	assert.False(t, called)
	assert.Empty(t, h.pending)
}
