package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHex(t *testing.T) {
	c, err := FromHex("#FFA300", 0.5)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 163, B: 0, A: 128}, c)

	c, err = FromHex("2fa7d4", 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x2f, G: 0xa7, B: 0xd4, A: 255}, c)
	assert.Equal(t, "#2FA7D4", ToHex(c))
}

func TestFromHexInvalid(t *testing.T) {
	_, err := FromHex("#FFF", 1)
	assert.Error(t, err)
	_, err = FromHex("#GGGGGG", 1)
	assert.Error(t, err)
	assert.Panics(t, func() { MustHex("nope", 1) })
}

func TestWithAlphaClamps(t *testing.T) {
	assert.Equal(t, uint8(255), WithAlpha(Black, 3).A)
	assert.Equal(t, uint8(0), WithAlpha(Black, -1).A)
}
