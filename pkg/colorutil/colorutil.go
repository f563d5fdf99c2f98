// Package colorutil provides shared color utilities for the viewer overlays.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Common overlay colors used throughout the application.
var (
	Black     = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	White     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	LightGrey = color.NRGBA{R: 204, G: 204, B: 204, A: 255}

	// Shade is the translucent black drawn under dashed strokes.
	Shade = color.NRGBA{R: 0, G: 0, B: 0, A: 128}
)

// Palette hex codes.
const (
	HexEdit      = "#2FA7D4" // Editable values, selected items
	HexHighlight = "#FFA300" // Highlighted items
	HexSelection = HexEdit
)

// FromHex parses "#RRGGBB" or "RRGGBB" and applies the given alpha (0-1).
func FromHex(hex string, alpha float64) (color.NRGBA, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: expected 6 hex digits", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: alphaByte(alpha),
	}, nil
}

// MustHex is like FromHex but panics on malformed input. Use it for constants.
func MustHex(hex string, alpha float64) color.NRGBA {
	c, err := FromHex(hex, alpha)
	if err != nil {
		panic(err)
	}
	return c
}

// WithAlpha returns c with its alpha replaced (0-1).
func WithAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = alphaByte(alpha)
	return c
}

// ToHex formats c as "#RRGGBB", dropping alpha.
func ToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func alphaByte(alpha float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, alpha)) * 255))
}
