package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"scopeview/pkg/colorutil"
)

// ScopeTheme is a dark theme whose accents match the overlay colours, so that
// toolbar state and canvas selections read alike.
type ScopeTheme struct{}

var _ fyne.Theme = (*ScopeTheme)(nil)

func (t *ScopeTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return colorutil.MustHex(colorutil.HexSelection, 1)
	case theme.ColorNameSelection:
		return colorutil.MustHex(colorutil.HexEdit, 0.5)
	case theme.ColorNameFocus:
		return colorutil.MustHex(colorutil.HexHighlight, 0.5)
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		// The image is easier to judge on a dark surround.
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *ScopeTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *ScopeTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *ScopeTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
