// Package image provides microscope image loading and rendering into the
// viewport buffer.
package image

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"scopeview/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

// DefaultPixelSize is used when the file carries no resolution, in metres.
const DefaultPixelSize = 100e-9

// Layer is one acquired image placed in physical space.
type Layer struct {
	Path      string           // Original file path
	Image     image.Image      // Loaded image data
	PixelSize float64          // Metres per pixel, square pixels
	Center    geometry.Point2D // Physical position of the image centre (m, Y up)
	Visible   bool
	Opacity   float64 // 0.0 - 1.0
	Blend     BlendMode
}

// NewLayer returns a visible, opaque layer holding img.
func NewLayer(img image.Image, pixelSize float64) *Layer {
	return &Layer{
		Image:     img,
		PixelSize: pixelSize,
		Visible:   true,
		Opacity:   1.0,
	}
}

// Load loads an image from the specified path. The pixel size is read from
// the TIFF resolution tags when present.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	layer := NewLayer(img, DefaultPixelSize)
	layer.Path = path

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if ps, err := extractTIFFPixelSize(path); err == nil {
			layer.PixelSize = ps
		}
	}
	return layer, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Resolution returns the image size in pixels.
func (l *Layer) Resolution() geometry.PointInt {
	return geometry.PointInt{X: l.Width(), Y: l.Height()}
}

// PhysicalSize returns the image extent in metres.
func (l *Layer) PhysicalSize() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()) * l.PixelSize,
		Height: float64(l.Height()) * l.PixelSize,
	}
}

// PhysicalBox returns the physical area covered by the image.
func (l *Layer) PhysicalBox() geometry.Box {
	s := l.PhysicalSize()
	return geometry.Box{
		MinX: l.Center.X - s.Width/2,
		MinY: l.Center.Y - s.Height/2,
		MaxX: l.Center.X + s.Width/2,
		MaxY: l.Center.Y + s.Height/2,
	}
}

// PhysToPixel returns the pixel containing the physical position p. The
// result may lie outside the image.
func (l *Layer) PhysToPixel(p geometry.Point2D) geometry.PointInt {
	b := l.PhysicalBox()
	return geometry.PointInt{
		X: int(math.Floor((p.X - b.MinX) / l.PixelSize)),
		Y: int(math.Floor((b.MaxY - p.Y) / l.PixelSize)),
	}
}

// PixelToPhys returns the physical position of the centre of pixel px.
func (l *Layer) PixelToPhys(px geometry.PointInt) geometry.Point2D {
	b := l.PhysicalBox()
	return geometry.Point2D{
		X: b.MinX + (float64(px.X)+0.5)*l.PixelSize,
		Y: b.MaxY - (float64(px.Y)+0.5)*l.PixelSize,
	}
}

// PixelAt returns the color at the specified pixel coordinates.
func (l *Layer) PixelAt(x, y int) color.Color {
	if l.Image == nil {
		return color.Black
	}
	bounds := l.Image.Bounds()
	x += bounds.Min.X
	y += bounds.Min.Y
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return color.Black
	}
	return l.Image.At(x, y)
}

// extractTIFFPixelSize reads the resolution tags of a TIFF file and returns
// the pixel size in metres.
func extractTIFFPixelSize(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		byteOrder = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes float64
	var resUnit uint16 = 2 // Inches unless stated
	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		switch tag {
		case 282: // XResolution
			if fieldType == 5 { // RATIONAL
				xRes = readTIFFRational(file, int64(byteOrder.Uint32(entry[8:12])), byteOrder)
			}
		case 296: // ResolutionUnit
			if fieldType == 3 { // SHORT, left-justified in the value field
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	if xRes == 0 {
		return 0, fmt.Errorf("no resolution tag found")
	}
	switch resUnit {
	case 3: // Centimetre
		return 0.01 / xRes, nil
	case 2:
		return 0.0254 / xRes, nil
	}
	return 0, fmt.Errorf("resolution unit %d has no physical size", resUnit)
}

// readTIFFRational reads a RATIONAL value (two uint32s) from a TIFF file.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
