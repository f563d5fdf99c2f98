// Command overlayrender draws selection overlays over a microscope image and
// writes the result as a PNG, without opening a window.
package main

import (
	"flag"
	"fmt"
	goimage "image"
	"image/color"
	"image/png"
	"log"
	"os"
	"strconv"
	"strings"

	"scopeview/internal/app"
	"scopeview/internal/image"
	"scopeview/internal/model"
	"scopeview/internal/viewport"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/ui/canvas"
	"scopeview/ui/overlay"
)

type options struct {
	image      string
	pixelSize  float64 // Overrides the file's pixel size when > 0
	blank      [2]int  // Data size in pixels when no image is given
	size       [2]int  // Output size
	microscope string
	roa        []float64
	rep        []int
	fill       overlay.FillMode
	line       []int
	width      int
	pixel      []int
	point      int // Index of the chosen repetition cell, -1 for none
	colour     color.NRGBA
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	imagePath := flag.String("image", "", "Image to draw on (TIFF, PNG or JPEG); blank data if empty")
	pixelSize := flag.Float64("pixel-size", 0, "Pixel size in metres, overrides the file")
	blank := flag.String("blank", "512x512", "Size of the blank data in pixels")
	size := flag.String("size", "800x600", "Output size in pixels")
	microscope := flag.String("microscope", "", "Microscope role of the settings table")
	roa := flag.String("roa", "", "Region of acquisition as left,top,right,bottom ratios")
	rep := flag.String("rep", "4x4", "Repetition of the region of acquisition")
	fill := flag.String("fill", "none", "Repetition fill: none, grid or point")
	line := flag.String("line", "", "Spectrum line in data pixels: x0,y0,x1,y1")
	width := flag.Int("width", 1, "Spectrum line width in pixels")
	pixel := flag.String("pixel", "", "Selected data pixel: x,y")
	point := flag.Int("point", -1, "Show the repetition points and choose this one")
	colour := flag.String("colour", colorutil.HexSelection, "Overlay colour")
	out := flag.String("out", "overlay.png", "Output PNG")
	flag.Parse()

	opts := options{
		image:      *imagePath,
		pixelSize:  *pixelSize,
		microscope: *microscope,
		width:      *width,
		point:      *point,
	}
	var err error
	if opts.blank, err = parsePair(*blank); err != nil {
		log.Fatalf("Bad -blank: %v", err)
	}
	if opts.size, err = parsePair(*size); err != nil {
		log.Fatalf("Bad -size: %v", err)
	}
	if opts.roa, err = parseFloats(*roa, 4); err != nil {
		log.Fatalf("Bad -roa: %v", err)
	}
	if opts.rep, err = parseInts(*rep, 2); err != nil {
		log.Fatalf("Bad -rep: %v", err)
	}
	if opts.fill, err = parseFill(*fill); err != nil {
		log.Fatalf("Bad -fill: %v", err)
	}
	if opts.line, err = parseInts(*line, 4); err != nil {
		log.Fatalf("Bad -line: %v", err)
	}
	if opts.pixel, err = parseInts(*pixel, 2); err != nil {
		log.Fatalf("Bad -pixel: %v", err)
	}
	if opts.colour, err = colorutil.FromHex(*colour, 1); err != nil {
		log.Fatalf("Bad -colour: %v", err)
	}

	frame, err := render(opts)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, frame); err != nil {
		log.Fatalf("Failed to encode PNG: %v", err)
	}
	log.Printf("Wrote %s (%dx%d)", *out, opts.size[0], opts.size[1])
}

// render builds a session from opts and draws it, fitted to the output.
func render(opts options) (*goimage.RGBA, error) {
	state, err := app.NewState(opts.microscope)
	if err != nil {
		return nil, err
	}

	var layer *image.Layer
	if opts.image != "" {
		if layer, err = image.Load(opts.image); err != nil {
			return nil, err
		}
	} else {
		blank := goimage.NewGray(goimage.Rect(0, 0, opts.blank[0], opts.blank[1]))
		for i := range blank.Pix {
			blank.Pix[i] = 0x40
		}
		layer = image.NewLayer(blank, image.DefaultPixelSize)
	}
	if opts.pixelSize > 0 {
		layer.PixelSize = opts.pixelSize
	}
	state.AddLayer(layer)
	log.Printf("Data: %dx%d px of %g m", layer.Width(), layer.Height(), layer.PixelSize)

	size := geometry.PointInt{X: opts.size[0], Y: opts.size[1]}
	view := viewport.NewView(size, size, 1e-6, model.Immediate)
	view.SetFieldOfView(state.FieldOfView())
	canvas.FitView(view, state.FieldOfView())

	props := overlay.DataProperties{MPP: layer.PixelSize, Center: layer.Center, Resolution: layer.Resolution()}
	roa := overlay.NewRepetitionSelect(view, opts.colour)
	roa.SetFill(opts.fill)
	line := overlay.NewSpectrumLineSelect(view, opts.colour)
	line.SetDataProperties(props)
	pix := overlay.NewPixelSelect(view)
	pix.SetDataProperties(props)
	points := overlay.NewPointsOverlay(view)

	if err := roa.ConnectROA(state.ROA); err != nil {
		return nil, err
	}
	if err := line.ConnectSelection(state.SelectedLine, state.SelectionWidth.Observable, state.SelectedPixel); err != nil {
		return nil, err
	}
	if err := pix.ConnectSelection(state.SelectedPixel, state.SelectionWidth.Observable); err != nil {
		return nil, err
	}

	if opts.rep != nil {
		state.Repetition.SetValue(opts.rep)
		roa.SetRepetition([2]int{opts.rep[0], opts.rep[1]})
	}
	if opts.roa != nil {
		state.ROA.SetValue(geometry.Box{MinX: opts.roa[0], MinY: opts.roa[1], MaxX: opts.roa[2], MaxY: opts.roa[3]})
	}
	state.SelectionWidth.SetValue(opts.width)
	if opts.line != nil {
		state.SelectedLine.SetValue(geometry.PixelLine{
			Start: geometry.PointInt{X: opts.line[0], Y: opts.line[1]},
			End:   geometry.PointInt{X: opts.line[2], Y: opts.line[3]},
		})
	}
	if opts.pixel != nil {
		state.SelectedPixel.SetValue(geometry.PointInt{X: opts.pixel[0], Y: opts.pixel[1]})
	}

	var stack canvas.Stack
	stack.Add(roa)
	stack.Add(line)
	stack.Add(pix)
	if opts.point >= 0 {
		cells := state.RepetitionCells()
		if opts.point >= len(cells) {
			return nil, fmt.Errorf("point %d out of %d repetition cells", opts.point, len(cells))
		}
		state.Point.SetValue(cells[opts.point])
		if err := points.SetPoints(state.Point, view.MPP); err != nil {
			return nil, err
		}
		points.Activate()
		stack.Add(points)
	}

	frame := goimage.NewRGBA(goimage.Rect(0, 0, size.X, size.Y))
	canvas.Compose(frame, view, state.Layers, &stack)
	return frame, nil
}

// parseInts splits s on commas or 'x' into exactly n integers. An empty s
// gives nil.
func parseInts(s string, n int) ([]int, error) {
	fields, err := split(s, n)
	if fields == nil || err != nil {
		return nil, err
	}
	vals := make([]int, n)
	for i, f := range fields {
		if vals[i], err = strconv.Atoi(f); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields, err := split(s, n)
	if fields == nil || err != nil {
		return nil, err
	}
	vals := make([]float64, n)
	for i, f := range fields {
		if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

func parsePair(s string) ([2]int, error) {
	vals, err := parseInts(s, 2)
	if err != nil {
		return [2]int{}, err
	}
	if vals == nil || vals[0] <= 0 || vals[1] <= 0 {
		return [2]int{}, fmt.Errorf("%q is not a positive size", s)
	}
	return [2]int{vals[0], vals[1]}, nil
}

func split(s string, n int) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == 'x' })
	if len(fields) != n {
		return nil, fmt.Errorf("%q: want %d values, got %d", s, n, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func parseFill(s string) (overlay.FillMode, error) {
	for _, f := range []overlay.FillMode{overlay.FillNone, overlay.FillGrid, overlay.FillPoint} {
		if f.String() == s {
			return f, nil
		}
	}
	return overlay.FillNone, fmt.Errorf("unknown fill %q", s)
}
