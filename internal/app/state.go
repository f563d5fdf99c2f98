// Package app holds the session state shared by the viewport and the
// controls: loaded images, stream settings and events.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"scopeview/internal/hwconf"
	"scopeview/internal/image"
	"scopeview/internal/model"
	"scopeview/pkg/geometry"
)

// StreamRole is the settings role of the spectrum stream, whose repetition
// the overlays edit.
const StreamRole = "streamspec"

// MaxPointChoices is the largest repetition whose cells are offered as point
// choices.
const MaxPointChoices = 4096

// DefaultMaxRepetition bounds the repetition when no image gives a resolution.
var DefaultMaxRepetition = []int{2048, 2048}

// State holds the application state: the current session, its images and the
// stream settings the overlays are bound to.
type State struct {
	mu sync.RWMutex

	// Session
	SessionPath string
	Modified    bool
	Microscope  string

	// Hardware settings table of the microscope
	Settings *hwconf.Table

	// Images, the first one at the bottom
	Layers []*image.Layer

	// Stream settings
	ROA            *model.Observable[geometry.Box] // Ratio of the field of view
	Repetition     *model.VA[[]int]
	SelectedLine   *model.Observable[geometry.PixelLine]
	SelectionWidth *model.VA[int]
	SelectedPixel  *model.Observable[geometry.PointInt]
	Point          *model.VA[geometry.Point2D] // Physical, one of the repetition cell centres

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventSessionLoaded EventType = iota
	EventSessionSaved
	EventImageLoaded
	EventLayersChanged
	EventModified
	EventPointsChanged
)

// EventListener is called when an event occurs.
type EventListener func(data any)

// NewState creates the state for a microscope role. An empty role uses the
// default settings table.
func NewState(microscope string) (*State, error) {
	table, err := hwconf.Default(microscope)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	s := &State{
		Microscope:     microscope,
		Settings:       table,
		ROA:            model.NewObservable(model.UndefinedROI),
		Repetition:     model.NewVA([]int{4, 4}, model.WithRange([]int{1, 1}, DefaultMaxRepetition)),
		SelectedLine:   model.NewObservable(geometry.NoPixelLine),
		SelectionWidth: model.NewVA(1, model.WithRange(1, 50)),
		SelectedPixel:  model.NewObservable(geometry.NoPixel),
		Point:          model.NewVA(geometry.Point2D{}, model.WithChoices([]geometry.Point2D{}...)),
		listeners:      make(map[EventType][]EventListener),
	}
	s.ROA.Subscribe(func(geometry.Box) { s.updatePoints() }, false)
	s.Repetition.Subscribe(func([]int) { s.updatePoints() }, false)
	return s, nil
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data any) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// FieldOfView returns the physical area of the first image, which the ROA
// ratios refer to. It is zero without images.
func (s *State) FieldOfView() geometry.Box {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Layers) == 0 {
		return geometry.Box{}
	}
	return s.Layers[0].PhysicalBox()
}

// Base returns the first image layer, or nil.
func (s *State) Base() *image.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Layers) == 0 {
		return nil
	}
	return s.Layers[0]
}

// LoadImage loads an image and adds it on top of the others.
func (s *State) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}
	s.AddLayer(layer)
	s.SetModified(true)
	s.Emit(EventImageLoaded, layer)
	return nil
}

// AddLayer adds a layer on top of the others. The first layer sets the
// repetition range and resets the data selections.
func (s *State) AddLayer(layer *image.Layer) {
	s.mu.Lock()
	s.Layers = append(s.Layers, layer)
	first := len(s.Layers) == 1
	s.mu.Unlock()

	if first {
		res := layer.Resolution()
		s.Repetition.SetRange([]int{1, 1}, []int{res.X, res.Y})
		s.SelectedLine.SetValue(geometry.NoPixelLine)
		s.SelectedPixel.SetValue(geometry.NoPixel)
		s.updatePoints()
	}
	s.Emit(EventLayersChanged, nil)
}

// ReloadImage decodes path again and replaces the layers loaded from it,
// keeping their placement.
func (s *State) ReloadImage(path string) error {
	fresh, err := image.Load(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	found := false
	for _, l := range s.Layers {
		if l.Path == path {
			l.Image = fresh.Image
			found = true
		}
	}
	s.mu.Unlock()
	if !found {
		return fmt.Errorf("no image loaded from %s", path)
	}
	s.Emit(EventLayersChanged, nil)
	return nil
}

// ImagePaths returns the files the layers were loaded from.
func (s *State) ImagePaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var paths []string
	for _, l := range s.Layers {
		if l.Path != "" && !slices.Contains(paths, l.Path) {
			paths = append(paths, l.Path)
		}
	}
	return paths
}

// RepetitionChoices returns the repetitions offered for the stream, from the
// settings table when it has a generator for them.
func (s *State) RepetitionChoices() ([][]int, error) {
	setting, ok := s.Settings.Lookup(StreamRole, "repetition")
	if !ok || setting.Generator == "" {
		return hwconf.ResolutionFromRangePlusPoint(s.Repetition), nil
	}
	choices, err := setting.ChoicesFor(s.Repetition)
	if err != nil {
		return nil, err
	}
	res, ok := choices.([][]int)
	if !ok {
		return nil, fmt.Errorf("repetition choices of type %T", choices)
	}
	return res, nil
}

// RepetitionCells returns the physical centres of the repetition cells of the
// ROA, row by row from the top-left one.
func (s *State) RepetitionCells() []geometry.Point2D {
	roa := s.ROA.Value()
	rep := s.Repetition.Value()
	fov := s.FieldOfView()
	if roa == model.UndefinedROI || len(rep) != 2 || rep[0] <= 0 || rep[1] <= 0 || fov.IsZero() {
		return []geometry.Point2D{}
	}
	if rep[0]*rep[1] > MaxPointChoices {
		slog.Info("Too many repetition cells to pick from", "repetition", rep)
		return []geometry.Point2D{}
	}
	w, h := fov.Width(), fov.Height()
	cells := make([]geometry.Point2D, 0, rep[0]*rep[1])
	for j := range rep[1] {
		ry := roa.MinY + (float64(j)+0.5)*(roa.MaxY-roa.MinY)/float64(rep[1])
		for i := range rep[0] {
			rx := roa.MinX + (float64(i)+0.5)*(roa.MaxX-roa.MinX)/float64(rep[0])
			cells = append(cells, geometry.Point2D{X: fov.MinX + rx*w, Y: fov.MaxY - ry*h})
		}
	}
	return cells
}

// updatePoints offers the repetition cells as point choices. The point moves
// to the first cell when it is no longer one of them.
func (s *State) updatePoints() {
	cells := s.RepetitionCells()
	s.Point.SetChoices(cells...)
	if len(cells) > 0 && !slices.Contains(cells, s.Point.Value()) {
		s.Point.SetValue(cells[0])
	}
	slog.Debug("Point choices updated", "count", len(cells))
	s.Emit(EventPointsChanged, len(cells))
}

// SessionFile represents the JSON structure of a .scopeview file.
type SessionFile struct {
	Version    int         `json:"version"`
	Microscope string      `json:"microscope,omitempty"`
	Images     []ImageData `json:"images,omitempty"`

	ROA            geometry.Box       `json:"roa"`
	Repetition     []int              `json:"repetition,omitempty"`
	SelectedLine   geometry.PixelLine `json:"selected_line"`
	SelectedPixel  geometry.PointInt  `json:"selected_pixel"`
	SelectionWidth int                `json:"selection_width,omitempty"`
	Point          *geometry.Point2D  `json:"point,omitempty"`
}

// ImageData is the placement of one layer. Paths are relative to the session
// file.
type ImageData struct {
	Path      string           `json:"path"`
	PixelSize float64          `json:"pixel_size"`
	Center    geometry.Point2D `json:"center"`
	Opacity   float64          `json:"opacity"`
	Blend     image.BlendMode  `json:"blend,omitempty"`
	Hidden    bool             `json:"hidden,omitempty"`
}

// SaveSession saves the session to the specified path.
func (s *State) SaveSession(path string) error {
	sessionDir := filepath.Dir(path)

	s.mu.RLock()
	sess := SessionFile{
		Version:        1,
		Microscope:     s.Microscope,
		ROA:            s.ROA.Value(),
		Repetition:     s.Repetition.Value(),
		SelectedLine:   s.SelectedLine.Value(),
		SelectedPixel:  s.SelectedPixel.Value(),
		SelectionWidth: s.SelectionWidth.Value(),
	}
	if p := s.Point.Value(); len(s.Layers) > 0 {
		sess.Point = &p
	}
	for _, l := range s.Layers {
		rel, err := filepath.Rel(sessionDir, l.Path)
		if err != nil {
			rel = l.Path
		}
		sess.Images = append(sess.Images, ImageData{
			Path:      rel,
			PixelSize: l.PixelSize,
			Center:    l.Center,
			Opacity:   l.Opacity,
			Blend:     l.Blend,
			Hidden:    !l.Visible,
		})
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	s.mu.Lock()
	s.SessionPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventSessionSaved, path)
	return nil
}

// LoadSession replaces the images and stream settings with those of the
// session at path.
func (s *State) LoadSession(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sess SessionFile
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	sessionDir := filepath.Dir(path)
	layers := make([]*image.Layer, 0, len(sess.Images))
	for _, im := range sess.Images {
		p := im.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(sessionDir, p)
		}
		layer, err := image.Load(p)
		if err != nil {
			return fmt.Errorf("session image %s: %w", im.Path, err)
		}
		if im.PixelSize > 0 {
			layer.PixelSize = im.PixelSize
		}
		layer.Center = im.Center
		layer.Opacity = im.Opacity
		layer.Blend = im.Blend
		layer.Visible = !im.Hidden
		layers = append(layers, layer)
	}

	s.mu.Lock()
	s.SessionPath = path
	s.Modified = false
	s.Layers = layers
	s.mu.Unlock()

	if len(layers) > 0 {
		res := layers[0].Resolution()
		s.Repetition.SetRange([]int{1, 1}, []int{res.X, res.Y})
	}
	if len(sess.Repetition) == 2 {
		s.Repetition.SetValue(sess.Repetition)
	}
	if sess.SelectionWidth > 0 {
		s.SelectionWidth.SetValue(sess.SelectionWidth)
	}
	s.SelectedLine.SetValue(sess.SelectedLine)
	s.SelectedPixel.SetValue(sess.SelectedPixel)
	s.ROA.SetValue(sess.ROA)
	if sess.Point != nil {
		s.Point.SetValue(*sess.Point)
	}

	s.Emit(EventLayersChanged, nil)
	s.Emit(EventSessionLoaded, path)
	return nil
}
