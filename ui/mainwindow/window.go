// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	goimage "image"
	"image/png"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"scopeview/internal/app"
	"scopeview/internal/model"
	"scopeview/internal/version"
	"scopeview/pkg/colorutil"
	"scopeview/pkg/geometry"
	"scopeview/pkg/units"
	"scopeview/ui/canvas"
	"scopeview/ui/overlay"
	"scopeview/ui/prefs"
)

const (
	appTitle = "Scope View"

	// MetresPerWorldUnit is the size of one world unit of the viewport.
	MetresPerWorldUnit = 1e-6

	sessionExt = ".scopeview"

	reloadDelay = 500 * time.Millisecond
)

// DefaultOverlayColour is used when the preferences have no colour.
var DefaultOverlayColour = colorutil.MustHex(colorutil.HexSelection, 1)

var fillNames = []string{overlay.FillNone.String(), overlay.FillGrid.String(), overlay.FillPoint.String()}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app      fyne.App
	state    *app.State
	prefs    *prefs.Prefs
	canvas   *canvas.ViewCanvas
	tools    *ToolSet
	reloader *app.HotReloader
	watcher  *prefs.Watcher

	statusBar *widget.Label
	posLabel  *widget.Label
	zoomLabel *widget.Label
	repSelect *widget.Select
	repChoice [][]int
}

// New creates the main window. Callbacks from other goroutines are run
// through d.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs, d model.Dispatcher) (*MainWindow, error) {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}
	mw.canvas = canvas.NewViewCanvas(MetresPerWorldUnit, d)

	colour := p.Colour(prefs.KeyOverlayColour, DefaultOverlayColour)
	tools, err := NewToolSet(mw.canvas.View(), state, colour)
	if err != nil {
		return nil, fmt.Errorf("failed to set up overlays: %w", err)
	}
	mw.tools = tools
	for _, o := range tools.Overlays() {
		mw.canvas.AddOverlay(o)
	}
	if w := p.Int(prefs.KeySelectionWidth, 0); w > 0 {
		state.SelectionWidth.SetValue(w)
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupWatchers()
	mw.SetOnClosed(mw.shutdown)
	return mw, nil
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")
	mw.posLabel = widget.NewLabel("")
	mw.zoomLabel = widget.NewLabel("")

	mw.canvas.OnPointer(func(phys geometry.Point2D) {
		mw.posLabel.SetText(fmt.Sprintf("%s, %s",
			units.ReadableString(phys.X, "m", 4), units.ReadableString(phys.Y, "m", 4)))
		mw.updateStatus("")
	})
	mw.canvas.OnZoomChange(func(mpp float64) {
		mw.zoomLabel.SetText(units.ReadableString(mpp, "m/px", 3))
	})

	canvasArea := container.NewBorder(
		mw.createToolbar(), // top
		nil,                // bottom
		nil,                // left
		nil,                // right
		mw.canvas,          // center
	)

	content := container.NewBorder(
		nil, // top
		container.NewPadded(container.NewHBox(mw.statusBar, widget.NewSeparator(), mw.posLabel, widget.NewSeparator(), mw.zoomLabel)),
		nil, // left
		nil, // right
		canvasArea,
	)
	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1024, 768))
}

// createToolbar creates the tool, repetition and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	tools := widget.NewRadioGroup(toolNames, func(name string) {
		if t, ok := ToolByName(name); ok {
			mw.tools.Select(t)
			mw.updateStatus("")
		}
	})
	tools.Horizontal = true
	tools.Required = true
	tools.SetSelected(ToolPan.String())

	fill := widget.NewSelect(fillNames, func(name string) {
		for i, n := range fillNames {
			if n == name {
				mw.tools.ROA.SetFill(overlay.FillMode(i))
				mw.prefs.SetString(prefs.KeyFillMode, name)
			}
		}
	})
	if f := mw.prefs.String(prefs.KeyFillMode); f != "" {
		fill.SetSelected(f)
	} else {
		fill.SetSelected(overlay.FillNone.String())
	}

	mw.repSelect = widget.NewSelect(nil, func(name string) {
		for _, c := range mw.repChoice {
			if repetitionLabel(c) == name && !slices.Equal(c, mw.state.Repetition.Value()) {
				mw.state.Repetition.SetValue(c)
				mw.state.SetModified(true)
			}
		}
	})
	mw.refreshRepetitions()

	width := widget.NewSlider(1, 50)
	width.Step = 1
	width.SetValue(float64(mw.state.SelectionWidth.Value()))
	width.OnChangeEnded = func(v float64) {
		mw.state.SelectionWidth.SetValue(int(v))
		mw.prefs.SetInt(prefs.KeySelectionWidth, int(v))
	}

	return container.NewVBox(
		tools,
		container.NewHBox(
			widget.NewLabel("Fill:"), fill,
			widget.NewLabel("Repetition:"), mw.repSelect,
			widget.NewLabel("Width:"), container.NewGridWrap(fyne.NewSize(150, width.MinSize().Height), width),
			widget.NewButton("-", mw.canvas.ZoomOut),
			widget.NewButton("+", mw.canvas.ZoomIn),
			widget.NewButton("Fit", mw.onFit),
		),
	)
}

func repetitionLabel(rep []int) string {
	if len(rep) != 2 {
		return fmt.Sprint(rep)
	}
	return fmt.Sprintf("%d x %d", rep[0], rep[1])
}

// refreshRepetitions offers the repetitions allowed for the current data.
func (mw *MainWindow) refreshRepetitions() {
	choices, err := mw.state.RepetitionChoices()
	if err != nil {
		slog.Warn("No repetition choices", "error", err)
		choices = [][]int{mw.state.Repetition.Value()}
	}
	mw.repChoice = choices
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = repetitionLabel(c)
	}
	mw.repSelect.SetOptions(labels)
	mw.repSelect.SetSelected(repetitionLabel(mw.state.Repetition.Value()))
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Session...", mw.onOpenSession),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Session", mw.onSaveSession),
		fyne.NewMenuItem("Save Session As...", mw.onSaveSessionAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export View...", mw.onExportView),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Data", mw.onFit),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Selections", mw.onClearSelections),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSessionLoaded, func(data any) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Session loaded: " + path)
		}
	})

	mw.state.On(app.EventSessionSaved, func(data any) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
		}
	})

	mw.state.On(app.EventModified, func(data any) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if !strings.HasSuffix(title, "*") {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventLayersChanged, func(any) {
		mw.canvas.View().CallAfter(func() {
			mw.canvas.SetLayers(mw.state.Layers)
			mw.refreshRepetitions()
			if mw.reloader != nil {
				for _, p := range mw.state.ImagePaths() {
					if err := mw.reloader.Watch(p); err != nil {
						slog.Warn("Cannot watch image", "path", p, "error", err)
					}
				}
			}
		})
	})

	view := mw.canvas.View()
	mw.state.ROA.Subscribe(model.OnUI(view, func(geometry.Box) { mw.updateStatus("") }), false)
	mw.state.SelectedLine.Subscribe(model.OnUI(view, func(geometry.PixelLine) { mw.updateStatus("") }), false)
	mw.state.SelectedPixel.Subscribe(model.OnUI(view, func(geometry.PointInt) { mw.updateStatus("") }), false)

	mw.state.On(app.EventImageLoaded, func(any) {
		mw.canvas.View().CallAfter(func() {
			mw.onFit()
			mw.updateStatus("Image loaded")
		})
	})
}

// setupWatchers reloads images rewritten on disk and applies preference
// changes made by another instance.
func (mw *MainWindow) setupWatchers() {
	view := mw.canvas.View()

	reloader, err := app.NewHotReloader(reloadDelay)
	if err != nil {
		slog.Warn("Image reloading disabled", "error", err)
	} else {
		reloader.OnChange(func(path string) {
			view.CallAfter(func() {
				if err := mw.state.ReloadImage(path); err != nil {
					mw.updateStatus("Reload failed: " + err.Error())
					return
				}
				mw.updateStatus("Reloaded " + filepath.Base(path))
			})
		})
		reloader.Start()
		mw.reloader = reloader
	}

	w, err := mw.prefs.Watch(func() {
		view.CallAfter(func() {
			mw.tools.SetColour(mw.prefs.Colour(prefs.KeyOverlayColour, DefaultOverlayColour))
		})
	})
	if err != nil {
		slog.Warn("Preferences are not watched", "error", err)
		return
	}
	mw.watcher = w
}

func (mw *MainWindow) shutdown() {
	if mw.watcher != nil {
		if err := mw.watcher.Stop(); err != nil {
			slog.Warn("Stopping preferences watcher", "error", err)
		}
	}
	if mw.reloader != nil {
		if err := mw.reloader.Stop(); err != nil {
			slog.Warn("Stopping image watcher", "error", err)
		}
	}
	if err := mw.prefs.Save(); err != nil {
		slog.Warn("Failed to save preferences", "error", err)
	}
}

// updateStatus shows text, or the selection of the current tool when text
// is empty.
func (mw *MainWindow) updateStatus(text string) {
	if text == "" {
		text = mw.tools.Status()
	}
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastImageDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastImageDir, filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenSession() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.onFit()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{sessionExt}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSession() {
	if mw.state.SessionPath == "" {
		mw.onSaveSessionAs()
		return
	}
	if err := mw.state.SaveSession(mw.state.SessionPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveSessionAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != sessionExt {
			path += sessionExt
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("session" + sessionExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onExportView saves the canvas as displayed, overlays included.
func (mw *MainWindow) onExportView() {
	frame := mw.canvas.RenderedOutput()
	if frame == nil {
		mw.updateStatus("Nothing to export")
		return
	}
	snapshot := goimage.NewRGBA(frame.Bounds())
	copy(snapshot.Pix, frame.Pix)

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		if err := png.Encode(writer, snapshot); err != nil {
			dialog.ShowError(fmt.Errorf("failed to export view: %w", err), mw.Window)
			return
		}
		mw.updateStatus("Exported " + writer.URI().Name())
	}, mw.Window)
	fd.SetFileName("view.png")
	fd.Show()
}

func (mw *MainWindow) onFit() {
	mw.canvas.FitToData(mw.state.FieldOfView())
}

func (mw *MainWindow) onClearSelections() {
	mw.tools.Measure.ClearSelection()
	mw.tools.Ruler.ClearSelection()
	mw.state.ROA.SetValue(model.UndefinedROI)
	mw.state.SelectedLine.SetValue(geometry.NoPixelLine)
	mw.state.SelectedPixel.SetValue(geometry.NoPixel)
	mw.updateStatus("")
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Selection overlays for microscope images.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

