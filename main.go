// Package main provides the entry point for the Scope View application.
package main

import (
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"scopeview/internal/app"
	"scopeview/internal/model"
	"scopeview/internal/version"
	"scopeview/ui/mainwindow"
	"scopeview/ui/prefs"
)

const appID = "org.scopeview.viewer"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Scope View v%s", version.Version)

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(&app.ScopeTheme{})

	appPrefs := prefs.Load()
	microscope := appPrefs.String(prefs.KeyMicroscope)
	appState, err := app.NewState(microscope)
	if err != nil {
		log.Fatalf("Failed to create session for microscope %q: %v", microscope, err)
	}

	win, err := mainwindow.New(a, appState, appPrefs, model.DispatcherFunc(fyne.Do))
	if err != nil {
		log.Fatalf("Failed to create main window: %v", err)
	}

	// Handle command line arguments: a session or an image
	if len(os.Args) > 1 {
		path := os.Args[1]
		if filepath.Ext(path) == ".scopeview" {
			err = appState.LoadSession(path)
		} else {
			err = appState.LoadImage(path)
		}
		if err != nil {
			log.Printf("Failed to open %s: %v", path, err)
		}
	}

	win.ShowAndRun()
	log.Printf("Scope View exiting")
}
