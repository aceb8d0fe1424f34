// Package main provides the entry point for the Sketch Simulator application.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"sketch-sim/internal/app"
	"sketch-sim/internal/config"
	"sketch-sim/internal/history"
	"sketch-sim/internal/ocr"
	"sketch-sim/internal/probe"
	"sketch-sim/internal/remote"
	"sketch-sim/internal/router"
	"sketch-sim/internal/sandbox"
	"sketch-sim/internal/scan"
	"sketch-sim/ui/mainwindow"
	"sketch-sim/ui/prefs"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appState := app.NewState()
	appPrefs := prefs.Load()

	svc := remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.APIKey, cfg.Remote.Model, cfg.Remote.Timeout)

	store, err := history.Open(context.Background(), cfg.History.Path)
	if err != nil {
		log.Fatalf("open history: %v", err)
	}
	defer store.Close()

	viewer := sandbox.NewViewer(cfg.Sandbox)
	if err := viewer.Start(); err != nil {
		log.Printf("sandbox unavailable, continuing without it: %v", err)
	}
	defer viewer.Close()

	ctrl := probe.NewController(probe.DefaultPosition(800))

	coordinator := scan.NewCoordinator(appState, svc)
	if engine, err := ocr.NewEngine(); err != nil {
		log.Printf("ocr unavailable, scans run without text hints: %v", err)
	} else {
		defer engine.Close()
		coordinator.SetHintFunc(func(cropBytes []byte) string {
			text, err := engine.RecognizeCrop(cropBytes)
			if err != nil {
				return ""
			}
			return text
		})
	}

	fyneApp := fyneapp.NewWithID("sketch-sim")
	fyneApp.Settings().SetTheme(&app.SketchSimTheme{})

	win := mainwindow.New(fyneApp, mainwindow.Deps{
		State:   appState,
		Service: svc,
		Scans:   coordinator,
		Router:  nil, // set below; the router needs the window's container rect
		Probe:   ctrl,
		Sandbox: viewer,
		History: store,
		Prefs:   appPrefs,
	})
	win.SetRouter(router.New(appState, svc, ctrl, win.ContainerRect))

	setupHotReload(win)

	win.Show()
	fyneApp.Run()
}

// setupHotReload restarts the app when a newer binary lands next to the
// running one. Development convenience only.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.StartupTime().Format("15:04:05"))

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if restart {
					log.Println("Hot reload: restarting...")
					if err := reloader.Restart(); err != nil {
						log.Printf("Hot reload: restart failed: %v", err)
					}
					return
				}
				reloader.ResetBaseline()
				reloader.Start()
			}, win.Window)
	})

	reloader.Start()
}
