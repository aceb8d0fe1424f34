// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"sketch-sim/internal/app"
	"sketch-sim/internal/creation"
	"sketch-sim/internal/history"
	"sketch-sim/internal/mapper"
	"sketch-sim/internal/probe"
	"sketch-sim/internal/remote"
	"sketch-sim/internal/router"
	"sketch-sim/internal/sandbox"
	"sketch-sim/internal/scan"
	"sketch-sim/internal/version"
	"sketch-sim/ui/panels"
	"sketch-sim/ui/prefs"
	"sketch-sim/ui/probewidget"
	"sketch-sim/ui/viewer"

	"sketch-sim/pkg/geometry"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeySplitOffset = "splitOffset"
	prefKeyWindowW     = "windowWidth"
	prefKeyWindowH     = "windowHeight"
)

// Deps carries the wired application services the window drives.
type Deps struct {
	State   *app.State
	Service remote.Service
	Scans   *scan.Coordinator
	Router  *router.Router
	Probe   *probe.Controller
	Sandbox *sandbox.Viewer
	History *history.Store
	Prefs   *prefs.Prefs
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app  fyne.App
	deps Deps

	viewer    *viewer.ImageViewer
	magnifier *viewer.Magnifier
	probeW    *probewidget.Probe
	chat      *panels.ChatPanel
	histPanel *panels.HistoryPanel
	entry     *widget.Entry
	busyBar   *widget.ProgressBarInfinite
	statusBar *widget.Label
	split     *container.Split

	playItem *fyne.MenuItem
}

// New creates the main window.
func New(fyneApp fyne.App, deps Deps) *MainWindow {
	win := fyneApp.NewWindow("Sketch Simulator")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		deps:   deps,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.wireProbe()

	return mw
}

// SetRouter installs the command router after construction. The router needs
// the window's container rect, so it is built second.
func (mw *MainWindow) SetRouter(r *router.Router) {
	mw.deps.Router = r
}

// ContainerRect is the rect of the image display area, read fresh per event.
func (mw *MainWindow) ContainerRect() geometry.Rect {
	return mw.viewer.ContainerRect()
}

func (mw *MainWindow) setupUI() {
	mw.viewer = viewer.NewImageViewer()
	mw.magnifier = viewer.NewMagnifier(mw.viewer)
	mw.probeW = probewidget.New(mw.deps.Probe)

	mw.chat = panels.NewChatPanel(mw.deps.State)
	mw.histPanel = panels.NewHistoryPanel(mw.deps.History)
	mw.histPanel.OnSelect(mw.openCreation)
	mw.histPanel.OnExport(mw.exportCreation)
	mw.histPanel.OnImport(mw.onImportCreation)

	mw.entry = widget.NewEntry()
	mw.entry.SetPlaceHolder("Ask, modify, or say \"find the ...\"")
	mw.entry.OnSubmitted = func(text string) {
		if mw.deps.Router == nil {
			return
		}
		mw.entry.SetText("")
		go mw.deps.Router.Dispatch(context.Background(), text)
	}
	sendBtn := widget.NewButton("Send", func() {
		mw.entry.OnSubmitted(mw.entry.Text)
	})

	mw.busyBar = widget.NewProgressBarInfinite()
	mw.busyBar.Hide()
	mw.statusBar = widget.NewLabel("Load an image to begin")

	overlay := container.NewWithoutLayout(mw.magnifier, mw.probeW)
	mw.probeW.Resize(mw.probeW.MinSize())
	mw.magnifier.Resize(fyne.NewSize(viewer.MagnifierSize, viewer.MagnifierSize))
	stage := container.NewStack(mw.viewer, overlay)

	side := container.NewAppTabs(
		container.NewTabItem("Chat", mw.chat.Container()),
		container.NewTabItem("History", mw.histPanel.Container()),
	)

	commandRow := container.NewBorder(nil, nil, nil, sendBtn, mw.entry)

	mw.split = container.NewHSplit(stage, side)
	mw.split.SetOffset(mw.deps.Prefs.FloatWithFallback(prefKeySplitOffset, 0.7))

	content := container.NewBorder(
		nil,
		container.NewVBox(mw.busyBar, commandRow, container.NewPadded(mw.statusBar)),
		nil,
		nil,
		mw.split,
	)
	mw.SetContent(content)
	mw.Resize(fyne.NewSize(
		float32(mw.deps.Prefs.FloatWithFallback(prefKeyWindowW, 1200)),
		float32(mw.deps.Prefs.FloatWithFallback(prefKeyWindowH, 800)),
	))
	mw.SetCloseIntercept(func() {
		mw.savePrefs()
		mw.Close()
	})
}

// savePrefs records window geometry so the next launch restores it.
func (mw *MainWindow) savePrefs() {
	size := mw.Canvas().Size()
	mw.deps.Prefs.SetFloat(prefKeyWindowW, float64(size.Width))
	mw.deps.Prefs.SetFloat(prefKeyWindowH, float64(size.Height))
	mw.deps.Prefs.SetFloat(prefKeySplitOffset, mw.split.Offset)
	if err := mw.deps.Prefs.Save(); err != nil {
		log.Printf("window: save preferences: %v", err)
	}
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Simulation from Image...", mw.onNewSimulation),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Creation...", mw.onImportCreation),
		fyne.NewMenuItem("Export Creation...", mw.onExportCreation),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			mw.savePrefs()
			mw.app.Quit()
		}),
	)

	mw.playItem = fyne.NewMenuItem("Pause Simulation", mw.onTogglePlayback)
	simMenu := fyne.NewMenu("Simulation",
		mw.playItem,
		fyne.NewMenuItem("Reset Probe", mw.onResetProbe),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, simMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	state := mw.deps.State

	state.On(app.EventCreationChanged, func(interface{}) {
		cr := state.Creation()
		if cr == nil {
			return
		}
		mw.SetTitle("Sketch Simulator - " + cr.Name)
		mw.viewer.SetImage(state.Asset())
		mw.deps.Probe.Reset(probe.DefaultPosition(mw.ContainerRect().Width))
		mw.probeW.SyncPosition()
		mw.histPanel.Reload()
		if err := mw.deps.Sandbox.Load(cr.RenderableHTML()); err != nil {
			log.Printf("window: sandbox load: %v", err)
		}
		mw.updateStatus("Simulation ready - drop the probe on anything")
	})

	state.On(app.EventDocumentReplaced, func(interface{}) {
		cr := state.Creation()
		if cr == nil {
			return
		}
		if err := mw.deps.Sandbox.Load(cr.RenderableHTML()); err != nil {
			log.Printf("window: sandbox reload: %v", err)
		}
		if err := mw.deps.History.UpdateHTML(context.Background(), cr.ID, cr.HTML); err != nil {
			log.Printf("window: history update: %v", err)
		}
	})

	state.On(app.EventScanBusyChanged, func(data interface{}) {
		busy, _ := data.(bool)
		mw.deps.Probe.SetScanning(busy)
		mw.probeW.SyncPosition()
		mw.setBusy(busy || state.PatchBusy())
		if busy {
			mw.updateStatus("Scanning...")
		} else {
			mw.updateStatus("Ready")
		}
	})

	state.On(app.EventPatchBusyChanged, func(data interface{}) {
		busy, _ := data.(bool)
		mw.setBusy(busy || state.ScanBusy())
		if busy {
			mw.updateStatus("Applying modification...")
		}
	})

	state.On(app.EventNavigationTarget, func(interface{}) {
		mw.probeW.SyncPosition()
	})

	state.On(app.EventPlaybackToggled, func(data interface{}) {
		playing, _ := data.(bool)
		mw.deps.Sandbox.SetPlaying(playing)
		if playing {
			mw.playItem.Label = "Pause Simulation"
		} else {
			mw.playItem.Label = "Resume Simulation"
		}
	})
}

// wireProbe connects controller events to the magnifier and scan pipeline.
func (mw *MainWindow) wireProbe() {
	ctrl := mw.deps.Probe

	ctrl.OnMove(func(tip geometry.Point2D) {
		mw.magnifier.Track(tip)
		mw.magnifier.Move(magnifierPos(tip))
		mw.probeW.SyncPosition()
	})

	ctrl.OnRelease(func(tip geometry.Point2D) {
		mw.magnifier.Deactivate()
		target := mapper.ToImageSpace(tip, mw.ContainerRect(), mw.deps.State.AssetSize())
		go mw.deps.Scans.Run(context.Background(), target)
	})
}

// magnifierPos keeps the magnifier near but not under the tip.
func magnifierPos(tip geometry.Point2D) fyne.Position {
	x := float32(tip.X) + 24
	y := float32(tip.Y) - viewer.MagnifierSize - 24
	if y < 0 {
		y = float32(tip.Y) + 24
	}
	return fyne.NewPos(x, y)
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) setBusy(busy bool) {
	if busy {
		mw.busyBar.Show()
	} else {
		mw.busyBar.Hide()
	}
}

func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.deps.Prefs.String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.deps.Prefs.SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// Menu action handlers

func (mw *MainWindow) onNewSimulation() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		go mw.generateFromImage(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".tiff", ".tif"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) generateFromImage(path string) {
	state := mw.deps.State
	state.Emit(app.EventGenerating, true)
	defer state.Emit(app.EventGenerating, false)
	mw.setBusy(true)
	defer mw.setBusy(false)
	mw.updateStatus("Generating simulation...")

	data, err := os.ReadFile(path)
	if err != nil {
		mw.reportError(fmt.Errorf("read image: %w", err))
		return
	}
	mime := mimeForExt(filepath.Ext(path))

	html, err := mw.deps.Service.GenerateSimulation(context.Background(),
		"Turn this drawing into an interactive HTML simulation.", data, mime)
	if err != nil {
		mw.reportError(fmt.Errorf("generate simulation: %w", err))
		return
	}
	doc := remote.ExtractHTML(html)
	if doc == "" {
		mw.reportError(fmt.Errorf("the generator returned no document"))
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	uri := creation.DataURI(data, mime)
	cr := creation.New(name, creation.StripImagePayload(doc, uri), uri)

	if err := mw.deps.History.Insert(context.Background(), cr); err != nil {
		log.Printf("window: history insert: %v", err)
	}
	if err := state.SetCreation(cr); err != nil {
		mw.reportError(fmt.Errorf("activate creation: %w", err))
		return
	}
	state.SetPlaying(true)
}

func (mw *MainWindow) openCreation(cr *creation.Creation) {
	if err := mw.deps.State.SetCreation(cr); err != nil {
		mw.reportError(fmt.Errorf("activate creation: %w", err))
		return
	}
	mw.deps.State.SetPlaying(true)
}

func (mw *MainWindow) onImportCreation() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		data, err := os.ReadFile(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		cr, err := mw.deps.History.Import(context.Background(), data)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.histPanel.Reload()
		mw.openCreation(cr)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportCreation() {
	cr := mw.deps.State.Creation()
	if cr == nil {
		mw.updateStatus("Nothing to export yet")
		return
	}
	mw.exportCreation(cr)
}

func (mw *MainWindow) exportCreation(cr *creation.Creation) {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		data, err := history.Export(cr)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if _, err := writer.Write(data); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(cr.Name + ".json")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onTogglePlayback() {
	mw.deps.State.SetPlaying(!mw.deps.State.Playing())
}

func (mw *MainWindow) onResetProbe() {
	mw.deps.Probe.Reset(probe.DefaultPosition(mw.ContainerRect().Width))
	mw.probeW.SyncPosition()
}

func (mw *MainWindow) reportError(err error) {
	log.Printf("window: %v", err)
	mw.deps.State.AppendSystem(err.Error())
	mw.updateStatus("Something went wrong - see the chat log")
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Sketch Simulator",
		fmt.Sprintf("Sketch Simulator v%s\n\n"+
			"Turns a drawing or photo into an interactive simulation\n"+
			"you can probe, question, and modify.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}
