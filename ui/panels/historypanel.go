package panels

import (
	"context"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"sketch-sim/internal/creation"
	"sketch-sim/internal/history"
)

// HistoryPanel lists saved creations and reopens them on selection.
type HistoryPanel struct {
	store *history.Store

	items []*creation.Creation
	list  *widget.List
	box   fyne.CanvasObject

	onSelect func(cr *creation.Creation)
	onExport func(cr *creation.Creation)
	onImport func()
}

// NewHistoryPanel creates the history panel over the given store.
func NewHistoryPanel(store *history.Store) *HistoryPanel {
	hp := &HistoryPanel{store: store}

	hp.list = widget.NewList(
		func() int { return len(hp.items) },
		func() fyne.CanvasObject {
			return widget.NewLabel("creation name")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(hp.items) {
				return
			}
			cr := hp.items[id]
			label := cr.Name
			if label == "" {
				label = "(untitled)"
			}
			obj.(*widget.Label).SetText(label)
		},
	)
	hp.list.OnSelected = func(id widget.ListItemID) {
		if hp.onSelect != nil && id >= 0 && id < len(hp.items) {
			hp.onSelect(hp.items[id])
		}
		hp.list.UnselectAll()
	}

	importBtn := widget.NewButton("Import...", func() {
		if hp.onImport != nil {
			hp.onImport()
		}
	})
	exportBtn := widget.NewButton("Export...", func() {
		if hp.onExport != nil && len(hp.items) > 0 {
			// Export acts on the most recent creation; per-item export goes
			// through selection in the host window.
			hp.onExport(hp.items[0])
		}
	})

	hp.box = container.NewBorder(nil, container.NewHBox(importBtn, exportBtn), nil, nil, hp.list)
	hp.Reload()
	return hp
}

// Container returns the panel container.
func (hp *HistoryPanel) Container() fyne.CanvasObject {
	return hp.box
}

// OnSelect sets the callback fired when a creation is chosen.
func (hp *HistoryPanel) OnSelect(f func(cr *creation.Creation)) {
	hp.onSelect = f
}

// OnExport sets the callback fired by the export button.
func (hp *HistoryPanel) OnExport(f func(cr *creation.Creation)) {
	hp.onExport = f
}

// OnImport sets the callback fired by the import button.
func (hp *HistoryPanel) OnImport(f func()) {
	hp.onImport = f
}

// Reload refetches the history list from the store.
func (hp *HistoryPanel) Reload() {
	if hp.store == nil {
		return
	}
	items, err := hp.store.List(context.Background())
	if err != nil {
		log.Printf("history panel: reload: %v", err)
		return
	}
	hp.items = items
	hp.list.Refresh()
}
