// Package panels provides UI panels for the application.
package panels

import (
	"bytes"
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"sketch-sim/internal/app"
)

// ChatPanel shows the message log: user commands, scan reports, and system
// notices, newest at the bottom.
type ChatPanel struct {
	state *app.State

	list   *fyne.Container
	scroll *container.Scroll
}

// NewChatPanel creates the chat panel and subscribes it to message events.
func NewChatPanel(state *app.State) *ChatPanel {
	cp := &ChatPanel{state: state}
	cp.list = container.NewVBox()
	cp.scroll = container.NewVScroll(cp.list)

	state.On(app.EventMessageAppended, func(data interface{}) {
		if m, ok := data.(app.Message); ok {
			cp.appendMessage(m)
		}
	})
	return cp
}

// Container returns the panel container.
func (cp *ChatPanel) Container() fyne.CanvasObject {
	return cp.scroll
}

func (cp *ChatPanel) appendMessage(m app.Message) {
	header := "Simulator"
	if m.Role == app.RoleUser {
		header = "You"
	}
	title := widget.NewLabelWithStyle(header, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	body := widget.NewLabel(m.Text)
	body.Wrapping = fyne.TextWrapWord

	items := []fyne.CanvasObject{title, body}
	if thumb := decodeThumbnail(m.Thumbnail); thumb != nil {
		img := fynecanvas.NewImageFromImage(thumb)
		img.FillMode = fynecanvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(96, 96))
		items = append(items, img)
	}
	items = append(items, widget.NewSeparator())

	cp.list.Add(container.NewVBox(items...))
	cp.list.Refresh()
	cp.scroll.ScrollToBottom()
}

func decodeThumbnail(data []byte) image.Image {
	if len(data) == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return img
}
