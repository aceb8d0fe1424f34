// Package probewidget renders the draggable smart probe and feeds its
// pointer events into the interaction controller.
package probewidget

import (
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"sketch-sim/internal/probe"
	"sketch-sim/pkg/geometry"
)

var (
	bodyColor     = color.NRGBA{R: 0x26, G: 0x32, B: 0x38, A: 0xE6}
	bodyScanColor = color.NRGBA{R: 0x15, G: 0x65, B: 0xC0, A: 0xE6}
	stemColor     = color.NRGBA{R: 0x90, G: 0xA4, B: 0xAE, A: 0xFF}
	ringColor     = color.NRGBA{R: 0xFF, G: 0x8F, B: 0x00, A: 0xFF}
)

// Probe is the floating probe widget. It lives in a layout-free overlay and
// moves itself to follow the controller's position.
type Probe struct {
	widget.BaseWidget

	ctrl *probe.Controller

	body *fynecanvas.Rectangle
	stem *fynecanvas.Rectangle
	ring *fynecanvas.Circle

	dragging bool
}

// New creates the probe widget for the given controller.
func New(ctrl *probe.Controller) *Probe {
	p := &Probe{ctrl: ctrl}

	p.body = fynecanvas.NewRectangle(bodyColor)
	p.body.CornerRadius = 8
	p.stem = fynecanvas.NewRectangle(stemColor)
	p.ring = fynecanvas.NewCircle(color.Transparent)
	p.ring.StrokeColor = ringColor
	p.ring.StrokeWidth = 2

	p.ExtendBaseWidget(p)
	return p
}

// SyncPosition moves the widget to the controller's current position and
// refreshes the scanning look. Call after any controller-driven change.
func (p *Probe) SyncPosition() {
	pos := p.ctrl.Position()
	p.Move(fyne.NewPos(float32(pos.X), float32(pos.Y)))
	if p.ctrl.Scanning() {
		p.body.FillColor = bodyScanColor
	} else {
		p.body.FillColor = bodyColor
	}
	p.Refresh()
}

// Dragged feeds pointer movement into the controller. The first event of a
// gesture is the pointer-down.
func (p *Probe) Dragged(ev *fyne.DragEvent) {
	// Overlay-space pointer position: widget origin plus event offset.
	pointer := geometry.Point2D{
		X: float64(p.Position().X + ev.Position.X),
		Y: float64(p.Position().Y + ev.Position.Y),
	}
	if !p.dragging {
		p.dragging = true
		p.ctrl.PointerDown(pointer)
	}
	p.ctrl.PointerMove(pointer)
	p.SyncPosition()
}

// DragEnd releases the probe, which triggers the scan.
func (p *Probe) DragEnd() {
	p.dragging = false
	p.ctrl.PointerUp()
	p.SyncPosition()
}

// MinSize covers the body, stem, and target ring.
func (p *Probe) MinSize() fyne.Size {
	return fyne.NewSize(
		float32(probe.BodyWidth),
		float32(probe.BodyHeight+probe.StemHeight+probe.TargetHeight),
	)
}

// CreateRenderer implements fyne.Widget.
func (p *Probe) CreateRenderer() fyne.WidgetRenderer {
	return &probeRenderer{p: p}
}

type probeRenderer struct {
	p *Probe
}

func (r *probeRenderer) Layout(size fyne.Size) {
	r.p.body.Resize(fyne.NewSize(float32(probe.BodyWidth), float32(probe.BodyHeight)))
	r.p.body.Move(fyne.NewPos(0, 0))

	stemW := float32(4)
	r.p.stem.Resize(fyne.NewSize(stemW, float32(probe.StemHeight)))
	r.p.stem.Move(fyne.NewPos(float32(probe.BodyWidth)/2-stemW/2, float32(probe.BodyHeight)))

	ringD := float32(probe.TargetHeight)
	r.p.ring.Resize(fyne.NewSize(ringD, ringD))
	r.p.ring.Move(fyne.NewPos(
		float32(probe.BodyWidth)/2-ringD/2,
		float32(probe.BodyHeight+probe.StemHeight),
	))
}

func (r *probeRenderer) MinSize() fyne.Size {
	return r.p.MinSize()
}

func (r *probeRenderer) Refresh() {
	r.p.body.Refresh()
	r.p.stem.Refresh()
	r.p.ring.Refresh()
}

func (r *probeRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.p.body, r.p.stem, r.p.ring}
}

func (r *probeRenderer) Destroy() {}
