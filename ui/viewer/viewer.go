// Package viewer displays the source image with contain-fit scaling and a
// live magnifier that follows the probe tip.
package viewer

import (
	"image"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"sketch-sim/internal/mapper"
	"sketch-sim/pkg/geometry"
)

// ImageViewer renders the source asset scaled to fit its widget area while
// preserving aspect ratio. The letterbox background stays dark so the
// displayed rect reads clearly.
type ImageViewer struct {
	widget.BaseWidget

	raster *fynecanvas.Raster

	img      image.Image
	natural  geometry.Size
	lastSize fyne.Size
}

// NewImageViewer creates an empty viewer. Call SetImage when an asset loads.
func NewImageViewer() *ImageViewer {
	v := &ImageViewer{}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)
	return v
}

// SetImage replaces the displayed asset. nil clears the view.
func (v *ImageViewer) SetImage(img image.Image) {
	v.img = img
	if img == nil {
		v.natural = geometry.Size{}
	} else {
		b := img.Bounds()
		v.natural = geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	}
	v.raster.Refresh()
}

// ContainerRect returns the widget's current on-screen bounds in its own
// coordinate space. Read fresh on every pointer event.
func (v *ImageViewer) ContainerRect() geometry.Rect {
	size := v.Size()
	return geometry.Rect{Width: float64(size.Width), Height: float64(size.Height)}
}

// NaturalSize returns the asset's natural pixel dimensions.
func (v *ImageViewer) NaturalSize() geometry.Size {
	return v.natural
}

func (v *ImageViewer) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0x12
		out.Pix[i+1] = 0x12
		out.Pix[i+2] = 0x16
		out.Pix[i+3] = 0xFF
	}
	if v.img == nil || w == 0 || h == 0 {
		return out
	}

	container := geometry.Rect{Width: float64(w), Height: float64(h)}
	disp, ok := mapper.DisplayedRect(container, v.natural)
	if !ok {
		return out
	}

	dst := image.Rect(int(disp.X), int(disp.Y), int(disp.X+disp.Width), int(disp.Y+disp.Height))
	xdraw.ApproxBiLinear.Scale(out, dst, v.img, v.img.Bounds(), xdraw.Over, nil)
	return out
}

// CreateRenderer implements fyne.Widget.
func (v *ImageViewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// Resize keeps the raster in step with the widget.
func (v *ImageViewer) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	if size != v.lastSize {
		v.lastSize = size
		v.raster.Refresh()
	}
}
