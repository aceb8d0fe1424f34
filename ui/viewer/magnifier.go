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

const (
	// MagnifierSize is the square edge of the magnifier view in screen units.
	MagnifierSize = 120
	// magnifierZoom is how much of the asset one magnifier edge covers, in
	// asset pixels, before blow-up.
	magnifierRegion = 48
)

// Magnifier shows a bilinear blow-up of the asset around the probe tip.
type Magnifier struct {
	widget.BaseWidget

	raster *fynecanvas.Raster
	viewer *ImageViewer

	active bool
	center geometry.PointInt
}

// NewMagnifier creates a magnifier bound to the given viewer's asset.
func NewMagnifier(v *ImageViewer) *Magnifier {
	m := &Magnifier{viewer: v}
	m.raster = fynecanvas.NewRaster(m.draw)
	m.ExtendBaseWidget(m)
	m.Hide()
	return m
}

// Track repositions the magnifier for a tip at the given screen point.
// Outside the displayed image area the magnifier hides.
func (m *Magnifier) Track(tip geometry.Point2D) {
	asset := m.viewer.NaturalSize()
	target := mapper.ToImageSpace(tip, m.viewer.ContainerRect(), asset)
	if !target.Valid || m.viewer.img == nil {
		m.active = false
		m.Hide()
		return
	}
	center, ok := mapper.ToPixel(target, asset)
	if !ok {
		m.active = false
		m.Hide()
		return
	}
	m.center = center
	m.active = true
	m.Show()
	m.raster.Refresh()
}

// Deactivate hides the magnifier, for drag end.
func (m *Magnifier) Deactivate() {
	m.active = false
	m.Hide()
}

func (m *Magnifier) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if !m.active || m.viewer.img == nil || w == 0 || h == 0 {
		return out
	}

	half := magnifierRegion / 2
	src := image.Rect(m.center.X-half, m.center.Y-half, m.center.X+half, m.center.Y+half)
	src = src.Intersect(m.viewer.img.Bounds())
	if src.Empty() {
		return out
	}

	xdraw.BiLinear.Scale(out, out.Bounds(), m.viewer.img, src, xdraw.Src, nil)
	return out
}

func (m *Magnifier) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(m.raster)
}

func (m *Magnifier) MinSize() fyne.Size {
	return fyne.NewSize(MagnifierSize, MagnifierSize)
}
