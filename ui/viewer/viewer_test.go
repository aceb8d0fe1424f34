package viewer

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"sketch-sim/pkg/geometry"
)

func whiteImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
		img.Pix[i+1] = 0xFF
		img.Pix[i+2] = 0xFF
		img.Pix[i+3] = 0xFF
	}
	return img
}

func TestDrawCentersAssetWithLetterbox(t *testing.T) {
	test.NewApp()

	v := NewImageViewer()
	v.SetImage(whiteImage(100, 100))

	// Square asset in a wide container: height constrains, 50px bars on
	// each side.
	out := v.draw(200, 100).(*image.RGBA)

	bar := out.RGBAAt(10, 50)
	if bar != (color.RGBA{R: 0x12, G: 0x12, B: 0x16, A: 0xFF}) {
		t.Fatalf("letterbox bar pixel = %v, want background", bar)
	}
	center := out.RGBAAt(100, 50)
	if center.R < 0xF0 || center.G < 0xF0 || center.B < 0xF0 {
		t.Fatalf("displayed image pixel = %v, want white", center)
	}
}

func TestDrawWithoutAssetPaintsBackgroundOnly(t *testing.T) {
	test.NewApp()

	v := NewImageViewer()
	out := v.draw(80, 40).(*image.RGBA)
	if got := out.RGBAAt(40, 20); got != (color.RGBA{R: 0x12, G: 0x12, B: 0x16, A: 0xFF}) {
		t.Fatalf("pixel = %v, want background", got)
	}
}

func TestTrackCentersMagnifierOnAssetPixel(t *testing.T) {
	test.NewApp()

	v := NewImageViewer()
	v.SetImage(whiteImage(100, 100))
	v.Resize(fyne.NewSize(200, 100))
	m := NewMagnifier(v)

	m.Track(geometry.NewPoint2D(100, 50))
	if !m.active {
		t.Fatal("expected magnifier active inside the displayed rect")
	}
	if m.center != (geometry.PointInt{X: 50, Y: 50}) {
		t.Fatalf("center = %+v, want (50, 50)", m.center)
	}
	if !m.Visible() {
		t.Fatal("expected magnifier shown")
	}
}

func TestTrackHidesMagnifierInLetterbox(t *testing.T) {
	test.NewApp()

	v := NewImageViewer()
	v.SetImage(whiteImage(100, 100))
	v.Resize(fyne.NewSize(200, 100))
	m := NewMagnifier(v)

	m.Track(geometry.NewPoint2D(10, 50))
	if m.active {
		t.Fatal("expected magnifier inactive over the letterbox bar")
	}
	if m.Visible() {
		t.Fatal("expected magnifier hidden")
	}
}
