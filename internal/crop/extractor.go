package crop

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"sketch-sim/internal/mapper"
	"sketch-sim/pkg/geometry"
)

const (
	// Marker geometry in output pixels, independent of crop scale.
	markerArm       = 18
	markerGap       = 5
	markerThickness = 2

	jpegQuality = 82
)

// Extract produces the JPEG crop payload for the given target: the window
// region of the source image with a crosshair marker drawn centered in the
// output. The marker color is chosen against the crop's mean luminance so it
// stays visible on both dark and light content.
//
// A nil image or invalid target yields an error; callers treat absence of a
// crop as "proceed without one".
func Extract(img image.Image, t mapper.Target) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no source image")
	}

	bounds := img.Bounds()
	asset := geometry.NewSize(float64(bounds.Dx()), float64(bounds.Dy()))
	win, ok := Window(asset, t)
	if !ok {
		return nil, fmt.Errorf("no crop window for target %+v", t)
	}

	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	region := mat.Region(image.Rect(win.X, win.Y, win.X+win.Width, win.Y+win.Height))
	defer region.Close()

	// Scale down to the cap if the region exceeds it; never scale up.
	out := gocv.NewMat()
	defer out.Close()
	outW, outH := win.Width, win.Height
	if outW > MaxCropSize || outH > MaxCropSize {
		scale := float64(MaxCropSize) / float64(maxInt(outW, outH))
		outW = int(float64(outW) * scale)
		outH = int(float64(outH) * scale)
		gocv.Resize(region, &out, image.Pt(outW, outH), 0, 0, gocv.InterpolationArea)
	} else {
		region.CopyTo(&out)
	}

	drawMarker(&out, outW, outH, markerColor(img, win))

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(out, &bgr, gocv.ColorRGBAToBGR)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	defer buf.Close()

	// Copy out of the native buffer before it is released.
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}

// drawMarker draws a crosshair with a small open center at a fixed size,
// centered in the output.
func drawMarker(mat *gocv.Mat, w, h int, c color.RGBA) {
	cx, cy := w/2, h/2

	gocv.Line(mat, image.Pt(cx-markerArm, cy), image.Pt(cx-markerGap, cy), c, markerThickness)
	gocv.Line(mat, image.Pt(cx+markerGap, cy), image.Pt(cx+markerArm, cy), c, markerThickness)
	gocv.Line(mat, image.Pt(cx, cy-markerArm), image.Pt(cx, cy-markerGap), c, markerThickness)
	gocv.Line(mat, image.Pt(cx, cy+markerGap), image.Pt(cx, cy+markerArm), c, markerThickness)
	gocv.Circle(mat, image.Pt(cx, cy), markerGap+2, c, markerThickness)
}

// markerColor samples the crop region's luminance and picks a dark or
// bright marker accordingly.
func markerColor(img image.Image, win geometry.RectInt) color.RGBA {
	lum := sampleLuminance(img, win)
	if len(lum) == 0 {
		return color.RGBA{R: 255, G: 64, B: 64, A: 255}
	}
	if stat.Mean(lum, nil) > 128 {
		// Bright content: dark marker.
		return color.RGBA{R: 170, G: 0, B: 0, A: 255}
	}
	return color.RGBA{R: 255, G: 80, B: 80, A: 255}
}

// sampleLuminance collects Rec.601 luminance on a sparse grid over the window.
func sampleLuminance(img image.Image, win geometry.RectInt) []float64 {
	const grid = 16
	stepX := win.Width / grid
	stepY := win.Height / grid
	if stepX < 1 {
		stepX = 1
	}
	if stepY < 1 {
		stepY = 1
	}

	min := img.Bounds().Min
	var lum []float64
	for y := win.Y; y < win.Y+win.Height; y += stepY {
		for x := win.X; x < win.X+win.Width; x += stepX {
			r, g, b, _ := img.At(min.X+x, min.Y+y).RGBA()
			lum = append(lum, 0.299*float64(r>>8)+0.587*float64(g>>8)+0.114*float64(b>>8))
		}
	}
	return lum
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
