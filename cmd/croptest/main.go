// Command croptest extracts the scan crop for a point in an image and writes
// the JPEG payload that would be sent to the analyzer.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"sketch-sim/internal/crop"
	"sketch-sim/internal/mapper"
	"sketch-sim/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

func main() {
	imagePath := flag.String("image", "", "Path to source image (TIFF, PNG, or JPEG)")
	xPct := flag.Int("x", 50, "Target X as percent of image width (0-100)")
	yPct := flag.Int("y", 50, "Target Y as percent of image height (0-100)")
	outPath := flag.String("out", "crop.jpg", "Output path for the crop JPEG")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: croptest -image <path> [-x 50] [-y 50] [-out crop.jpg]")
		os.Exit(1)
	}

	f, err := os.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode image: %v\n", err)
		os.Exit(1)
	}

	bounds := img.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels\n", format, bounds.Dx(), bounds.Dy())

	target := mapper.NewTarget(*xPct, *yPct)
	if !target.Valid {
		fmt.Fprintf(os.Stderr, "Target (%d%%, %d%%) is outside the image\n", *xPct, *yPct)
		os.Exit(1)
	}
	fmt.Printf("Target: (%d%%, %d%%)\n", target.XPct, target.YPct)

	asset := geometry.NewSize(float64(bounds.Dx()), float64(bounds.Dy()))
	win, ok := crop.Window(asset, target)
	if !ok {
		fmt.Fprintf(os.Stderr, "No crop window for target\n")
		os.Exit(1)
	}
	fmt.Printf("Window: %dx%d at (%d, %d)\n", win.Width, win.Height, win.X, win.Y)
	if px, ok := mapper.ToPixel(target, asset); ok {
		fmt.Printf("Center pixel: (%d, %d)\n", px.X, px.Y)
	}

	data, err := crop.Extract(img, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write crop: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), *outPath)
}
