// Command locatetest runs object location on an image against the live
// inference service and prints the result.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"sketch-sim/internal/config"
	"sketch-sim/internal/mapper"
	"sketch-sim/internal/remote"
	"sketch-sim/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to source image (PNG or JPEG)")
	query := flag.String("query", "", "Description of the object to find")
	configPath := flag.String("config", "", "Path to config.yaml")
	containerW := flag.Float64("width", 0, "Container width for screen-point mapping (optional)")
	containerH := flag.Float64("height", 0, "Container height for screen-point mapping (optional)")
	flag.Parse()

	if *imagePath == "" || *query == "" {
		fmt.Println("Usage: locatetest -image <path> -query \"the red wire\" [-config config.yaml]")
		os.Exit(1)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Remote.APIKey == "" {
		fmt.Fprintln(os.Stderr, "No API key configured (set SKETCHSIM_API_KEY)")
		os.Exit(1)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s (%d bytes)\n", filepath.Base(*imagePath), len(data))
	fmt.Printf("Query: %q\n", *query)

	svc := remote.NewClient(cfg.Remote.Endpoint, cfg.Remote.APIKey, cfg.Remote.Model, cfg.Remote.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
	defer cancel()

	result, err := svc.LocateObject(ctx, *query, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Locate failed: %v\n", err)
		os.Exit(1)
	}

	if !result.Found {
		fmt.Println("Not found")
		return
	}
	label := strings.TrimSpace(result.Label)
	if label == "" {
		label = *query
	}
	fmt.Printf("Found %q at (%d%%, %d%%)\n", label, result.X, result.Y)

	if *containerW <= 0 || *containerH <= 0 {
		return
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode image for mapping: %v\n", err)
		os.Exit(1)
	}
	asset := geometry.NewSize(float64(img.Bounds().Dx()), float64(img.Bounds().Dy()))
	container := geometry.NewRect(0, 0, *containerW, *containerH)
	target := mapper.NewTarget(result.X, result.Y)
	if screen, ok := mapper.ToScreenSpace(target, container, asset); ok {
		fmt.Printf("Screen point in %gx%g container: (%.1f, %.1f)\n",
			*containerW, *containerH, screen.X, screen.Y)
	}
}
