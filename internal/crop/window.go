// Package crop extracts a bounded excerpt of the source asset around a
// probe target, with an aiming marker burned in, for remote analysis.
package crop

import (
	"math"

	"sketch-sim/internal/mapper"
	"sketch-sim/pkg/geometry"
)

const (
	// WindowFraction is the share of each asset dimension covered by the
	// crop window.
	WindowFraction = 0.2

	// MaxCropSize caps the crop window per side so payload size stays
	// bounded regardless of source resolution.
	MaxCropSize = 512
)

// Window computes the source rectangle to crop for the given target. The
// window is WindowFraction of the asset's own dimensions, capped at
// MaxCropSize per side, centered on the target point and clamped so it stays
// fully inside the asset. Returns false when the target is invalid or the
// asset has no area.
func Window(asset geometry.Size, t mapper.Target) (geometry.RectInt, bool) {
	center, ok := mapper.ToPixel(t, asset)
	if !ok {
		return geometry.RectInt{}, false
	}

	w := int(math.Round(asset.Width * WindowFraction))
	h := int(math.Round(asset.Height * WindowFraction))
	if w > MaxCropSize {
		w = MaxCropSize
	}
	if h > MaxCropSize {
		h = MaxCropSize
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > int(asset.Width) {
		w = int(asset.Width)
	}
	if h > int(asset.Height) {
		h = int(asset.Height)
	}

	x := geometry.ClampInt(center.X-w/2, 0, int(asset.Width)-w)
	y := geometry.ClampInt(center.Y-h/2, 0, int(asset.Height)-h)

	return geometry.RectInt{X: x, Y: y, Width: w, Height: h}, true
}
