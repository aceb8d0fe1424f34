// Package mapper converts between screen coordinates and normalized
// image-space percentages under an aspect-preserving "contain" fit.
package mapper

import (
	"math"

	"sketch-sim/pkg/geometry"
)

// Target holds normalized image-space coordinates as integer percentages
// in [0,100] relative to the asset's own bounds. Valid is false when the
// originating screen point fell in the letterbox padding rather than the
// displayed image rectangle.
type Target struct {
	XPct  int  `json:"x_pct"`
	YPct  int  `json:"y_pct"`
	Valid bool `json:"valid"`
}

// NewTarget creates a valid Target with clamped percentages.
func NewTarget(xPct, yPct int) Target {
	return Target{
		XPct:  geometry.ClampInt(xPct, 0, 100),
		YPct:  geometry.ClampInt(yPct, 0, 100),
		Valid: true,
	}
}

// DisplayedRect returns the on-screen rectangle the asset occupies inside
// the container under a contain fit: scaled to the largest size that fits
// entirely while preserving aspect ratio, centered. Returns false when the
// container or asset has no area.
func DisplayedRect(container geometry.Rect, asset geometry.Size) (geometry.Rect, bool) {
	if container.Empty() || asset.Empty() {
		return geometry.Rect{}, false
	}

	containerRatio := container.Width / container.Height
	imageRatio := asset.Ratio()

	var dispW, dispH float64
	if containerRatio > imageRatio {
		// Container is wider than the image: height constrains.
		dispH = container.Height
		dispW = dispH * imageRatio
	} else {
		// Container is taller (or equal): width constrains.
		dispW = container.Width
		dispH = dispW / imageRatio
	}

	return geometry.Rect{
		X:      container.X + (container.Width-dispW)/2,
		Y:      container.Y + (container.Height-dispH)/2,
		Width:  dispW,
		Height: dispH,
	}, true
}

// ToImageSpace maps a screen point to image-space percentages.
//
// When the asset dimensions are unknown (zero size) the mapping degrades to
// container-relative percentages so interaction keeps working while an asset
// is still preloading. With known dimensions, points inside the letterbox
// padding yield an invalid Target; points inside the displayed rectangle map
// to integer-rounded percentages clamped to [0,100].
func ToImageSpace(screen geometry.Point2D, container geometry.Rect, asset geometry.Size) Target {
	if container.Empty() {
		return Target{}
	}

	if asset.Empty() {
		// Fallback: percentage against the container itself.
		xPct := int(math.Round((screen.X - container.X) / container.Width * 100))
		yPct := int(math.Round((screen.Y - container.Y) / container.Height * 100))
		return NewTarget(xPct, yPct)
	}

	disp, ok := DisplayedRect(container, asset)
	if !ok {
		return Target{}
	}

	if !disp.Contains(screen) {
		return Target{}
	}

	xPct := int(math.Round((screen.X - disp.X) / disp.Width * 100))
	yPct := int(math.Round((screen.Y - disp.Y) / disp.Height * 100))
	return NewTarget(xPct, yPct)
}

// ToScreenSpace maps image-space percentages back to a screen point inside
// the container. It is the inverse of ToImageSpace and returns false when
// the target is invalid or the geometry is unavailable.
func ToScreenSpace(t Target, container geometry.Rect, asset geometry.Size) (geometry.Point2D, bool) {
	if !t.Valid || container.Empty() {
		return geometry.Point2D{}, false
	}

	if asset.Empty() {
		return geometry.Point2D{
			X: container.X + float64(t.XPct)/100*container.Width,
			Y: container.Y + float64(t.YPct)/100*container.Height,
		}, true
	}

	disp, ok := DisplayedRect(container, asset)
	if !ok {
		return geometry.Point2D{}, false
	}

	return geometry.Point2D{
		X: disp.X + float64(t.XPct)/100*disp.Width,
		Y: disp.Y + float64(t.YPct)/100*disp.Height,
	}, true
}

// ToPixel converts a target to pixel coordinates within the asset.
func ToPixel(t Target, asset geometry.Size) (geometry.PointInt, bool) {
	if !t.Valid || asset.Empty() {
		return geometry.PointInt{}, false
	}
	return geometry.PointInt{
		X: int(math.Round(float64(t.XPct) / 100 * asset.Width)),
		Y: int(math.Round(float64(t.YPct) / 100 * asset.Height)),
	}, true
}
