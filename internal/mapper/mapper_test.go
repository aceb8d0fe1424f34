package mapper_test

import (
	"math"
	"testing"

	"sketch-sim/internal/mapper"
	"sketch-sim/pkg/geometry"
)

func TestDisplayedRectHeightConstrainedInWideContainer(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)
	asset := geometry.NewSize(100, 100)

	disp, ok := mapper.DisplayedRect(container, asset)
	if !ok {
		t.Fatalf("expected displayed rect, got none")
	}
	if disp.Height != container.Height {
		t.Fatalf("expected height to fill container (100), got %v", disp.Height)
	}
	if disp.Width > container.Width {
		t.Fatalf("displayed width %v exceeds container width %v", disp.Width, container.Width)
	}
	if disp.X != 50 {
		t.Fatalf("expected centering offset x=50, got %v", disp.X)
	}
}

func TestDisplayedRectWidthConstrainedInTallContainer(t *testing.T) {
	container := geometry.NewRect(0, 0, 100, 200)
	asset := geometry.NewSize(100, 100)

	disp, ok := mapper.DisplayedRect(container, asset)
	if !ok {
		t.Fatalf("expected displayed rect, got none")
	}
	if disp.Width != container.Width {
		t.Fatalf("expected width to fill container (100), got %v", disp.Width)
	}
	if disp.Height > container.Height {
		t.Fatalf("displayed height %v exceeds container height %v", disp.Height, container.Height)
	}
	if disp.Y != 50 {
		t.Fatalf("expected centering offset y=50, got %v", disp.Y)
	}
}

func TestToImageSpaceCenterOfLetterboxedImage(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)
	asset := geometry.NewSize(100, 100)

	got := mapper.ToImageSpace(geometry.NewPoint2D(100, 50), container, asset)
	if !got.Valid {
		t.Fatalf("expected valid target, got %+v", got)
	}
	if got.XPct != 50 || got.YPct != 50 {
		t.Fatalf("expected (50,50), got (%d,%d)", got.XPct, got.YPct)
	}
}

func TestToImageSpaceLetterboxBarIsInvalid(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)
	asset := geometry.NewSize(100, 100)

	got := mapper.ToImageSpace(geometry.NewPoint2D(10, 50), container, asset)
	if got.Valid {
		t.Fatalf("expected invalid target for letterbox click, got %+v", got)
	}
}

func TestToImageSpaceFallsBackWithoutAssetDims(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)

	got := mapper.ToImageSpace(geometry.NewPoint2D(50, 25), container, geometry.Size{})
	if !got.Valid {
		t.Fatalf("expected valid container-relative fallback, got %+v", got)
	}
	if got.XPct != 25 || got.YPct != 25 {
		t.Fatalf("expected (25,25), got (%d,%d)", got.XPct, got.YPct)
	}
}

func TestToImageSpaceFallbackClampsOutOfRange(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)

	got := mapper.ToImageSpace(geometry.NewPoint2D(500, -40), container, geometry.Size{})
	if !got.Valid {
		t.Fatalf("expected valid target, got %+v", got)
	}
	if got.XPct != 100 || got.YPct != 0 {
		t.Fatalf("expected clamped (100,0), got (%d,%d)", got.XPct, got.YPct)
	}
}

func TestToImageSpaceZeroGeometryDoesNotDivide(t *testing.T) {
	cases := []struct {
		name      string
		container geometry.Rect
		asset     geometry.Size
	}{
		{"zero container", geometry.Rect{}, geometry.NewSize(100, 100)},
		{"zero asset width", geometry.NewRect(0, 0, 200, 100), geometry.NewSize(0, 100)},
		{"zero asset height", geometry.NewRect(0, 0, 200, 100), geometry.NewSize(100, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapper.ToImageSpace(geometry.NewPoint2D(10, 10), tc.container, tc.asset)
			if tc.container.Empty() && got.Valid {
				t.Fatalf("expected invalid target for zero container, got %+v", got)
			}
		})
	}
}

func TestRoundTripRecoversPointWithinRoundingError(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)
	asset := geometry.NewSize(100, 100)

	// Displayed rect is 100x100 at offset (50,0), so one percentage point
	// equals one pixel and rounding error stays inside +/-1px.
	points := []geometry.Point2D{
		{X: 51, Y: 1},
		{X: 100, Y: 50},
		{X: 132, Y: 77},
		{X: 149, Y: 99},
	}
	for _, p := range points {
		target := mapper.ToImageSpace(p, container, asset)
		if !target.Valid {
			t.Fatalf("point %+v unexpectedly invalid", p)
		}
		back, ok := mapper.ToScreenSpace(target, container, asset)
		if !ok {
			t.Fatalf("inverse mapping failed for %+v", target)
		}
		if math.Abs(back.X-p.X) > 1 || math.Abs(back.Y-p.Y) > 1 {
			t.Fatalf("round trip of %+v drifted to %+v", p, back)
		}
	}
}

func TestToScreenSpaceRejectsInvalidTarget(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)
	asset := geometry.NewSize(100, 100)

	if _, ok := mapper.ToScreenSpace(mapper.Target{}, container, asset); ok {
		t.Fatalf("expected failure for invalid target")
	}
	if _, ok := mapper.ToScreenSpace(mapper.NewTarget(50, 50), geometry.Rect{}, asset); ok {
		t.Fatalf("expected failure for empty container")
	}
}

func TestToScreenSpaceCentersTarget(t *testing.T) {
	container := geometry.NewRect(0, 0, 200, 100)
	asset := geometry.NewSize(100, 100)

	p, ok := mapper.ToScreenSpace(mapper.NewTarget(50, 50), container, asset)
	if !ok {
		t.Fatalf("expected mapping to succeed")
	}
	if p.X != 100 || p.Y != 50 {
		t.Fatalf("expected (100,50), got %+v", p)
	}
}

func TestToPixel(t *testing.T) {
	asset := geometry.NewSize(800, 600)

	px, ok := mapper.ToPixel(mapper.NewTarget(50, 50), asset)
	if !ok {
		t.Fatalf("expected pixel mapping to succeed")
	}
	if px.X != 400 || px.Y != 300 {
		t.Fatalf("expected (400,300), got %+v", px)
	}

	if _, ok := mapper.ToPixel(mapper.Target{}, asset); ok {
		t.Fatalf("expected failure for invalid target")
	}
}
