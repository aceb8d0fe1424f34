package crop_test

import (
	"testing"

	"sketch-sim/internal/crop"
	"sketch-sim/internal/mapper"
	"sketch-sim/pkg/geometry"
)

func TestWindowCenteredOnTarget(t *testing.T) {
	asset := geometry.NewSize(1000, 1000)

	win, ok := crop.Window(asset, mapper.NewTarget(50, 50))
	if !ok {
		t.Fatalf("expected window")
	}
	if win.Width != 200 || win.Height != 200 {
		t.Fatalf("expected 200x200 window (20%% of asset), got %dx%d", win.Width, win.Height)
	}
	if win.X != 400 || win.Y != 400 {
		t.Fatalf("expected window at (400,400), got (%d,%d)", win.X, win.Y)
	}
}

func TestWindowCappedForHugeAssets(t *testing.T) {
	asset := geometry.NewSize(10000, 10000)

	win, ok := crop.Window(asset, mapper.NewTarget(50, 50))
	if !ok {
		t.Fatalf("expected window")
	}
	if win.Width > crop.MaxCropSize || win.Height > crop.MaxCropSize {
		t.Fatalf("window %dx%d exceeds cap %d", win.Width, win.Height, crop.MaxCropSize)
	}
}

func TestWindowClampedAtCorners(t *testing.T) {
	asset := geometry.NewSize(1000, 800)

	for _, tc := range []struct{ xPct, yPct int }{
		{0, 0},
		{100, 100},
		{0, 100},
		{100, 0},
	} {
		win, ok := crop.Window(asset, mapper.NewTarget(tc.xPct, tc.yPct))
		if !ok {
			t.Fatalf("expected window at corner (%d,%d)", tc.xPct, tc.yPct)
		}
		if win.X < 0 || win.Y < 0 {
			t.Fatalf("window origin out of bounds at (%d,%d): %+v", tc.xPct, tc.yPct, win)
		}
		if win.X+win.Width > int(asset.Width) || win.Y+win.Height > int(asset.Height) {
			t.Fatalf("window exceeds asset at (%d,%d): %+v", tc.xPct, tc.yPct, win)
		}
	}
}

func TestWindowRejectsInvalidTarget(t *testing.T) {
	if _, ok := crop.Window(geometry.NewSize(1000, 1000), mapper.Target{}); ok {
		t.Fatalf("expected no window for invalid target")
	}
	if _, ok := crop.Window(geometry.Size{}, mapper.NewTarget(50, 50)); ok {
		t.Fatalf("expected no window for empty asset")
	}
}

func TestWindowNeverLargerThanAsset(t *testing.T) {
	asset := geometry.NewSize(64, 48)

	win, ok := crop.Window(asset, mapper.NewTarget(50, 50))
	if !ok {
		t.Fatalf("expected window")
	}
	if win.Width > 64 || win.Height > 48 {
		t.Fatalf("window %+v larger than asset", win)
	}
}
