package probe_test

import (
	"testing"
	"time"

	"sketch-sim/internal/probe"
	"sketch-sim/pkg/geometry"
)

// fakeClock collects timer callbacks for manual firing.
type fakeClock struct {
	pending []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) probe.Timer {
	t := &fakeTimer{f: f}
	c.pending = append(c.pending, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fire runs all unfired timers, mimicking the transit interval elapsing.
func (c *fakeClock) fire() {
	for _, t := range c.pending {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

func newTestController() (*probe.Controller, *fakeClock) {
	clock := &fakeClock{}
	c := probe.NewControllerWithClock(geometry.NewPoint2D(10, 10), clock, time.Second)
	return c, clock
}

func TestDragEmitsMovesAndSingleRelease(t *testing.T) {
	c, _ := newTestController()

	var moves []geometry.Point2D
	var releases []geometry.Point2D
	c.OnMove(func(tip geometry.Point2D) { moves = append(moves, tip) })
	c.OnRelease(func(tip geometry.Point2D) { releases = append(releases, tip) })

	// Grab the body 5px inside the probe so it must not jump.
	c.PointerDown(geometry.NewPoint2D(15, 15))
	if c.State() != probe.StateDragging {
		t.Fatalf("expected dragging, got %v", c.State())
	}

	c.PointerMove(geometry.NewPoint2D(115, 65))
	if got := c.Position(); got.X != 110 || got.Y != 60 {
		t.Fatalf("expected position (110,60), got %+v", got)
	}

	c.PointerUp()
	c.PointerUp() // A second up must not re-release.

	if c.State() != probe.StateIdle {
		t.Fatalf("expected idle after release, got %v", c.State())
	}
	if len(moves) != 1 {
		t.Fatalf("expected 1 move, got %d", len(moves))
	}
	if len(releases) != 1 {
		t.Fatalf("expected exactly 1 release, got %d", len(releases))
	}

	wantTip := c.Position().Add(probe.TipOffset())
	if releases[0] != wantTip {
		t.Fatalf("release tip %+v does not match position+offset %+v", releases[0], wantTip)
	}
}

func TestMoveIgnoredOutsideDrag(t *testing.T) {
	c, _ := newTestController()

	var moves int
	c.OnMove(func(geometry.Point2D) { moves++ })

	c.PointerMove(geometry.NewPoint2D(100, 100))
	if moves != 0 {
		t.Fatalf("expected no move events outside a drag, got %d", moves)
	}
	if got := c.Position(); got.X != 10 || got.Y != 10 {
		t.Fatalf("position changed outside drag: %+v", got)
	}
}

func TestNavigateToPlacesTipAndReleasesAfterTransit(t *testing.T) {
	c, clock := newTestController()

	var moves, releases []geometry.Point2D
	c.OnMove(func(tip geometry.Point2D) { moves = append(moves, tip) })
	c.OnRelease(func(tip geometry.Point2D) { releases = append(releases, tip) })

	target := geometry.NewPoint2D(200, 150)
	c.NavigateTo(target)

	if c.State() != probe.StateAutoNavigating {
		t.Fatalf("expected auto-navigating, got %v", c.State())
	}
	if tip := c.Tip(); tip != target {
		t.Fatalf("tip %+v not at target %+v before transit completes", tip, target)
	}
	if len(releases) != 0 {
		t.Fatalf("release fired before transit elapsed")
	}

	clock.fire()

	if c.State() != probe.StateIdle {
		t.Fatalf("expected idle after transit, got %v", c.State())
	}
	if len(moves) != 1 || moves[0] != target {
		t.Fatalf("expected final move at %+v, got %+v", target, moves)
	}
	if len(releases) != 1 || releases[0] != target {
		t.Fatalf("expected release at %+v, got %+v", target, releases)
	}
}

func TestManualGrabCancelsPendingNavigation(t *testing.T) {
	c, clock := newTestController()

	var releases []geometry.Point2D
	c.OnRelease(func(tip geometry.Point2D) { releases = append(releases, tip) })

	c.NavigateTo(geometry.NewPoint2D(200, 150))
	c.PointerDown(geometry.NewPoint2D(180, 100))

	// The stale transit timer firing must not release at the old target.
	clock.fire()
	if len(releases) != 0 {
		t.Fatalf("cancelled navigation still released: %+v", releases)
	}
	if c.State() != probe.StateDragging {
		t.Fatalf("expected dragging after grab, got %v", c.State())
	}

	c.PointerUp()
	if len(releases) != 1 {
		t.Fatalf("expected one release from the manual drag, got %d", len(releases))
	}
}

func TestNavigateToSupersedesPendingNavigation(t *testing.T) {
	c, clock := newTestController()

	var releases []geometry.Point2D
	c.OnRelease(func(tip geometry.Point2D) { releases = append(releases, tip) })

	first := geometry.NewPoint2D(100, 100)
	second := geometry.NewPoint2D(300, 200)
	c.NavigateTo(first)
	c.NavigateTo(second)

	clock.fire()

	if len(releases) != 1 {
		t.Fatalf("expected exactly one release, got %d", len(releases))
	}
	if releases[0] != second {
		t.Fatalf("expected release at the superseding target %+v, got %+v", second, releases[0])
	}
}

func TestResetDropsInteraction(t *testing.T) {
	c, clock := newTestController()

	var releases int
	c.OnRelease(func(geometry.Point2D) { releases++ })

	c.NavigateTo(geometry.NewPoint2D(200, 150))
	home := probe.DefaultPosition(800)
	c.Reset(home)

	clock.fire()
	if releases != 0 {
		t.Fatalf("reset navigation still released")
	}
	if c.State() != probe.StateIdle {
		t.Fatalf("expected idle after reset, got %v", c.State())
	}
	if got := c.Position(); got != home {
		t.Fatalf("expected default position %+v, got %+v", home, got)
	}
}

func TestScanningFlagIsNotAState(t *testing.T) {
	c, _ := newTestController()

	c.SetScanning(true)
	if c.State() != probe.StateIdle {
		t.Fatalf("scanning flag changed controller state: %v", c.State())
	}
	if !c.Scanning() {
		t.Fatalf("expected scanning flag set")
	}
	c.SetScanning(false)
	if c.Scanning() {
		t.Fatalf("expected scanning flag cleared")
	}
}
