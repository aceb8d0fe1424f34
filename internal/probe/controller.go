// Package probe implements the interaction state machine for the floating
// smart-probe control: manual dragging, programmatic auto-navigation, and
// the release event that triggers scans.
package probe

import (
	"sync"
	"time"

	"sketch-sim/pkg/geometry"
)

// Visual geometry of the probe in screen pixels. The tip offset derived from
// these must stay consistent between manual drag and programmatic placement.
const (
	BodyWidth    = 44.0
	BodyHeight   = 44.0
	StemHeight   = 18.0
	TargetHeight = 12.0
)

// TransitDuration is how long an auto-navigate transition plays before the
// probe lands and releases. Perceptible but not sluggish; tunable.
const TransitDuration = 900 * time.Millisecond

// TipOffset is the displacement from the probe's top-left position to its
// aiming point.
func TipOffset() geometry.Point2D {
	return geometry.Point2D{
		X: BodyWidth / 2,
		Y: BodyHeight + StemHeight + TargetHeight/2,
	}
}

// State identifies the controller's interaction state.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateAutoNavigating
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateAutoNavigating:
		return "auto-navigating"
	default:
		return "idle"
	}
}

// Clock abstracts timer creation so tests can drive transitions manually.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// dragSession holds the listener scope for one manual drag: acquired on
// pointer-down, released exactly once on any exit path.
type dragSession struct {
	grab     geometry.Point2D // pointer position minus probe position at start
	released bool
}

// Controller sequences probe interactions. Move fires on every position
// change and only refreshes previews; Release fires exactly once per drag or
// completed auto-navigation and is the sole scan trigger.
type Controller struct {
	mu sync.Mutex

	state    State
	position geometry.Point2D
	session  *dragSession
	scanning bool

	clock      Clock
	transit    Timer
	transitDur time.Duration
	navGen     int

	onMove    func(tip geometry.Point2D)
	onRelease func(tip geometry.Point2D)
}

// NewController creates a controller at the given initial position.
func NewController(initial geometry.Point2D) *Controller {
	return &Controller{
		position:   initial,
		clock:      realClock{},
		transitDur: TransitDuration,
	}
}

// NewControllerWithClock creates a controller with a custom clock and
// transit duration, for tests.
func NewControllerWithClock(initial geometry.Point2D, clock Clock, transit time.Duration) *Controller {
	return &Controller{
		position:   initial,
		clock:      clock,
		transitDur: transit,
	}
}

// OnMove sets the move listener (live magnifier refresh).
func (c *Controller) OnMove(f func(tip geometry.Point2D)) {
	c.mu.Lock()
	c.onMove = f
	c.mu.Unlock()
}

// OnRelease sets the release listener (scan trigger).
func (c *Controller) OnRelease(f func(tip geometry.Point2D)) {
	c.mu.Lock()
	c.onRelease = f
	c.mu.Unlock()
}

// State returns the current interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position returns the probe's top-left screen position.
func (c *Controller) Position() geometry.Point2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Tip returns the probe's current aiming point.
func (c *Controller) Tip() geometry.Point2D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position.Add(TipOffset())
}

// SetScanning flags an in-flight scan for visual distinction. Scanning is
// owned by the scan coordinator, not a controller state.
func (c *Controller) SetScanning(on bool) {
	c.mu.Lock()
	c.scanning = on
	c.mu.Unlock()
}

// Scanning reports whether a scan is in flight.
func (c *Controller) Scanning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scanning
}

// PointerDown begins a manual drag. Any pending auto-navigate target is
// cancelled: a manual grab always wins over a programmatic transit.
func (c *Controller) PointerDown(pointer geometry.Point2D) {
	c.mu.Lock()
	c.cancelTransitLocked()
	c.session = &dragSession{grab: pointer.Sub(c.position)}
	c.state = StateDragging
	c.mu.Unlock()
}

// PointerMove updates the probe position during a drag and reports the new
// tip position. Ignored outside a drag session.
func (c *Controller) PointerMove(pointer geometry.Point2D) {
	c.mu.Lock()
	if c.state != StateDragging || c.session == nil {
		c.mu.Unlock()
		return
	}
	c.position = pointer.Sub(c.session.grab)
	tip := c.position.Add(TipOffset())
	move := c.onMove
	c.mu.Unlock()

	if move != nil {
		move(tip)
	}
}

// PointerUp ends the drag session and emits Release exactly once at the
// resolved tip position.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	if c.state != StateDragging || c.session == nil || c.session.released {
		c.mu.Unlock()
		return
	}
	c.session.released = true
	c.session = nil
	c.state = StateIdle
	tip := c.position.Add(TipOffset())
	release := c.onRelease
	c.mu.Unlock()

	if release != nil {
		release(tip)
	}
}

// NavigateTo places the probe so its tip lands on the given screen point
// and plays the transit. When the transit elapses the controller emits a
// final Move and then Release at the tip, and returns to Idle. A manual
// PointerDown before the timer fires cancels the pending release.
func (c *Controller) NavigateTo(tipTarget geometry.Point2D) {
	c.mu.Lock()
	c.cancelTransitLocked()
	c.position = tipTarget.Sub(TipOffset())
	c.state = StateAutoNavigating
	c.navGen++
	gen := c.navGen
	c.transit = c.clock.AfterFunc(c.transitDur, func() {
		c.finishTransit(gen)
	})
	c.mu.Unlock()
}

// Reset places the probe at the given position and drops any in-progress
// interaction. Used when the active creation changes.
func (c *Controller) Reset(position geometry.Point2D) {
	c.mu.Lock()
	c.cancelTransitLocked()
	c.session = nil
	c.state = StateIdle
	c.position = position
	c.mu.Unlock()
}

// DefaultPosition returns the probe's default top-right resting position
// for a container of the given width.
func DefaultPosition(containerWidth float64) geometry.Point2D {
	x := containerWidth - BodyWidth - 24
	if x < 0 {
		x = 0
	}
	return geometry.Point2D{X: x, Y: 24}
}

func (c *Controller) finishTransit(gen int) {
	c.mu.Lock()
	if c.state != StateAutoNavigating || gen != c.navGen {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.transit = nil
	tip := c.position.Add(TipOffset())
	move := c.onMove
	release := c.onRelease
	c.mu.Unlock()

	if move != nil {
		move(tip)
	}
	if release != nil {
		release(tip)
	}
}

// cancelTransitLocked invalidates any pending auto-navigate completion.
// Callers must hold c.mu.
func (c *Controller) cancelTransitLocked() {
	c.navGen++
	if c.transit != nil {
		c.transit.Stop()
		c.transit = nil
	}
}
