// Package app provides application lifecycle management, state, and events.
package app

import (
	"bytes"
	"fmt"
	goimage "image"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	_ "golang.org/x/image/tiff"

	"sketch-sim/internal/creation"
	"sketch-sim/pkg/geometry"
)

// Role tags who produced a message.
type Role int

const (
	RoleUser Role = iota
	RoleSystem
)

// MessageKind tags what a message reports.
type MessageKind int

const (
	KindPlain MessageKind = iota
	KindScanReport
	KindPatchApplied
	KindNavigationReport
)

// Message is one entry in the conversation log. Entries are append-only;
// insertion order is display order.
type Message struct {
	Role      Role
	Kind      MessageKind
	Text      string
	Thumbnail []byte // optional JPEG attachment
	At        time.Time
}

// EventType identifies different application events.
type EventType int

const (
	EventCreationChanged EventType = iota
	EventMessageAppended
	EventScanBusyChanged
	EventPatchBusyChanged
	EventGenerating
	EventDocumentReplaced
	EventNavigationTarget
	EventPlaybackToggled
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the application state: the active creation, its source image
// asset, the message log, and busy flags. All mutation goes through State so
// the single owning context stays consistent; UI components subscribe via
// the event hub.
type State struct {
	mu sync.RWMutex

	// Active creation and its decoded source image.
	active    *creation.Creation
	asset     goimage.Image
	assetSize geometry.Size

	// Conversation log, append-only.
	messages []Message

	// Busy flags for in-flight remote work.
	scanBusy  bool
	patchBusy bool

	// Playback state of the embedded simulation.
	playing bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// NewState creates a new application state.
func NewState() *State {
	return &State{
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetCreation makes a creation active, decoding its source image to obtain
// the asset's natural dimensions. The probe and viewer react to the emitted
// event. A nil creation clears the workspace.
func (s *State) SetCreation(c *creation.Creation) error {
	var img goimage.Image
	var size geometry.Size

	if c != nil {
		if data, _, ok := c.ImageBytes(); ok {
			decoded, _, err := goimage.Decode(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("decode source image: %w", err)
			}
			img = decoded
			b := decoded.Bounds()
			size = geometry.NewSize(float64(b.Dx()), float64(b.Dy()))
		}
		// A creation without a decodable image keeps a zero asset size;
		// coordinate mapping degrades to container-relative percentages.
	}

	s.mu.Lock()
	s.active = c
	s.asset = img
	s.assetSize = size
	s.mu.Unlock()

	s.Emit(EventCreationChanged, c)
	return nil
}

// Creation returns the active creation, or nil.
func (s *State) Creation() *creation.Creation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Asset returns the decoded source image, or nil while preloading.
func (s *State) Asset() goimage.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.asset
}

// AssetSize returns the natural pixel dimensions of the source image. A
// zero size means dimensions are unknown.
func (s *State) AssetSize() geometry.Size {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assetSize
}

// ReplaceDocument swaps the active creation's HTML wholesale (patch flow).
func (s *State) ReplaceDocument(html string) {
	s.mu.Lock()
	if s.active != nil {
		s.active.HTML = html
	}
	s.mu.Unlock()
	s.Emit(EventDocumentReplaced, html)
}

// Append adds a message to the log and notifies listeners.
func (s *State) Append(m Message) {
	if m.At.IsZero() {
		m.At = time.Now()
	}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.mu.Unlock()
	s.Emit(EventMessageAppended, m)
}

// AppendSystem is shorthand for a plain system message.
func (s *State) AppendSystem(text string) {
	s.Append(Message{Role: RoleSystem, Kind: KindPlain, Text: text})
}

// AppendUser is shorthand for a plain user message.
func (s *State) AppendUser(text string) {
	s.Append(Message{Role: RoleUser, Kind: KindPlain, Text: text})
}

// Messages returns a snapshot of the log in display order.
func (s *State) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetScanBusy flips the scan loading indicator.
func (s *State) SetScanBusy(busy bool) {
	s.mu.Lock()
	changed := s.scanBusy != busy
	s.scanBusy = busy
	s.mu.Unlock()
	if changed {
		s.Emit(EventScanBusyChanged, busy)
	}
}

// ScanBusy reports whether a scan drives the loading state.
func (s *State) ScanBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanBusy
}

// SetPatchBusy flips the patching-in-progress indicator.
func (s *State) SetPatchBusy(busy bool) {
	s.mu.Lock()
	changed := s.patchBusy != busy
	s.patchBusy = busy
	s.mu.Unlock()
	if changed {
		s.Emit(EventPatchBusyChanged, busy)
	}
}

// PatchBusy reports whether a patch is in flight.
func (s *State) PatchBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patchBusy
}

// SetPlaying toggles the embedded simulation's animation loop state.
func (s *State) SetPlaying(playing bool) {
	s.mu.Lock()
	s.playing = playing
	s.mu.Unlock()
	s.Emit(EventPlaybackToggled, playing)
}

// Playing reports the intended playback state.
func (s *State) Playing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}
