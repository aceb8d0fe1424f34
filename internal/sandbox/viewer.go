// Package sandbox runs the generated simulation document in an isolated
// browsing context, separate from the main UI process.
package sandbox

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"sketch-sim/internal/config"
)

// Viewer hosts the simulation document in a dedicated browser page. All
// methods degrade to no-ops when no browser could be started, so the rest
// of the app works without one.
type Viewer struct {
	cfg config.SandboxConfig

	mu      sync.Mutex
	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	closed  bool
}

// NewViewer creates a viewer. Call Start to launch the browser.
func NewViewer(cfg config.SandboxConfig) *Viewer {
	return &Viewer{cfg: cfg}
}

// Start launches the browser and opens the simulation page. A launch
// failure disables the viewer instead of failing the app.
func (v *Viewer) Start() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return fmt.Errorf("sandbox: viewer is closed")
	}

	l := launcher.New().Headless(v.cfg.Headless)
	// Ephemeral profile: nothing the document stores outlives the session.
	l = l.Set("incognito")
	if v.cfg.BrowserPath != "" {
		l = l.Bin(v.cfg.BrowserPath)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("sandbox: launch: %w", err)
	}
	v.lnch = l

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		v.lnch = nil
		return fmt.Errorf("sandbox: connect: %w", err)
	}
	v.browser = b

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		v.cleanupLocked()
		return fmt.Errorf("sandbox: open page: %w", err)
	}

	router, err := hardenPage(page)
	if err != nil {
		v.cleanupLocked()
		return fmt.Errorf("sandbox: harden page: %w", err)
	}
	v.router = router
	v.page = page
	return nil
}

// storageLockdown removes the storage surface before any document script
// runs. Script execution itself stays enabled; the simulation needs it.
const storageLockdown = `(() => {
	const denied = {
		get() { throw new Error("storage is disabled in this context"); },
		configurable: false,
	};
	try { Object.defineProperty(window, "localStorage", denied); } catch (e) {}
	try { Object.defineProperty(window, "sessionStorage", denied); } catch (e) {}
	try { Object.defineProperty(window, "indexedDB", denied); } catch (e) {}
	try {
		Object.defineProperty(document, "cookie", {
			get() { return ""; },
			set() {},
		});
	} catch (e) {}
})();`

// hardenPage restricts the browsing context: top-level navigation requests
// are cancelled and storage APIs are removed on every new document.
func hardenPage(page *rod.Page) (*rod.HijackRouter, error) {
	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if blockRequest(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonAborted)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()

	if _, err := page.EvalOnNewDocument(storageLockdown); err != nil {
		router.Stop()
		return nil, err
	}
	return router, nil
}

// blockRequest reports whether a hijacked request must be cancelled. Only
// top-level document fetches are: they are the vehicle for navigating the
// sandbox away from its content.
func blockRequest(resType proto.NetworkResourceType) bool {
	return resType == proto.NetworkResourceTypeDocument
}

// Ready reports whether a browsing context is available.
func (v *Viewer) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page != nil
}

// Load replaces the page content with the rendered simulation document.
// The fresh about:blank navigation makes the lockdown script run before
// the document's own scripts do.
func (v *Viewer) Load(html string) error {
	v.mu.Lock()
	page := v.page
	v.mu.Unlock()
	if page == nil {
		return nil
	}
	if err := page.Navigate("about:blank"); err != nil {
		return fmt.Errorf("sandbox: reset page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return fmt.Errorf("sandbox: load document: %w", err)
	}
	return nil
}

// SetPlaying posts the playback toggle into the page. Generated documents
// listen for this message; ones that don't simply ignore it, so failures
// are logged and dropped.
func (v *Viewer) SetPlaying(playing bool) {
	v.mu.Lock()
	page := v.page
	v.mu.Unlock()
	if page == nil {
		return
	}
	_, err := page.Eval(`(playing) => {
		window.postMessage({ type: "toggleSimulation", isPlaying: playing }, "*");
	}`, playing)
	if err != nil {
		log.Printf("sandbox: playback toggle not delivered: %v", err)
	}
}

// Close shuts the browser down.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.cleanupLocked()
}

func (v *Viewer) cleanupLocked() {
	if v.router != nil {
		v.router.Stop()
		v.router = nil
	}
	if v.browser != nil {
		v.browser.Close()
		v.browser = nil
	}
	if v.lnch != nil {
		v.lnch.Cleanup()
		v.lnch = nil
	}
	v.page = nil
}
