// Package router classifies free-text user commands and dispatches them to
// the remote service.
package router

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"sketch-sim/internal/app"
	"sketch-sim/internal/creation"
	"sketch-sim/internal/mapper"
	"sketch-sim/internal/remote"
	"sketch-sim/pkg/geometry"
)

// Intent is the classified purpose of a free-text command.
type Intent int

const (
	// IntentQuery is a general question about the image or simulation.
	IntentQuery Intent = iota
	// IntentLocate asks to find an object and move the probe to it.
	IntentLocate
	// IntentModify asks to change the generated simulation.
	IntentModify
)

func (i Intent) String() string {
	switch i {
	case IntentLocate:
		return "locate"
	case IntentModify:
		return "modify"
	default:
		return "query"
	}
}

// Keyword tables are matched case-insensitively as substrings. Locate takes
// precedence over Modify: a command naming both vocabularies ("fix the fan,
// find the switch first") navigates rather than patches.
var (
	locatePattern = regexp.MustCompile(`(?i)\b(find|locate|search|detect|where\s+is|where's|point\s+(?:to|at)|show\s+me\s+where)\b|찾아|어디|검색`)
	modifyPattern = regexp.MustCompile(`(?i)\b(fix|change|broken|add|remove|modify|adjust|repair|replace|make\s+it|delete)\b|고쳐|바꿔|수정|추가|삭제|고장`)
)

// Classify maps a free-text command to an intent. Precedence is fixed:
// locate keywords win over modify keywords, and anything else is a query.
func Classify(input string) Intent {
	if locatePattern.MatchString(input) {
		return IntentLocate
	}
	if modifyPattern.MatchString(input) {
		return IntentModify
	}
	return IntentQuery
}

// Navigator receives auto-navigation targets in screen space. Satisfied by
// probe.Controller.
type Navigator interface {
	NavigateTo(tip geometry.Point2D)
}

// ContainerFunc returns the current on-screen bounds of the image display
// region. It is read fresh on every dispatch because layout can change.
type ContainerFunc func() geometry.Rect

// Router dispatches classified commands against the remote service and
// applies their results to the application state.
type Router struct {
	state     *app.State
	svc       remote.Service
	nav       Navigator
	container ContainerFunc
}

// New creates a command router.
func New(state *app.State, svc remote.Service, nav Navigator, container ContainerFunc) *Router {
	return &Router{state: state, svc: svc, nav: nav, container: container}
}

// Dispatch classifies input and runs the matching operation. It blocks until
// the operation resolves, so callers run it off the UI thread.
func (r *Router) Dispatch(ctx context.Context, input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	r.state.AppendUser(input)

	switch Classify(input) {
	case IntentLocate:
		r.locate(ctx, input)
	case IntentModify:
		r.modify(ctx, input)
	default:
		r.query(ctx, input)
	}
}

func (r *Router) locate(ctx context.Context, input string) {
	imageBytes := r.sourceImageBytes()
	if imageBytes == nil {
		r.state.AppendSystem("There is no source image to search yet.")
		return
	}

	result, err := r.svc.LocateObject(ctx, input, imageBytes)
	if err != nil {
		log.Printf("router: locate failed: %v", err)
		r.state.AppendSystem("The locator did not respond. Try again in a moment.")
		return
	}
	if !result.Found {
		r.state.AppendSystem("No matching object was found in the image.")
		return
	}

	target := mapper.NewTarget(result.X, result.Y)
	screen, ok := mapper.ToScreenSpace(target, r.container(), r.state.AssetSize())
	if !ok {
		r.state.AppendSystem("Found it, but the display area is not ready for navigation.")
		return
	}

	label := result.Label
	if label == "" {
		label = "the object"
	}
	r.state.Append(app.Message{
		Role: app.RoleSystem,
		Kind: app.KindNavigationReport,
		Text: fmt.Sprintf("Found %s - moving the probe there.", label),
	})
	r.state.Emit(app.EventNavigationTarget, screen)
	r.nav.NavigateTo(screen)
}

func (r *Router) modify(ctx context.Context, input string) {
	cr := r.state.Creation()
	if cr == nil || cr.HTML == "" {
		r.state.AppendSystem("There is no simulation to modify yet.")
		return
	}

	r.state.SetPatchBusy(true)
	defer r.state.SetPatchBusy(false)

	// The image payload is stripped before patching so the model never
	// rewrites megabytes of base64, then spliced back into the result.
	stripped := creation.StripImagePayload(cr.HTML, cr.OriginalImage)
	patched, err := r.svc.PatchSimulation(ctx, stripped, input)
	if err != nil {
		log.Printf("router: patch failed: %v", err)
		r.state.AppendSystem("The modification could not be applied. The previous version is unchanged.")
		return
	}
	html := remote.ExtractHTML(patched)
	if html == "" {
		log.Printf("router: patch response had no document")
		r.state.AppendSystem("The modification could not be applied. The previous version is unchanged.")
		return
	}

	// Stored documents keep the placeholder form; splicing happens at
	// render time. Strip again in case the model echoed the payload back.
	r.state.ReplaceDocument(creation.StripImagePayload(html, cr.OriginalImage))
	r.state.Append(app.Message{
		Role: app.RoleSystem,
		Kind: app.KindPatchApplied,
		Text: "Done. The simulation has been updated.",
	})
}

func (r *Router) query(ctx context.Context, input string) {
	answer, err := r.svc.AnalyzeFreeform(ctx, input, r.sourceImageBytes(), nil)
	if err != nil {
		log.Printf("router: query failed: %v", err)
		r.state.AppendSystem("The analysis service did not respond. Try again in a moment.")
		return
	}
	r.state.AppendSystem(answer)
}

func (r *Router) sourceImageBytes() []byte {
	cr := r.state.Creation()
	if cr == nil {
		return nil
	}
	data, _, ok := cr.ImageBytes()
	if !ok {
		return nil
	}
	return data
}
