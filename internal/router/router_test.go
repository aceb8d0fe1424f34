package router_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"

	"sketch-sim/internal/app"
	"sketch-sim/internal/creation"
	"sketch-sim/internal/remote"
	"sketch-sim/internal/router"
	"sketch-sim/pkg/geometry"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		input string
		want  router.Intent
	}{
		{"find the red wire", router.IntentLocate},
		{"fix the broken fan, find the switch first", router.IntentLocate},
		{"WHERE IS the power switch", router.IntentLocate},
		{"스위치 어디에 있어?", router.IntentLocate},
		{"fix the broken fan", router.IntentModify},
		{"make it spin faster", router.IntentModify},
		{"팬 좀 고쳐줘", router.IntentModify},
		{"what is this machine for?", router.IntentQuery},
		{"tell me about the gears", router.IntentQuery},
		// "added" must not trip the add keyword.
		{"what got added here?", router.IntentQuery},
	}
	for _, tc := range cases {
		if got := router.Classify(tc.input); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

type fakeService struct {
	locate    remote.LocateResult
	locateErr error
	patch     string
	patchErr  error
	answer    string
	answerErr error

	locateCalls int
	patchCalls  int
	patchedDoc  string
}

func (f *fakeService) GenerateSimulation(ctx context.Context, instruction string, imageBytes []byte, mimeType string) (string, error) {
	return "", fmt.Errorf("not used")
}

func (f *fakeService) PatchSimulation(ctx context.Context, currentDoc, instruction string) (string, error) {
	f.patchCalls++
	f.patchedDoc = currentDoc
	return f.patch, f.patchErr
}

func (f *fakeService) AnalyzeFreeform(ctx context.Context, question string, imageBytes, cropBytes []byte) (string, error) {
	return f.answer, f.answerErr
}

func (f *fakeService) LocateObject(ctx context.Context, query string, imageBytes []byte) (remote.LocateResult, error) {
	f.locateCalls++
	return f.locate, f.locateErr
}

func (f *fakeService) AnalyzeBiological(ctx context.Context, cropBytes, contextBytes []byte) (remote.BioAnalysis, error) {
	return remote.BioAnalysis{}, fmt.Errorf("not used")
}

func (f *fakeService) AnalyzeTechnical(ctx context.Context, cropBytes, contextBytes []byte) (remote.TechAnalysis, error) {
	return remote.TechAnalysis{}, fmt.Errorf("not used")
}

type fakeNav struct {
	targets []geometry.Point2D
}

func (n *fakeNav) NavigateTo(tip geometry.Point2D) {
	n.targets = append(n.targets, tip)
}

// testCreation builds a creation backed by a real 100x100 PNG so the state
// can recover the asset's natural dimensions.
func testCreation(t *testing.T) *creation.Creation {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 100))); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return creation.New("bench", "<html><body><img src=\""+creation.ImagePlaceholder+"\"></body></html>", uri)
}

func newTestRouter(t *testing.T, svc *fakeService) (*router.Router, *app.State, *fakeNav) {
	t.Helper()
	state := app.NewState()
	state.SetCreation(testCreation(t))
	nav := &fakeNav{}
	container := func() geometry.Rect {
		return geometry.Rect{Width: 200, Height: 100}
	}
	return router.New(state, svc, nav, container), state, nav
}

func lastMessage(t *testing.T, state *app.State) app.Message {
	t.Helper()
	msgs := state.Messages()
	if len(msgs) == 0 {
		t.Fatalf("no messages appended")
	}
	return msgs[len(msgs)-1]
}

func TestLocateNavigatesToScreenPoint(t *testing.T) {
	svc := &fakeService{
		locate: remote.LocateResult{Found: true, X: 50, Y: 50, Label: "power switch"},
	}
	r, state, nav := newTestRouter(t, svc)

	r.Dispatch(context.Background(), "find the power switch")

	if len(nav.targets) != 1 {
		t.Fatalf("expected one navigation target, got %d", len(nav.targets))
	}
	// Square image in a 200x100 container: displayed area is x in [50,150],
	// so image-space (50,50) maps back to screen (100,50).
	got := nav.targets[0]
	if got.X != 100 || got.Y != 50 {
		t.Fatalf("navigation target = (%v,%v), want (100,50)", got.X, got.Y)
	}
	msg := lastMessage(t, state)
	if msg.Kind != app.KindNavigationReport || !strings.Contains(msg.Text, "power switch") {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestLocateNotFoundStops(t *testing.T) {
	svc := &fakeService{locate: remote.LocateResult{Found: false}}
	r, state, nav := newTestRouter(t, svc)

	r.Dispatch(context.Background(), "find the unicorn")

	if len(nav.targets) != 0 {
		t.Fatalf("probe moved despite a not-found result")
	}
	if msg := lastMessage(t, state); !strings.Contains(msg.Text, "No matching object") {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestModifyReplacesDocumentAndSplicesImage(t *testing.T) {
	svc := &fakeService{
		patch: "<html><body><p>patched</p><img src=\"" + creation.ImagePlaceholder + "\"></body></html>",
	}
	r, state, _ := newTestRouter(t, svc)

	r.Dispatch(context.Background(), "fix the broken fan")

	if svc.patchCalls != 1 {
		t.Fatalf("expected one patch call, got %d", svc.patchCalls)
	}
	if strings.Contains(svc.patchedDoc, "base64,") {
		t.Fatalf("image payload was sent with the patch request")
	}
	cr := state.Creation()
	if !strings.Contains(cr.HTML, "patched") {
		t.Fatalf("document not replaced: %q", cr.HTML)
	}
	if !strings.Contains(cr.HTML, creation.ImagePlaceholder) {
		t.Fatalf("stored document should keep the placeholder form")
	}
	if state.PatchBusy() {
		t.Fatalf("patch busy flag not cleared")
	}
}

func TestModifyFailureRetainsDocument(t *testing.T) {
	svc := &fakeService{patchErr: fmt.Errorf("timeout")}
	r, state, _ := newTestRouter(t, svc)
	before := state.Creation().HTML

	r.Dispatch(context.Background(), "change the color to blue")

	if state.Creation().HTML != before {
		t.Fatalf("document changed after a failed patch")
	}
	if msg := lastMessage(t, state); !strings.Contains(msg.Text, "previous version is unchanged") {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if state.PatchBusy() {
		t.Fatalf("patch busy flag not cleared after failure")
	}
}

func TestQueryAppendsAnswer(t *testing.T) {
	svc := &fakeService{answer: "It drives the conveyor belt."}
	r, state, _ := newTestRouter(t, svc)

	r.Dispatch(context.Background(), "what does the large gear do?")

	if msg := lastMessage(t, state); msg.Text != "It drives the conveyor belt." {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestDispatchRecordsUserMessage(t *testing.T) {
	svc := &fakeService{answer: "ok"}
	r, state, _ := newTestRouter(t, svc)

	r.Dispatch(context.Background(), "  hello  ")

	msgs := state.Messages()
	if len(msgs) != 2 || msgs[0].Role != app.RoleUser || msgs[0].Text != "hello" {
		t.Fatalf("unexpected log: %+v", msgs)
	}
}
