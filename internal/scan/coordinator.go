// Package scan orchestrates the request lifecycle of a probe scan: crop
// extraction, the ordered analyzer chain against the remote service, and
// the sequencing guard that keeps overlapping scans from corrupting shared
// UI state.
package scan

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync/atomic"

	"sketch-sim/internal/app"
	"sketch-sim/internal/crop"
	"sketch-sim/internal/mapper"
	"sketch-sim/internal/remote"
)

// ConfidenceThreshold is the minimum reported certainty (0-100) required to
// accept a specialized analyzer's classification instead of falling through
// to the next candidate.
const ConfidenceThreshold = 50

// HintFunc extracts a textual hint (printed labels near the probe tip) from
// an encoded crop. Empty result means no hint.
type HintFunc func(cropBytes []byte) string

// Coordinator runs scans against the remote service and applies results to
// the application state.
//
// Overlapping scans are never serialized: each run takes a monotonically
// increasing sequence number and only the latest-issued scan applies its
// outcome. Completions of superseded scans are discarded, so the displayed
// result and the busy flag always reflect the most recently initiated scan.
type Coordinator struct {
	state *app.State
	svc   remote.Service

	// extract is crop.Extract unless replaced in tests.
	extract func(img image.Image, t mapper.Target) ([]byte, error)

	// hint is optional local OCR of the crop.
	hint HintFunc

	seq atomic.Uint64
}

// NewCoordinator creates a scan coordinator.
func NewCoordinator(state *app.State, svc remote.Service) *Coordinator {
	return &Coordinator{
		state:   state,
		svc:     svc,
		extract: crop.Extract,
	}
}

// SetHintFunc installs a local text-hint extractor run on each crop.
func (c *Coordinator) SetHintFunc(f HintFunc) {
	c.hint = f
}

// SetExtractFunc replaces the crop extractor. Used by tests.
func (c *Coordinator) SetExtractFunc(f func(img image.Image, t mapper.Target) ([]byte, error)) {
	c.extract = f
}

// analyzer is one candidate in the ordered chain. run returns the report
// text and whether the classification was accepted; a non-nil error
// terminates the whole chain.
type analyzer struct {
	name string
	run  func(ctx context.Context) (string, bool, error)
}

// Run executes one scan for the given target. Safe to call from any
// goroutine; result application is guarded by the sequence number.
func (c *Coordinator) Run(ctx context.Context, target mapper.Target) {
	seq := c.seq.Add(1)
	c.state.SetScanBusy(true)
	defer c.settle(seq)

	if !target.Valid {
		c.apply(seq, app.Message{
			Role: app.RoleSystem,
			Kind: app.KindScanReport,
			Text: "That point is outside the image - aim the probe at the picture itself.",
		})
		return
	}

	// Crop failure degrades the payload; the scan continues without one.
	cropBytes, err := c.extract(c.state.Asset(), target)
	if err != nil {
		log.Printf("scan: proceeding without crop: %v", err)
		cropBytes = nil
	}

	var hintText string
	if c.hint != nil && len(cropBytes) > 0 {
		hintText = c.hint(cropBytes)
	}

	contextBytes := c.fullContextBytes()

	chain := []analyzer{
		{name: "biological", run: func(ctx context.Context) (string, bool, error) {
			result, err := c.svc.AnalyzeBiological(ctx, cropBytes, contextBytes)
			if err != nil {
				return "", false, err
			}
			if !result.IsBiological || result.Confidence < ConfidenceThreshold {
				return "", false, nil
			}
			return formatBioReport(result), true, nil
		}},
		{name: "technical", run: func(ctx context.Context) (string, bool, error) {
			result, err := c.svc.AnalyzeTechnical(ctx, cropBytes, contextBytes)
			if err != nil {
				return "", false, err
			}
			if !result.IsTechnical {
				return "", false, nil
			}
			return formatTechReport(result), true, nil
		}},
		{name: "generic", run: func(ctx context.Context) (string, bool, error) {
			question := "What is at the crosshair-marked point in this image? Answer in two or three sentences."
			if hintText != "" {
				question += fmt.Sprintf(" Printed text near the point reads: %q.", hintText)
			}
			text, err := c.svc.AnalyzeFreeform(ctx, question, contextBytes, cropBytes)
			if err != nil {
				return "", false, err
			}
			return text, true, nil
		}},
	}

	for _, a := range chain {
		report, accepted, err := a.run(ctx)
		if err != nil {
			// A remote failure is terminal for this scan - no fallthrough
			// to the next analyzer, no automatic retry.
			log.Printf("scan: %s analyzer failed: %v", a.name, err)
			c.apply(seq, app.Message{
				Role: app.RoleSystem,
				Kind: app.KindScanReport,
				Text: "The scan could not be completed - the analysis service did not respond.",
			})
			return
		}
		if !accepted {
			continue
		}
		if hintText != "" {
			report += fmt.Sprintf("\nText read near the point: %q", hintText)
		}
		c.apply(seq, app.Message{
			Role:      app.RoleSystem,
			Kind:      app.KindScanReport,
			Text:      report,
			Thumbnail: cropBytes,
		})
		return
	}

	// The generic analyzer always accepts, so reaching here means an empty
	// chain response.
	c.apply(seq, app.Message{
		Role: app.RoleSystem,
		Kind: app.KindScanReport,
		Text: "Nothing recognizable at that point.",
	})
}

// latest reports whether seq is still the most recently issued scan.
func (c *Coordinator) latest(seq uint64) bool {
	return c.seq.Load() == seq
}

// apply appends the result message unless this scan has been superseded.
func (c *Coordinator) apply(seq uint64, m app.Message) {
	if !c.latest(seq) {
		log.Printf("scan: discarding result of superseded scan #%d", seq)
		return
	}
	c.state.Append(m)
}

// settle releases the busy flag exactly once per scan. The flag belongs to
// the latest-issued scan, so superseded scans leave it alone.
func (c *Coordinator) settle(seq uint64) {
	if c.latest(seq) {
		c.state.SetScanBusy(false)
	}
}

// fullContextBytes returns the active creation's source image payload for
// full-context analysis, or nil.
func (c *Coordinator) fullContextBytes() []byte {
	active := c.state.Creation()
	if active == nil {
		return nil
	}
	data, _, ok := active.ImageBytes()
	if !ok {
		return nil
	}
	return data
}

func formatBioReport(r remote.BioAnalysis) string {
	name := r.CommonName
	if name == "" {
		name = "Unidentified organism"
	}
	report := name
	if r.ScientificName != "" {
		report += fmt.Sprintf(" (%s)", r.ScientificName)
	}
	report += fmt.Sprintf(" - confidence %d%%", r.Confidence)
	if r.Description != "" {
		report += "\n" + r.Description
	}
	if r.IsDangerous {
		report += "\nCaution: potentially dangerous."
	}
	return report
}

func formatTechReport(r remote.TechAnalysis) string {
	name := r.ComponentName
	if name == "" {
		name = "Unidentified component"
	}
	report := name
	if r.ParentSystem != "" {
		report += fmt.Sprintf(" - part of %s", r.ParentSystem)
	}
	if r.Function != "" {
		report += "\n" + r.Function
	}
	return report
}
