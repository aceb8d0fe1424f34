// Package remote is the boundary to the inference service that generates,
// patches, and analyzes simulations. The service is opaque: image bytes and
// instructions go in, text or structured classifications come out.
package remote

import "context"

// LocateResult is the object-locator response. X and Y are percentage
// coordinates in [0,100] relative to the image's own bounds.
type LocateResult struct {
	Found bool   `json:"found"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label"`
}

// BioAnalysis is the biological-entity analyzer response.
type BioAnalysis struct {
	IsBiological   bool   `json:"isBiological"`
	CommonName     string `json:"commonName"`
	ScientificName string `json:"scientificName"`
	Confidence     int    `json:"confidence"`
	IsDangerous    bool   `json:"isDangerous"`
	Description    string `json:"description"`
}

// TechAnalysis is the technical-component analyzer response.
type TechAnalysis struct {
	IsTechnical   bool   `json:"isTechnical"`
	ComponentName string `json:"componentName"`
	ParentSystem  string `json:"parentSystem"`
	Confidence    int    `json:"confidence"`
	Function      string `json:"function"`
}

// Service is the remote inference boundary. All calls may fail with a
// network or service error; structured results decode malformed payloads to
// their zero value rather than failing.
type Service interface {
	// GenerateSimulation turns an instruction plus optional source image
	// into a full HTML document. The document embeds ImagePlaceholder
	// where the source image data URI belongs.
	GenerateSimulation(ctx context.Context, instruction string, imageBytes []byte, mimeType string) (string, error)

	// PatchSimulation sends the current document (image payload stripped)
	// plus an instruction and returns a full replacement document.
	PatchSimulation(ctx context.Context, currentDoc, instruction string) (string, error)

	// AnalyzeFreeform answers an open-ended question about the imagery.
	AnalyzeFreeform(ctx context.Context, question string, imageBytes, cropBytes []byte) (string, error)

	// LocateObject finds a described object in the image.
	LocateObject(ctx context.Context, query string, imageBytes []byte) (LocateResult, error)

	// AnalyzeBiological classifies the crop as a biological entity.
	AnalyzeBiological(ctx context.Context, cropBytes, contextBytes []byte) (BioAnalysis, error)

	// AnalyzeTechnical classifies the crop as a technical component.
	AnalyzeTechnical(ctx context.Context, cropBytes, contextBytes []byte) (TechAnalysis, error)
}
