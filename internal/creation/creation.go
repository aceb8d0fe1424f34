// Package creation models one generated simulation: the source image, the
// generated HTML document, and the splice/strip handling of the embedded
// image payload.
package creation

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImagePlaceholder is the token the generation service embeds in documents
// where the source image data URI belongs.
const ImagePlaceholder = "{{SOURCE_IMAGE}}"

// Creation is one generated simulation with its source image.
type Creation struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	HTML          string    `json:"html"`
	OriginalImage string    `json:"originalImage,omitempty"` // data URI
	CreatedAt     time.Time `json:"timestamp"`
}

// New creates a creation with a fresh ID and the current time.
func New(name, html, originalImage string) *Creation {
	return &Creation{
		ID:            uuid.NewString(),
		Name:          name,
		HTML:          html,
		OriginalImage: originalImage,
		CreatedAt:     time.Now().UTC(),
	}
}

// DataURI builds an image data URI from raw bytes.
func DataURI(imageBytes []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
}

// ImageBytes decodes the original image payload out of the data URI.
func (c *Creation) ImageBytes() ([]byte, string, bool) {
	uri := c.OriginalImage
	if !strings.HasPrefix(uri, "data:") {
		return nil, "", false
	}
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, "", false
	}
	meta := uri[len("data:"):comma]
	mime := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, "", false
	}
	return data, mime, true
}

// RenderableHTML returns the document with the placeholder token replaced by
// the actual image data URI, ready for the embedded browsing context.
func (c *Creation) RenderableHTML() string {
	return strings.ReplaceAll(c.HTML, ImagePlaceholder, c.OriginalImage)
}

// StripImagePayload replaces any spliced-in data URI with the placeholder
// token so patch payload sizes stay bounded.
func StripImagePayload(doc, originalImage string) string {
	if originalImage == "" {
		return doc
	}
	return strings.ReplaceAll(doc, originalImage, ImagePlaceholder)
}

// SpliceImagePayload is the inverse of StripImagePayload.
func SpliceImagePayload(doc, originalImage string) string {
	return strings.ReplaceAll(doc, ImagePlaceholder, originalImage)
}
