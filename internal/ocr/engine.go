// Package ocr reads printed text out of probe crops so scans can carry a
// textual hint (part numbers, labels, annotations) to the remote analyzers.
package ocr

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/otiai10/gosseract/v2"
)

// Engine provides OCR functionality using Tesseract.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates a new OCR engine.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Disable dictionary-based word correction - labels and part numbers
	// aren't English words and must not be "corrected".
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// RecognizeCrop runs OCR on an encoded crop image and returns the cleaned
// text. An empty string means no legible text; that is not an error.
func (e *Engine) RecognizeCrop(imageBytes []byte) (string, error) {
	if len(imageBytes) == 0 {
		return "", fmt.Errorf("empty image")
	}

	// PSM 6 = assume a single uniform block of text.
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}

	if err := e.client.SetImageFromBytes(imageBytes); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return CleanText(text), nil
}

// CleanText collapses OCR output into a single trimmed line and drops runs
// of non-text noise.
func CleanText(text string) string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if isNoise(f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// isNoise rejects tokens with no letters or digits at all. Letters in any
// script count; labels are not always Latin.
func isNoise(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
